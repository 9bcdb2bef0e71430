package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

func TestGenesis_Validate_MainnetValid(t *testing.T) {
	g := MainnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("mainnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_TestnetValid(t *testing.T) {
	g := TestnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("testnet genesis should be valid: %v", err)
	}
}

func TestGenesis_ReferenceExchange(t *testing.T) {
	p := MainnetGenesis().Exchange.Params()
	if p.PriceInAsset != 10_000_000_000 || p.AmountOfToken != 50_000_000_000 || p.FeeBasisPoints != 100 {
		t.Errorf("exchange params = %+v", p)
	}
	if p.Rate() != 5 {
		t.Errorf("rate = %d, want 5", p.Rate())
	}
}

func TestTestnetIdentity(t *testing.T) {
	key, err := crypto.PrivateKeyFromHex(TestnetPrivKey)
	if err != nil {
		t.Fatalf("PrivateKeyFromHex: %v", err)
	}
	want, err := types.ParseAddress(TestnetAddress)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if key.Address() != want {
		t.Errorf("key address = %s, want %s", key.Address().Hex(), want.Hex())
	}
	deployer, err := TestnetGenesis().Exchange.DeployerAddress()
	if err != nil || deployer != want {
		t.Errorf("testnet deployer = %s, %v", deployer.Hex(), err)
	}
}

func TestGenesis_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Genesis)
		target error
	}{
		{"no chain id", func(g *Genesis) { g.ChainID = "" }, nil},
		{"fractional rate", func(g *Genesis) { g.Exchange.AmountOfToken = 15 * MilliCoin }, exchange.ErrInvalidConfiguration},
		{"zero price", func(g *Genesis) { g.Exchange.PriceInAsset = 0 }, exchange.ErrInvalidConfiguration},
		{"fee over 100%", func(g *Genesis) { g.Exchange.FeeBasisPoints = 10_001 }, exchange.ErrInvalidConfiguration},
		{"bad deployer", func(g *Genesis) { g.Exchange.Deployer = "nope" }, nil},
		{"zero deployer", func(g *Genesis) { g.Exchange.Deployer = "0000000000000000000000000000000000000000" }, nil},
		{"bad alloc", func(g *Genesis) { g.Alloc["bogus"] = 1 }, nil},
		{"alloc overflow", func(g *Genesis) {
			g.Alloc["1111111111111111111111111111111111111111"] = 1<<64 - 1
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := MainnetGenesis()
			tt.mutate(g)
			err := g.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Validate() = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestGenesis_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	g := TestnetGenesis()
	g.Exchange.FeeBasisPoints = 30
	if err := g.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("LoadGenesis: %v", err)
	}
	if loaded.Exchange != g.Exchange || loaded.ChainID != g.ChainID {
		t.Errorf("loaded = %+v, want %+v", loaded.Exchange, g.Exchange)
	}

	h1, _ := g.Hash()
	h2, _ := loaded.Hash()
	if h1 != h2 {
		t.Error("hash changed across save/load")
	}
}

func TestResolveGenesis(t *testing.T) {
	cfg := Default(Testnet)
	g, err := ResolveGenesis(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.ChainID != "klingswap-testnet-1" {
		t.Errorf("chain id = %s", g.ChainID)
	}

	cfg.GenesisFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := ResolveGenesis(cfg); err == nil {
		t.Error("missing genesis file should fail")
	}
}
