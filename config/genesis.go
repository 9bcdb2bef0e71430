package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// =============================================================================
// Exchange Rules (immutable, defined in genesis)
// =============================================================================

// Denomination constants.
// 1 coin = 10^12 base units. All ledger values are in base units.
const (
	Decimals  = 12
	Coin      = 1_000_000_000_000 // 10^12 base units per coin
	MilliCoin = 1_000_000_000     // 10^9
	MicroCoin = 1_000_000         // 10^6
)

// Genesis holds the initial ledger state and the exchange rules.
// It is applied once, when the ledger database is empty.
type Genesis struct {
	// Ledger identity
	ChainID     string `json:"chain_id"`
	ChainName   string `json:"chain_name"`
	Symbol      string `json:"symbol,omitempty"`       // Native asset symbol (e.g., "KGX")
	TokenSymbol string `json:"token_symbol,omitempty"` // Issued token symbol (e.g., "KSW")

	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Initial native allocations (address -> balance in base units)
	Alloc map[string]uint64 `json:"alloc"`

	// Exchange rules
	Exchange ExchangeRules `json:"exchange"`
}

// ExchangeRules fixes the exchange for the life of the ledger.
type ExchangeRules struct {
	FeeBasisPoints uint64 `json:"fee_basis_points"`
	PriceInAsset   uint64 `json:"price_in_asset"`  // Native base units...
	AmountOfToken  uint64 `json:"amount_of_token"` // ...buy this many token base units
	Deployer       string `json:"deployer"`        // Address holding the admin capability
}

// Params returns the exchange parameters.
func (r ExchangeRules) Params() exchange.Params {
	return exchange.Params{
		FeeBasisPoints: r.FeeBasisPoints,
		PriceInAsset:   r.PriceInAsset,
		AmountOfToken:  r.AmountOfToken,
	}
}

// DeployerAddress parses the deployer address.
func (r ExchangeRules) DeployerAddress() (types.Address, error) {
	return types.ParseAddress(r.Deployer)
}

// =============================================================================
// Testnet Identity
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Derivation path: m/44'/8888'/0'/0/0 (no passphrase)
// =============================================================================

const (
	// TestnetMnemonic is the well-known seed phrase for the testnet admin.
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	// TestnetPubKey is the compressed public key (hex) derived from TestnetMnemonic.
	TestnetPubKey = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"

	// TestnetPrivKey is the private key (hex) derived from TestnetMnemonic.
	TestnetPrivKey = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"

	// TestnetAddress is the address (bech32, tkgx) derived from TestnetMnemonic.
	// Address = BLAKE3(pubkey)[:20]
	TestnetAddress = "tkgx13uayfwq9djh7cd5dagxtuzk3mx7r7sc9xv4h52"
)

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	const admin = "kgx1a8tfl79jgres7t90tttkc7ytjmhs5lpdn5ag4l"
	return &Genesis{
		ChainID:     "klingswap-mainnet-1",
		ChainName:   "Klingswap Mainnet",
		Symbol:      "KGX",
		TokenSymbol: "KSW",
		Timestamp:   1792195200, // 2026-10-17
		ExtraData:   "Klingswap Genesis",
		Alloc: map[string]uint64{
			admin: 100_000 * Coin, // Seed liquidity for the admin
		},
		Exchange: ExchangeRules{
			FeeBasisPoints: 100,            // 1%
			PriceInAsset:   10 * MilliCoin, // 0.01 KGX...
			AmountOfToken:  50 * MilliCoin, // ...buys 0.05 KSW (rate 5)
			Deployer:       admin,
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "klingswap-testnet-1"
	g.ChainName = "Klingswap Testnet"
	g.ExtraData = "Klingswap Testnet Genesis"

	// Testnet allocation: 200,000 KGX to the well-known testnet address,
	// which is also the exchange admin.
	g.Alloc = map[string]uint64{
		TestnetAddress: 200_000 * Coin,
	}
	g.Exchange.Deployer = TestnetAddress

	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// ResolveGenesis returns the genesis file named in cfg, or the built-in
// genesis for cfg.Network.
func ResolveGenesis(cfg *Config) (*Genesis, error) {
	if cfg.GenesisFile != "" {
		return LoadGenesis(cfg.GenesisFile)
	}
	return GenesisFor(cfg.Network), nil
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	if err := g.Exchange.Params().Validate(); err != nil {
		return err
	}
	deployer, err := g.Exchange.DeployerAddress()
	if err != nil {
		return fmt.Errorf("invalid exchange deployer: %w", err)
	}
	if deployer.IsZero() {
		return fmt.Errorf("exchange deployer must not be the zero address")
	}

	// Validate alloc addresses and check the total fits in a uint64.
	var totalAlloc uint64
	for addrStr, v := range g.Alloc {
		if _, err := types.ParseAddress(addrStr); err != nil {
			return fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		if v > math.MaxUint64-totalAlloc {
			return fmt.Errorf("genesis allocations overflow uint64")
		}
		totalAlloc += v
	}

	return nil
}

// Hash returns a BLAKE3 hash of the genesis configuration.
// Used to detect a database created from a different genesis.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
