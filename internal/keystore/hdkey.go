package keystore

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// BIP-44 path m/44'/8888'/account'/0/index.
const (
	PurposeBIP44   = bip32.FirstHardenedChild + 44
	CoinType       = bip32.FirstHardenedChild + 8888
	ChangeExternal = 0
)

// Path identifies a derived key below the master seed.
type Path struct {
	Account uint32 `json:"account"`
	Index   uint32 `json:"index"`
}

// String renders the full BIP-44 path.
func (p Path) String() string {
	return fmt.Sprintf("m/44'/8888'/%d'/%d/%d", p.Account, ChangeExternal, p.Index)
}

// DeriveKey derives the signing key at p from a BIP-39 seed.
func DeriveKey(seed []byte, p Path) (*crypto.PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range []uint32{
		PurposeBIP44,
		CoinType,
		bip32.FirstHardenedChild + p.Account,
		ChangeExternal,
		p.Index,
	} {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", p, err)
		}
	}
	// bip32 stores private keys as 33 bytes with a leading zero.
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}
