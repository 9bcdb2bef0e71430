// Package crypto provides the hashing and signing primitives klingswap uses
// for identifiers and request authentication.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes the concatenation of parts without an intermediate copy.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveID computes BLAKE3(namespace || counter_le64). Identifiers derived
// this way are unique per (namespace, counter) pair and ordered by counter.
func DeriveID(namespace types.Hash, counter uint64) types.Hash {
	var buf [types.HashSize + 8]byte
	copy(buf[:types.HashSize], namespace[:])
	binary.LittleEndian.PutUint64(buf[types.HashSize:], counter)
	return Hash(buf[:])
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
