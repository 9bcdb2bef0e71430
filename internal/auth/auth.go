// Package auth signs and verifies ledger requests.
//
// A request is authenticated by a Schnorr signature over
//
//	BLAKE3("klingswap/v1" || 0x00 || chain_id || 0x00 || method || 0x00 || json(payload) || nonce_le64)
//
// made with the key whose address becomes the caller identity. The chain
// id binds a signature to one genesis. The nonce is checked by the ledger,
// which accepts each account nonce once.
package auth

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Domain separates klingswap request signatures from any other use of
// the same keys.
const Domain = "klingswap/v1"

// Auth errors.
var (
	ErrMissingAuth  = errors.New("missing auth envelope")
	ErrBadPubKey    = errors.New("invalid public key")
	ErrBadSignature = errors.New("invalid signature")
)

// Envelope carries the caller's public key, signature and nonce.
type Envelope struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
	Nonce     uint64 `json:"nonce"`
}

// SigningHash computes the hash a caller signs for method and payload on
// chainID.
func SigningHash(chainID, method string, payload any, nonce uint64) (types.Hash, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return types.Hash{}, fmt.Errorf("encode payload: %w", err)
	}
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	return crypto.HashParts([]byte(Domain), []byte{0}, []byte(chainID), []byte{0}, []byte(method), []byte{0}, body, n[:]), nil
}

// Sign authenticates a request with signer.
func Sign(signer crypto.Signer, chainID, method string, payload any, nonce uint64) (*Envelope, error) {
	h, err := SigningHash(chainID, method, payload, nonce)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(h[:])
	if err != nil {
		return nil, err
	}
	return &Envelope{
		PubKey:    hex.EncodeToString(signer.PublicKey()),
		Signature: hex.EncodeToString(sig),
		Nonce:     nonce,
	}, nil
}

// Verify checks env against method and payload on chainID and returns the
// caller address.
func Verify(chainID, method string, payload any, env *Envelope) (types.Address, error) {
	if env == nil {
		return types.Address{}, ErrMissingAuth
	}
	pub, err := hex.DecodeString(env.PubKey)
	if err != nil || len(pub) != 33 {
		return types.Address{}, ErrBadPubKey
	}
	sig, err := hex.DecodeString(env.Signature)
	if err != nil {
		return types.Address{}, ErrBadSignature
	}
	h, err := SigningHash(chainID, method, payload, env.Nonce)
	if err != nil {
		return types.Address{}, err
	}
	if !crypto.VerifySignature(h[:], sig, pub) {
		return types.Address{}, ErrBadSignature
	}
	return crypto.AddressFromPubKey(pub), nil
}
