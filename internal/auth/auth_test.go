package auth

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
)

const testChain = "klingswap-test-1"

type swapPayload struct {
	Amount uint64 `json:"amount"`
}

func TestSignVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	env, err := Sign(key, testChain, "exchange_swapAssetForToken", swapPayload{Amount: 100}, 1)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	addr, err := Verify(testChain, "exchange_swapAssetForToken", swapPayload{Amount: 100}, env)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if addr != key.Address() {
		t.Errorf("caller = %s, want %s", addr, key.Address())
	}
}

func TestVerify_Tampered(t *testing.T) {
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	env, err := Sign(key, testChain, "stake_stake", swapPayload{Amount: 100}, 7)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		chainID string
		method  string
		payload swapPayload
		env     func() *Envelope
		want    error
	}{
		{"nil envelope", testChain, "stake_stake", swapPayload{100}, func() *Envelope { return nil }, ErrMissingAuth},
		{"other chain", "klingswap-mainnet-1", "stake_stake", swapPayload{100}, func() *Envelope { return env }, ErrBadSignature},
		{"other method", testChain, "exchange_claimFees", swapPayload{100}, func() *Envelope { return env }, ErrBadSignature},
		{"other amount", testChain, "stake_stake", swapPayload{101}, func() *Envelope { return env }, ErrBadSignature},
		{"other nonce", testChain, "stake_stake", swapPayload{100}, func() *Envelope {
			e := *env
			e.Nonce = 8
			return &e
		}, ErrBadSignature},
		{"swapped key", testChain, "stake_stake", swapPayload{100}, func() *Envelope {
			e := *env
			e.PubKey = hexKey(other)
			return &e
		}, ErrBadSignature},
		{"bad pubkey", testChain, "stake_stake", swapPayload{100}, func() *Envelope {
			e := *env
			e.PubKey = "zz"
			return &e
		}, ErrBadPubKey},
		{"bad signature hex", testChain, "stake_stake", swapPayload{100}, func() *Envelope {
			e := *env
			e.Signature = "not-hex"
			return &e
		}, ErrBadSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Verify(tt.chainID, tt.method, tt.payload, tt.env()); !errors.Is(err, tt.want) {
				t.Errorf("Verify error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSigningHash_Separation(t *testing.T) {
	a, _ := SigningHash(testChain, "ab", struct{}{}, 0)
	b, _ := SigningHash(testChain, "a", struct{ B string }{"b"}, 0)
	if a == b {
		t.Error("method and payload boundaries must be separated")
	}
	c, _ := SigningHash("x", "stake_stake", struct{}{}, 0)
	d, _ := SigningHash("", "x\x00stake_stake", struct{}{}, 0)
	if c == d {
		t.Error("chain id and method boundaries must be separated")
	}
}

func hexKey(k *crypto.PrivateKey) string {
	env, _ := Sign(k, testChain, "x", nil, 0)
	return env.PubKey
}
