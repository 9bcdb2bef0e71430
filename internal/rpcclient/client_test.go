package rpcclient

import (
	"testing"
	"time"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
)

type testEnv struct {
	client *Client
	key    *crypto.PrivateKey
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addrHex := key.Address().Hex()
	gen := &config.Genesis{
		ChainID:   "klingswap-test-client",
		ChainName: "Client Test",
		Timestamp: uint64(time.Now().Unix()),
		Alloc:     map[string]uint64{addrHex: 100_000 * config.Coin},
		Exchange: config.ExchangeRules{
			FeeBasisPoints: 100,
			PriceInAsset:   10_000_000_000,
			AmountOfToken:  50_000_000_000,
			Deployer:       addrHex,
		},
	}

	l, err := ledger.Open(storage.NewMemory(), gen, nil)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	srv := rpc.New("127.0.0.1:0", l, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{client: New("http://" + srv.Addr() + "/"), key: key}
}

func TestClient_Call(t *testing.T) {
	env := setupTestEnv(t)

	var result rpc.ExchangeInfoResult
	if err := env.client.Call(rpc.MethodExchangeGetInfo, nil, &result); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if result.ChainID != "klingswap-test-client" {
		t.Errorf("chain_id = %q, want %q", result.ChainID, "klingswap-test-client")
	}
	if result.Rate != 5 {
		t.Errorf("rate = %d, want 5", result.Rate)
	}
}

func TestClient_CallError(t *testing.T) {
	env := setupTestEnv(t)

	err := env.client.Call("no_such_method", nil, nil)
	if !IsCode(err, rpc.CodeMethodNotFound) {
		t.Fatalf("err = %v, want code %d", err, rpc.CodeMethodNotFound)
	}
	err = env.client.Call(rpc.MethodQuoteAssetForToken, rpc.AmountParam{Amount: 0}, nil)
	if !IsCode(err, rpc.CodeZeroValue) {
		t.Fatalf("err = %v, want code %d", err, rpc.CodeZeroValue)
	}
}

func TestClient_SignedCall(t *testing.T) {
	env := setupTestEnv(t)
	addr := env.key.Address()

	nonce, err := env.client.NextNonce(addr)
	if err != nil {
		t.Fatalf("NextNonce: %v", err)
	}
	if nonce != 1 {
		t.Errorf("nonce = %d, want 1", nonce)
	}

	var q exchange.AssetQuote
	err = env.client.SignedCall(rpc.MethodSwapAssetForToken, rpc.AmountPayload{Amount: 20_000_000_000}, env.key, nonce, &q)
	if err != nil {
		t.Fatalf("SignedCall: %v", err)
	}
	if q.TokenOut != 99_000_000_000 {
		t.Errorf("minted = %d, want 99000000000", q.TokenOut)
	}

	// Replaying the nonce is rejected.
	err = env.client.SignedCall(rpc.MethodSwapAssetForToken, rpc.AmountPayload{Amount: 20_000_000_000}, env.key, nonce, nil)
	if !IsCode(err, rpc.CodeBadNonce) {
		t.Errorf("replay err = %v, want code %d", err, rpc.CodeBadNonce)
	}

	var claim rpc.ClaimResult
	if err := env.client.SignedCall(rpc.MethodClaimFees, rpc.EmptyPayload{}, env.key, 2, &claim); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Claimed != 200_000_000 {
		t.Errorf("claimed = %d, want 200000000", claim.Claimed)
	}

	bal, err := env.client.Balance(addr)
	if err != nil {
		t.Fatal(err)
	}
	if bal.Token != 99_000_000_000 || bal.Nonce != 2 {
		t.Errorf("balance = %+v", bal)
	}
	if bal.Native != 100_000*config.Coin-20_000_000_000+200_000_000 {
		t.Errorf("native = %d", bal.Native)
	}
}

func TestClient_ChainID(t *testing.T) {
	env := setupTestEnv(t)

	id, err := env.client.ChainID()
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}
	if id != "klingswap-test-client" {
		t.Errorf("chain id = %q, want %q", id, "klingswap-test-client")
	}

	// A signature bound to another chain is refused and burns no nonce.
	env.client.SetChainID("klingswap-mainnet-1")
	err = env.client.SignedCall(rpc.MethodSwapAssetForToken, rpc.AmountPayload{Amount: 20_000_000_000}, env.key, 1, nil)
	if !IsCode(err, rpc.CodeUnauthorized) {
		t.Fatalf("err = %v, want code %d", err, rpc.CodeUnauthorized)
	}
	nonce, err := env.client.NextNonce(env.key.Address())
	if err != nil {
		t.Fatal(err)
	}
	if nonce != 1 {
		t.Errorf("nonce = %d, want 1", nonce)
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := NewWithTimeout("http://127.0.0.1:1/", 500*time.Millisecond)
	if err := c.Call(rpc.MethodExchangeGetInfo, nil, nil); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
