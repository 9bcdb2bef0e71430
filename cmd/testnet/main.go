// Command testnet boots a throwaway in-memory testnet node and drives a
// scripted trading session against it over JSON-RPC.
//
// Usage: go run ./cmd/testnet/
//
// It loads the well-known testnet identity as exchange admin, funds a fresh
// trader, walks through swaps, liquidity, staking and fee collection, and
// verifies the ledger invariants after every step.
package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/node"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/rpcclient"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/rs/zerolog"
)

// step is one scripted call.
type step struct {
	name    string
	signer  *crypto.PrivateKey
	method  string
	payload interface{}
	result  interface{}
}

func main() {
	klog.Init("info", false, "")
	logger := klog.WithComponent("testnet")

	logger.Info().Msg("=== Klingswap Local Testnet ===")

	// ── Phase 1: Identities + genesis ───────────────────────────────────

	admin, err := crypto.PrivateKeyFromHex(config.TestnetPrivKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("load testnet admin key")
	}
	defer admin.Zero()
	trader, err := crypto.GenerateKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("generate trader key")
	}
	defer trader.Zero()

	dir, err := os.MkdirTemp("", "klingswap-testnet-")
	if err != nil {
		logger.Fatal().Err(err).Msg("create temp dir")
	}
	defer os.RemoveAll(dir)

	gen := config.TestnetGenesis()
	gen.ChainID = "klingswap-testnet-local"
	gen.ChainName = "Local Testnet"
	gen.Timestamp = uint64(time.Now().Unix())
	genPath := filepath.Join(dir, "genesis.json")
	if err := gen.Save(genPath); err != nil {
		logger.Fatal().Err(err).Msg("write genesis")
	}

	// ── Phase 2: Boot node ──────────────────────────────────────────────

	cfg := config.DefaultTestnet()
	cfg.DataDir = dir
	cfg.GenesisFile = genPath
	cfg.DB.InMemory = true
	cfg.RPC.Port = 0

	n, err := node.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build node")
	}
	if err := n.Start(); err != nil {
		n.Stop()
		logger.Fatal().Err(err).Msg("start node")
	}
	defer n.Stop()

	client := rpcclient.New("http://" + n.RPCAddr())
	logger.Info().
		Str("rpc", n.RPCAddr()).
		Str("admin", admin.Address().String()).
		Str("trader", trader.Address().String()).
		Msg("Node started")

	// ── Phase 3: Scripted session ───────────────────────────────────────

	var (
		buy     exchange.AssetQuote
		ticket  rpc.TicketResult
		claimed rpc.ClaimResult
	)
	steps := []step{
		{"fund trader", admin, rpc.MethodTransfer, rpc.TransferPayload{
			To: trader.Address().String(), Denom: ledger.DenomNative, Amount: 100 * config.Coin,
		}, nil},
		{"trader buys", trader, rpc.MethodSwapAssetForToken, rpc.AmountPayload{Amount: 10 * config.Coin}, &buy},
		{"admin deposits", admin, rpc.MethodDepositLiquidity, rpc.AmountPayload{Amount: 1_000 * config.Coin}, nil},
		{"trader sells", trader, rpc.MethodSwapTokenForAsset, rpc.AmountPayload{Amount: 5 * config.Coin}, nil},
		{"trader stakes", trader, rpc.MethodStake, rpc.AmountPayload{Amount: 20 * config.Coin}, &ticket},
	}
	for _, s := range steps {
		run(logger, client, s)
	}

	run(logger, client, step{"trader redeems", trader, rpc.MethodUnstake,
		rpc.UnstakePayload{TicketID: ticket.ID}, nil})
	run(logger, client, step{"admin claims fees", admin, rpc.MethodClaimFees,
		rpc.EmptyPayload{}, &claimed})

	// ── Phase 4: Summary ────────────────────────────────────────────────

	var info rpc.ExchangeInfoResult
	if err := client.Call(rpc.MethodExchangeGetInfo, nil, &info); err != nil {
		logger.Fatal().Err(err).Msg("exchange_getInfo")
	}
	bal, err := client.Balance(trader.Address())
	if err != nil {
		logger.Fatal().Err(err).Msg("trader balance")
	}

	logger.Info().
		Uint64("liquidity", info.Liquidity).
		Uint64("fee_vault", info.FeeVault).
		Uint64("token_supply", info.TokenSupply).
		Uint64("tokens_bought", buy.TokenOut).
		Uint64("fees_claimed", claimed.Claimed).
		Uint64("trader_native", bal.Native).
		Uint64("trader_token", bal.Token).
		Msg("=== Session complete, books balanced ===")
}

// run executes s with the signer's next nonce and checks the invariants.
func run(logger zerolog.Logger, client *rpcclient.Client, s step) {
	nonce, err := client.NextNonce(s.signer.Address())
	if err != nil {
		logger.Fatal().Err(err).Str("step", s.name).Msg("fetch nonce")
	}
	if err := client.SignedCall(s.method, s.payload, s.signer, nonce, s.result); err != nil {
		logger.Fatal().Err(err).Str("step", s.name).Msg("call failed")
	}

	var inv rpc.InvariantsResult
	if err := client.Call(rpc.MethodCheckInvariants, nil, &inv); err != nil {
		logger.Fatal().Err(err).Msg("ledger_checkInvariants")
	}
	if !inv.OK {
		for _, r := range inv.Results {
			if !r.OK {
				logger.Error().Str("invariant", r.Name).Str("detail", r.Detail).Msg("Invariant broken")
			}
		}
		logger.Fatal().Str("step", s.name).Msg("books out of balance")
	}
	logger.Info().Str("step", s.name).Uint64("nonce", nonce).Msg("ok")
}
