// Package node wires configuration, storage, the ledger and the RPC and
// metrics servers into a runnable service.
package node

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/metrics"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized ledger service.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	// Storage
	rawDB storage.DB // Closed on Stop.
	db    storage.DB // Namespaced by chain id.

	// Core
	ledger *ledger.Ledger

	// Observability
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	metricsServer *metrics.Server

	// RPC
	rpcServer *rpc.Server
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, genesis, storage, ledger, RPC, metrics) but does not bind any
// listener. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Set address HRP ──────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" && !cfg.DB.InMemory {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "klingswap.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	// ── 3. Genesis ──────────────────────────────────────────────────
	cfg.GenesisFile = expandHome(cfg.GenesisFile)
	genesis, err := config.ResolveGenesis(cfg)
	if err != nil {
		return nil, err
	}
	logger := klog.WithNetwork(string(cfg.Network), genesis.ChainID).With().Str("component", "node").Logger()

	p := genesis.Exchange.Params()
	logger.Info().
		Uint64("fee_bps", p.FeeBasisPoints).
		Uint64("price_in_asset", p.PriceInAsset).
		Uint64("amount_of_token", p.AmountOfToken).
		Str("deployer", genesis.Exchange.Deployer).
		Msg("Starting Klingswap node")

	// ── 4. Open storage ─────────────────────────────────────────────
	var rawDB storage.DB
	if cfg.DB.InMemory {
		rawDB = storage.NewMemory()
		logger.Warn().Msg("Using in-memory database, state is lost on exit")
	} else {
		bdb, err := storage.NewBadger(cfg.LedgerDir())
		if err != nil {
			return nil, err
		}
		rawDB = bdb
		logger.Info().Str("path", cfg.LedgerDir()).Msg("Database opened")
	}
	db := storage.NewPrefixDB(rawDB, []byte(genesis.ChainID+"/"))

	// ── 5. Metrics ──────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// ── 6. Ledger ───────────────────────────────────────────────────
	l, err := ledger.Open(db, genesis, m)
	if err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	n := &Node{
		cfg:      cfg,
		genesis:  genesis,
		logger:   logger,
		rawDB:    rawDB,
		db:       db,
		ledger:   l,
		registry: registry,
		metrics:  m,
	}

	// ── 7. RPC ──────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		n.rpcServer = rpc.New(cfg.RPCListenAddr(), l, m, cfg.RPC)
	}

	// ── 8. Metrics endpoint ─────────────────────────────────────────
	if cfg.Metrics.Enabled {
		n.metricsServer = metrics.NewServer(cfg.MetricsListenAddr(), registry)
	}

	return n, nil
}

// Start verifies the books and binds the RPC and metrics listeners.
func (n *Node) Start() error {
	for _, r := range n.ledger.CheckInvariants() {
		if !r.OK {
			return fmt.Errorf("invariant %s broken: %s", r.Name, r.Detail)
		}
	}

	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return err
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	}
	if n.metricsServer != nil {
		if err := n.metricsServer.Start(); err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
	}

	info := n.ledger.ExchangeInfo()
	n.logger.Info().
		Uint64("liquidity", info.Liquidity).
		Uint64("fee_vault", info.FeeVault).
		Uint64("token_supply", info.TokenSupply).
		Msg("Node started")
	return nil
}

// Stop shuts the servers down and closes the database.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("RPC shutdown")
		}
	}
	if n.metricsServer != nil {
		if err := n.metricsServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("Metrics shutdown")
		}
	}
	if n.rawDB != nil {
		if err := n.rawDB.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Closing database")
		}
	}

	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// MetricsAddr returns the address the metrics server is listening on.
func (n *Node) MetricsAddr() string {
	if n.metricsServer == nil {
		return ""
	}
	return n.metricsServer.Addr()
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Genesis returns the genesis the node runs.
func (n *Node) Genesis() *config.Genesis {
	return n.genesis
}
