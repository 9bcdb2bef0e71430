// Package ledger is the host around the exchange and the stake ledger.
//
// It keeps the native and token balances of every address, verifies
// per-account nonces, serializes all writers behind one lock, and persists
// every successful operation in a single storage batch. The exchange admin
// capability is held here on behalf of the genesis deployer.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/metrics"
	"github.com/Klingon-tech/klingswap/internal/stake"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/rs/zerolog"
)

// Ledger errors.
var (
	ErrBadNonce            = errors.New("bad nonce")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownDenom        = errors.New("unknown denomination")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrGenesisMismatch     = errors.New("database was created from a different genesis")
	ErrPersist             = errors.New("persisting ledger state failed")
)

// Denominations accepted by Transfer.
const (
	DenomNative = "native"
	DenomToken  = "token"
)

// account is the in-memory holding of one address.
type account struct {
	addr   types.Address
	native *coin.Coin[coin.Native]
	token  *coin.Coin[coin.Token]
	nonce  uint64
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	db      storage.DB
	genesis *config.Genesis
	metrics *metrics.Metrics
	logger  zerolog.Logger

	genesisHash types.Hash
	native      *coin.Supply[coin.Native]
	exchange    *exchange.Engine
	adminCap    *exchange.AdminCap
	stake       *stake.Ledger
	accounts    map[types.Address]*account
}

// Open loads the ledger stored in db, initializing it from gen when db is
// empty. m may be nil.
func Open(db storage.DB, gen *config.Genesis, m *metrics.Metrics) (*Ledger, error) {
	if err := gen.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	hash, err := gen.Hash()
	if err != nil {
		return nil, fmt.Errorf("genesis hash: %w", err)
	}
	l := &Ledger{
		db:          db,
		genesis:     gen,
		metrics:     m,
		logger:      klog.Ledger.With().Str("chain_id", gen.ChainID).Logger(),
		genesisHash: hash,
	}

	has, err := db.Has(metaKey)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	if has {
		if err := l.load(); err != nil {
			return nil, err
		}
		l.logger.Info().
			Int("accounts", len(l.accounts)).
			Int("tickets", l.stake.Outstanding()).
			Msg("Ledger loaded")
	} else {
		if err := l.initFromGenesis(); err != nil {
			return nil, err
		}
		l.logger.Info().
			Uint64("native_supply", l.native.Total()).
			Str("admin", l.exchange.Admin().String()).
			Msg("Ledger initialized from genesis")
	}
	l.observe()
	return l, nil
}

// initFromGenesis mints the genesis allocations, deploys the exchange and
// opens an empty stake ledger.
func (l *Ledger) initFromGenesis() error {
	deployer, err := l.genesis.Exchange.DeployerAddress()
	if err != nil {
		return fmt.Errorf("genesis deployer: %w", err)
	}
	eng, adminCap, err := exchange.Initialize(l.genesis.Exchange.Params(), deployer)
	if err != nil {
		return fmt.Errorf("deploy exchange: %w", err)
	}

	l.native = coin.NewSupply[coin.Native]()
	l.exchange = eng
	l.adminCap = adminCap
	l.stake = stake.New()
	l.accounts = make(map[types.Address]*account)

	c := newChanges()
	c.exchange = true
	c.stakeRoot = true
	for addrStr, amount := range l.genesis.Alloc {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return fmt.Errorf("genesis alloc %q: %w", addrStr, err)
		}
		acct := l.accountOf(addr)
		if amount > 0 {
			minted, err := l.native.Mint(amount)
			if err != nil {
				return fmt.Errorf("genesis alloc %s: %w", addrStr, err)
			}
			mustJoin(acct.native, minted)
		}
		l.accounts[addr] = acct
		c.touch(acct)
	}
	return l.persist(c)
}

// accountOf returns the account of addr, or a fresh empty account that is
// not yet registered.
func (l *Ledger) accountOf(addr types.Address) *account {
	if a, ok := l.accounts[addr]; ok {
		return a
	}
	return &account{
		addr:   addr,
		native: coin.Zero[coin.Native](),
		token:  coin.Zero[coin.Token](),
	}
}

// mustJoin merges src into dst where the ledger's own bookkeeping rules
// out failure. A failure means the books are corrupt.
func mustJoin[D coin.Denom](dst, src *coin.Coin[D]) {
	if err := dst.Join(src); err != nil {
		panic(fmt.Sprintf("ledger: join %s: %v", coin.DenomName[D](), err))
	}
}

// Genesis returns the genesis the ledger was opened with.
func (l *Ledger) Genesis() *config.Genesis {
	return l.genesis
}

// observe pushes the state gauges. Callers hold the lock.
func (l *Ledger) observe() {
	l.metrics.ObserveState(metrics.State{
		Liquidity:    l.exchange.Liquidity(),
		FeeVault:     l.exchange.FeeVault(),
		TokenSupply:  l.exchange.TokenSupply(),
		NativeSupply: l.native.Total(),
		StakeVault:   l.stake.VaultValue(),
		Tickets:      l.stake.Outstanding(),
	})
}
