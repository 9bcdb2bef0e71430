package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/stake"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Key layout.
var (
	metaKey       = []byte("m/meta")     // m/meta -> metaRecord JSON
	exchangeKey   = []byte("x/exchange") // x/exchange -> exchange.Snapshot JSON
	stakeKey      = []byte("s/root")     // s/root -> stake.Snapshot JSON (no tickets)
	prefixTicket  = []byte("s/t/")       // s/t/<id(32)> -> stake.Ticket JSON
	prefixAccount = []byte("a/")         // a/<addr(20)> -> accountRecord JSON
)

type metaRecord struct {
	ChainID      string     `json:"chain_id"`
	GenesisHash  types.Hash `json:"genesis_hash"`
	NativeSupply uint64     `json:"native_supply"`
}

type accountRecord struct {
	Address types.Address `json:"address"`
	Native  uint64        `json:"native"`
	Token   uint64        `json:"token"`
	Nonce   uint64        `json:"nonce"`
}

func accountKey(addr types.Address) []byte {
	return append(append([]byte{}, prefixAccount...), addr[:]...)
}

func ticketKey(id types.Hash) []byte {
	return append(append([]byte{}, prefixTicket...), id[:]...)
}

// changes lists the records an operation touched.
type changes struct {
	accounts   map[types.Address]*account
	exchange   bool
	stakeRoot  bool
	putTickets []stake.Ticket
	delTickets []types.Hash
}

func newChanges() *changes {
	return &changes{accounts: make(map[types.Address]*account)}
}

func (c *changes) touch(accts ...*account) {
	for _, a := range accts {
		c.accounts[a.addr] = a
	}
}

// persist writes meta plus every touched record in one batch.
func (l *Ledger) persist(c *changes) error {
	b := storage.NewBatch(l.db)

	if err := putJSON(b, metaKey, metaRecord{
		ChainID:      l.genesis.ChainID,
		GenesisHash:  l.genesisHash,
		NativeSupply: l.native.Total(),
	}); err != nil {
		return err
	}
	for _, a := range c.accounts {
		rec := accountRecord{Address: a.addr, Native: a.native.Value(), Token: a.token.Value(), Nonce: a.nonce}
		if err := putJSON(b, accountKey(a.addr), rec); err != nil {
			return err
		}
	}
	if c.exchange {
		if err := putJSON(b, exchangeKey, l.exchange.Snapshot()); err != nil {
			return err
		}
	}
	if c.stakeRoot {
		if err := putJSON(b, stakeKey, l.stake.Header()); err != nil {
			return err
		}
	}
	for _, t := range c.putTickets {
		if err := putJSON(b, ticketKey(t.ID), t); err != nil {
			return err
		}
	}
	for _, id := range c.delTickets {
		if err := b.Delete(ticketKey(id)); err != nil {
			return err
		}
	}
	return b.Commit()
}

func putJSON(b storage.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Put(key, data)
}

func getJSON(db storage.DB, key []byte, v any) error {
	data, err := db.Get(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// load rebuilds the in-memory state from storage. Every stored balance is
// recreated through its supply, and both supplies must be fully accounted
// for before the ledger accepts operations.
func (l *Ledger) load() error {
	var meta metaRecord
	if err := getJSON(l.db, metaKey, &meta); err != nil {
		return err
	}
	if meta.GenesisHash != l.genesisHash {
		return fmt.Errorf("%w: stored %s, configured %s (chain %s)",
			ErrGenesisMismatch, meta.GenesisHash.Short(), l.genesisHash.Short(), meta.ChainID)
	}

	var exSnap exchange.Snapshot
	if err := getJSON(l.db, exchangeKey, &exSnap); err != nil {
		return err
	}
	var stakeSnap stake.Snapshot
	if err := getJSON(l.db, stakeKey, &stakeSnap); err != nil {
		return err
	}

	var records []accountRecord
	err := l.db.ForEach(prefixAccount, func(_, value []byte) error {
		var rec accountRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return err
	}
	err = l.db.ForEach(prefixTicket, func(_, value []byte) error {
		var t stake.Ticket
		if err := json.Unmarshal(value, &t); err != nil {
			return fmt.Errorf("decode ticket: %w", err)
		}
		stakeSnap.Tickets = append(stakeSnap.Tickets, t)
		return nil
	})
	if err != nil {
		return err
	}

	native := coin.RestoreSupply[coin.Native](meta.NativeSupply)
	feeVault, err := native.Rehydrate(exSnap.FeeVault)
	if err != nil {
		return fmt.Errorf("restore fee vault: %w", err)
	}
	liquidity, err := native.Rehydrate(exSnap.Liquidity)
	if err != nil {
		return fmt.Errorf("restore liquidity: %w", err)
	}
	eng, adminCap, err := exchange.Restore(exSnap, feeVault, liquidity)
	if err != nil {
		return fmt.Errorf("restore exchange: %w", err)
	}

	accounts := make(map[types.Address]*account, len(records))
	for _, rec := range records {
		n, err := native.Rehydrate(rec.Native)
		if err != nil {
			return fmt.Errorf("restore account %s: %w", rec.Address, err)
		}
		t, err := eng.RehydrateToken(rec.Token)
		if err != nil {
			return fmt.Errorf("restore account %s: %w", rec.Address, err)
		}
		accounts[rec.Address] = &account{addr: rec.Address, native: n, token: t, nonce: rec.Nonce}
	}

	vault, err := eng.RehydrateToken(stakeSnap.Vault)
	if err != nil {
		return fmt.Errorf("restore stake vault: %w", err)
	}
	st, err := stake.Restore(stakeSnap, vault)
	if err != nil {
		return fmt.Errorf("restore stake: %w", err)
	}

	if err := native.Seal(); err != nil {
		return fmt.Errorf("native supply: %w", err)
	}
	if err := eng.Seal(); err != nil {
		return fmt.Errorf("token supply: %w", err)
	}

	l.native = native
	l.exchange = eng
	l.adminCap = adminCap
	l.stake = st
	l.accounts = accounts
	return nil
}

// commit persists c. On failure the in-memory state, already mutated by
// the operation, is rebuilt from storage so memory never runs ahead of disk.
func (l *Ledger) commit(op string, c *changes) error {
	err := l.persist(c)
	if err == nil {
		l.observe()
		return nil
	}
	l.logger.Error().Err(err).Str("op", op).Msg("Persist failed, reloading state")
	if rerr := l.load(); rerr != nil {
		l.logger.Error().Err(rerr).Msg("Reload after failed persist failed")
		return fmt.Errorf("%w: %v (reload: %v)", ErrPersist, err, rerr)
	}
	return fmt.Errorf("%w: %v", ErrPersist, err)
}
