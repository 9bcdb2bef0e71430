package stake

import (
	"fmt"
	"math/bits"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/ids"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// Snapshot is the persisted form of a stake ledger.
type Snapshot struct {
	ID      uuid.UUID `json:"id"`
	NextSeq uint64    `json:"next_seq"`
	Vault   uint64    `json:"vault"`
	Tickets []Ticket  `json:"tickets"`
}

// Snapshot captures the current state.
func (l *Ledger) Snapshot() Snapshot {
	ts := make([]Ticket, 0, len(l.tickets))
	for _, t := range l.tickets {
		ts = append(ts, *t)
	}
	sortTickets(ts)
	return Snapshot{
		ID:      l.id,
		NextSeq: l.seq.Counter(),
		Vault:   l.vault.Value(),
		Tickets: ts,
	}
}

// Restore rebuilds a persisted ledger around a vault coin recreated by the
// token supply. The vault must hold exactly the sum of the tickets.
func Restore(snap Snapshot, vault *coin.Coin[coin.Token]) (*Ledger, error) {
	if vault.Consumed() {
		return nil, coin.ErrConsumed
	}
	tickets := make(map[types.Hash]*Ticket, len(snap.Tickets))
	var sum uint64
	for i := range snap.Tickets {
		t := snap.Tickets[i]
		if t.Amount == 0 {
			return nil, fmt.Errorf("ticket %s: %w", t.ID.Short(), ErrZeroValue)
		}
		if _, dup := tickets[t.ID]; dup {
			return nil, fmt.Errorf("duplicate ticket %s", t.ID.Short())
		}
		var carry uint64
		sum, carry = bits.Add64(sum, t.Amount, 0)
		if carry != 0 {
			return nil, fmt.Errorf("ticket amounts: %w", coin.ErrOverflow)
		}
		tickets[t.ID] = &t
	}
	if sum != vault.Value() || sum != snap.Vault {
		return nil, fmt.Errorf("vault %d (snapshot %d) does not match tickets %d: %w",
			vault.Value(), snap.Vault, sum, coin.ErrMismatch)
	}
	return &Ledger{
		id:      snap.ID,
		vault:   vault,
		tickets: tickets,
		seq:     ids.Resume(ids.NamespaceOf(namespaceLabel, snap.ID), snap.NextSeq),
	}, nil
}

// Header captures the state without the ticket list.
func (l *Ledger) Header() Snapshot {
	return Snapshot{
		ID:      l.id,
		NextSeq: l.seq.Counter(),
		Vault:   l.vault.Value(),
	}
}
