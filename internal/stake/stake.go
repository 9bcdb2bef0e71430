// Package stake locks issued tokens in a vault in exchange for
// single-use, owner-bound tickets.
package stake

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/ids"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// Stake errors.
var (
	ErrZeroValue      = coin.ErrZeroValue
	ErrNotTicketOwner = errors.New("caller does not own ticket")
	ErrTicketNotFound = errors.New("ticket not found")
)

const namespaceLabel = "klingswap/stake"

// Ticket is the receipt for a staked amount. It is redeemable once, by
// its owner, for exactly Amount.
type Ticket struct {
	ID     types.Hash    `json:"id"`
	Amount uint64        `json:"amount"`
	Owner  types.Address `json:"owner"`

	redeemed bool
}

// Redeemed reports whether the ticket has been consumed by Unstake.
func (t *Ticket) Redeemed() bool { return t.redeemed }

// Ledger is the stake state root. The vault always holds the sum of all
// outstanding ticket amounts. A Ledger is not safe for concurrent use.
type Ledger struct {
	id      uuid.UUID
	vault   *coin.Coin[coin.Token]
	tickets map[types.Hash]*Ticket
	seq     *ids.Sequence
}

// New creates an empty stake ledger.
func New() *Ledger {
	id := ids.NewObjectID()
	return &Ledger{
		id:      id,
		vault:   coin.Zero[coin.Token](),
		tickets: make(map[types.Hash]*Ticket),
		seq:     ids.NewSequence(ids.NamespaceOf(namespaceLabel, id)),
	}
}

// ID returns the ledger identity.
func (l *Ledger) ID() uuid.UUID { return l.id }

// Stake locks in and issues a ticket for its full value to caller.
func (l *Ledger) Stake(in *coin.Coin[coin.Token], caller types.Address) (*Ticket, error) {
	if in.Consumed() {
		return nil, coin.ErrConsumed
	}
	amount := in.Value()
	if amount == 0 {
		return nil, ErrZeroValue
	}
	if err := l.vault.Join(in); err != nil {
		return nil, err
	}
	t := &Ticket{ID: l.seq.Next(), Amount: amount, Owner: caller}
	l.tickets[t.ID] = t
	return t, nil
}

// Unstake redeems t and returns exactly its amount. The ticket cannot be
// presented again.
func (l *Ledger) Unstake(t *Ticket, caller types.Address) (*coin.Coin[coin.Token], error) {
	if t == nil {
		return nil, ErrTicketNotFound
	}
	if t.Owner != caller {
		return nil, ErrNotTicketOwner
	}
	stored, ok := l.tickets[t.ID]
	if !ok || t.redeemed {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, t.ID.Short())
	}
	// The registry is authoritative for amount and owner.
	if stored.Owner != caller {
		return nil, ErrNotTicketOwner
	}

	out, err := l.vault.Split(stored.Amount)
	if err != nil {
		return nil, fmt.Errorf("vault holds %d for ticket %s: %w", l.vault.Value(), t.ID.Short(), err)
	}
	delete(l.tickets, t.ID)
	stored.redeemed = true
	t.redeemed = true
	return out, nil
}

// Ticket looks up an outstanding ticket.
func (l *Ledger) Ticket(id types.Hash) (*Ticket, bool) {
	t, ok := l.tickets[id]
	return t, ok
}

// TicketsOf returns copies of the outstanding tickets owned by owner,
// ordered by id.
func (l *Ledger) TicketsOf(owner types.Address) []Ticket {
	var out []Ticket
	for _, t := range l.tickets {
		if t.Owner == owner {
			out = append(out, *t)
		}
	}
	sortTickets(out)
	return out
}

// VaultValue returns the total staked amount.
func (l *Ledger) VaultValue() uint64 { return l.vault.Value() }

// Outstanding returns the number of unredeemed tickets.
func (l *Ledger) Outstanding() int { return len(l.tickets) }

// OutstandingValue returns the sum of all unredeemed ticket amounts.
func (l *Ledger) OutstandingValue() uint64 {
	var sum uint64
	for _, t := range l.tickets {
		sum += t.Amount
	}
	return sum
}

func sortTickets(ts []Ticket) {
	sort.Slice(ts, func(i, j int) bool {
		return string(ts[i].ID[:]) < string(ts[j].ID[:])
	})
}
