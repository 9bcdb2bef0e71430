// Package coin implements move-only fungible values.
//
// A Coin is never copied and never silently dropped: every coin handed out
// by Split, Withdraw or a Supply must end up joined into another coin,
// burned, or returned to a caller. Operations on a coin that has already
// been moved fail with ErrConsumed.
package coin

import (
	"errors"
	"fmt"
	"math"
)

// Coin errors.
var (
	ErrZeroValue         = errors.New("zero value")
	ErrInsufficientValue = errors.New("insufficient value")
	ErrConsumed          = errors.New("coin already consumed")
	ErrOverflow          = errors.New("value overflow")
	ErrSelfJoin          = errors.New("cannot join a coin with itself")
	ErrNonZero           = errors.New("coin is not empty")
)

// Native marks coins of the settlement asset.
type Native struct{}

// Token marks coins of the issued token.
type Token struct{}

// Denom is the set of denominations a Coin can carry.
type Denom interface {
	Native | Token
}

// DenomName returns "native" or "token".
func DenomName[D Denom]() string {
	var d D
	switch any(d).(type) {
	case Native:
		return "native"
	default:
		return "token"
	}
}

// noCopy makes `go vet` copylocks flag value copies of a Coin.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Coin is a fungible balance of denomination D. Always use it by pointer.
type Coin[D Denom] struct {
	_        noCopy
	value    uint64
	consumed bool
}

// Zero returns an empty coin, used to open vaults and pools.
func Zero[D Denom]() *Coin[D] {
	return &Coin[D]{}
}

// Value returns the magnitude of the coin. A consumed coin reports zero.
func (c *Coin[D]) Value() uint64 {
	if c == nil || c.consumed {
		return 0
	}
	return c.value
}

// Consumed reports whether the coin has been moved into something else.
func (c *Coin[D]) Consumed() bool {
	return c == nil || c.consumed
}

// Split takes amount out of c into a new coin.
func (c *Coin[D]) Split(amount uint64) (*Coin[D], error) {
	if c.Consumed() {
		return nil, ErrConsumed
	}
	if amount > c.value {
		return nil, fmt.Errorf("split %d from %d: %w", amount, c.value, ErrInsufficientValue)
	}
	c.value -= amount
	return &Coin[D]{value: amount}, nil
}

// Join moves the whole of other into c. other is consumed on success and
// untouched on failure.
func (c *Coin[D]) Join(other *Coin[D]) error {
	if c.Consumed() || other.Consumed() {
		return ErrConsumed
	}
	if c == other {
		return ErrSelfJoin
	}
	if c.value > math.MaxUint64-other.value {
		return fmt.Errorf("join %d into %d: %w", other.value, c.value, ErrOverflow)
	}
	c.value += other.value
	other.value = 0
	other.consumed = true
	return nil
}

// Withdraw drains c into a new coin and leaves c empty but usable.
func (c *Coin[D]) Withdraw() (*Coin[D], error) {
	return c.Split(c.Value())
}

// DestroyZero consumes an empty coin.
func (c *Coin[D]) DestroyZero() error {
	if c.Consumed() {
		return ErrConsumed
	}
	if c.value != 0 {
		return fmt.Errorf("destroy coin holding %d: %w", c.value, ErrNonZero)
	}
	c.consumed = true
	return nil
}

// CanJoin reports whether amount can be joined into c without overflow.
func (c *Coin[D]) CanJoin(amount uint64) bool {
	return !c.Consumed() && c.value <= math.MaxUint64-amount
}

// consume takes the whole value of c and marks it consumed.
func (c *Coin[D]) consume() uint64 {
	v := c.value
	c.value = 0
	c.consumed = true
	return v
}
