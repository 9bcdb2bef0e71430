package coin

import (
	"errors"
	"fmt"
	"math"
)

// Supply errors.
var (
	ErrSealed   = errors.New("supply is sealed")
	ErrUnsealed = errors.New("supply is still being restored")
	ErrMismatch = errors.New("restored holdings do not match supply")
)

// Supply is the issuing authority of denomination D. It is the only way to
// create or destroy value, and Total always equals the sum of every live
// coin it produced.
type Supply[D Denom] struct {
	total uint64

	// Restore bookkeeping: coins recreated from persisted balances count
	// against total until Seal verifies that everything was accounted for.
	restoring  bool
	rehydrated uint64
}

// NewSupply creates an empty, sealed supply.
func NewSupply[D Denom]() *Supply[D] {
	return &Supply[D]{}
}

// RestoreSupply creates a supply with a known total whose holdings will be
// recreated with Rehydrate before Seal is called.
func RestoreSupply[D Denom](total uint64) *Supply[D] {
	return &Supply[D]{total: total, restoring: true}
}

// Total returns the amount currently in existence.
func (s *Supply[D]) Total() uint64 {
	return s.total
}

// Mint creates amount of new value.
func (s *Supply[D]) Mint(amount uint64) (*Coin[D], error) {
	if err := s.CanMint(amount); err != nil {
		return nil, err
	}
	s.total += amount
	return &Coin[D]{value: amount}, nil
}

// CanMint reports whether Mint(amount) would succeed.
func (s *Supply[D]) CanMint(amount uint64) error {
	if s.restoring {
		return ErrUnsealed
	}
	if amount == 0 {
		return ErrZeroValue
	}
	if s.total > math.MaxUint64-amount {
		return fmt.Errorf("mint %d over supply %d: %w", amount, s.total, ErrOverflow)
	}
	return nil
}

// Burn consumes c and removes its value from the supply.
func (s *Supply[D]) Burn(c *Coin[D]) (uint64, error) {
	if s.restoring {
		return 0, ErrUnsealed
	}
	if c.Consumed() {
		return 0, ErrConsumed
	}
	if c.value > s.total {
		return 0, fmt.Errorf("burn %d from supply %d: %w", c.value, s.total, ErrInsufficientValue)
	}
	v := c.consume()
	s.total -= v
	return v, nil
}

// Rehydrate recreates a persisted holding. The sum of all rehydrated
// amounts can never exceed the restored total.
func (s *Supply[D]) Rehydrate(amount uint64) (*Coin[D], error) {
	if !s.restoring {
		return nil, ErrSealed
	}
	if amount > s.total-s.rehydrated {
		return nil, fmt.Errorf("rehydrate %d with %d unaccounted: %w",
			amount, s.total-s.rehydrated, ErrMismatch)
	}
	s.rehydrated += amount
	return &Coin[D]{value: amount}, nil
}

// Seal ends the restore phase. It fails unless every unit of the total
// has been rehydrated.
func (s *Supply[D]) Seal() error {
	if !s.restoring {
		return nil
	}
	if s.rehydrated != s.total {
		return fmt.Errorf("rehydrated %d of %d: %w", s.rehydrated, s.total, ErrMismatch)
	}
	s.restoring = false
	s.rehydrated = 0
	return nil
}
