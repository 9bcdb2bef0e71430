package exchange

import (
	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// AdminCap authorizes fee claims and liquidity deposits on one exchange.
// It can only be obtained from Initialize or Restore, and it only works
// when presented by the address it is bound to.
type AdminCap struct {
	id         uuid.UUID
	exchangeID uuid.UUID
	owner      types.Address
}

// ID returns the capability identity.
func (c *AdminCap) ID() uuid.UUID { return c.id }

// Owner returns the address the capability is bound to.
func (c *AdminCap) Owner() types.Address { return c.owner }

func (e *Engine) newCap() *AdminCap {
	return &AdminCap{id: e.capID, exchangeID: e.id, owner: e.admin}
}

// authorize checks that cap was issued by this exchange and that caller
// is its owner.
func (e *Engine) authorize(ac *AdminCap, caller types.Address) error {
	if ac == nil || ac.exchangeID != e.id || ac.id != e.capID {
		return ErrNotAuthorized
	}
	if ac.owner != caller {
		return ErrNotAuthorized
	}
	return nil
}

// ClaimFees drains the fee vault to the admin. Claiming an empty vault
// succeeds with a zero-value coin.
func (e *Engine) ClaimFees(ac *AdminCap, caller types.Address) (*coin.Coin[coin.Native], error) {
	if e.restoring {
		return nil, ErrRestoring
	}
	if err := e.authorize(ac, caller); err != nil {
		return nil, err
	}
	return e.feeVault.Withdraw()
}

// DepositLiquidity adds in to the liquidity pool without a fee.
func (e *Engine) DepositLiquidity(ac *AdminCap, caller types.Address, in *coin.Coin[coin.Native]) error {
	if e.restoring {
		return ErrRestoring
	}
	if err := e.authorize(ac, caller); err != nil {
		return err
	}
	if in.Consumed() {
		return coin.ErrConsumed
	}
	if in.Value() == 0 {
		return ErrZeroValue
	}
	return e.liquidity.Join(in)
}
