package exchange

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// Snapshot is the persisted form of an exchange.
type Snapshot struct {
	ID          uuid.UUID     `json:"id"`
	Params      Params        `json:"params"`
	AdminCapID  uuid.UUID     `json:"admin_cap_id"`
	Admin       types.Address `json:"admin"`
	FeeVault    uint64        `json:"fee_vault"`
	Liquidity   uint64        `json:"liquidity"`
	TokenSupply uint64        `json:"token_supply"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		ID:          e.id,
		Params:      e.params,
		AdminCapID:  e.capID,
		Admin:       e.admin,
		FeeVault:    e.feeVault.Value(),
		Liquidity:   e.liquidity.Value(),
		TokenSupply: e.supply.Total(),
	}
}

// Restore rebuilds a persisted exchange around reserves recreated by the
// caller's native supply. The returned engine is in the restore phase:
// the caller recreates every token holding with RehydrateToken and then
// calls Seal before using it.
func Restore(snap Snapshot, feeVault, liquidity *coin.Coin[coin.Native]) (*Engine, *AdminCap, error) {
	if err := snap.Params.Validate(); err != nil {
		return nil, nil, err
	}
	if feeVault.Consumed() || liquidity.Consumed() {
		return nil, nil, coin.ErrConsumed
	}
	if feeVault.Value() != snap.FeeVault || liquidity.Value() != snap.Liquidity {
		return nil, nil, fmt.Errorf("reserves %d/%d do not match snapshot %d/%d: %w",
			feeVault.Value(), liquidity.Value(), snap.FeeVault, snap.Liquidity, coin.ErrMismatch)
	}
	e := &Engine{
		id:        snap.ID,
		params:    snap.Params,
		supply:    coin.RestoreSupply[coin.Token](snap.TokenSupply),
		feeVault:  feeVault,
		liquidity: liquidity,
		capID:     snap.AdminCapID,
		admin:     snap.Admin,
		restoring: true,
	}
	return e, e.newCap(), nil
}

// RehydrateToken recreates a persisted token holding during restore.
func (e *Engine) RehydrateToken(amount uint64) (*coin.Coin[coin.Token], error) {
	return e.supply.Rehydrate(amount)
}

// Seal ends the restore phase once every token unit is accounted for.
func (e *Engine) Seal() error {
	if err := e.supply.Seal(); err != nil {
		return err
	}
	e.restoring = false
	return nil
}
