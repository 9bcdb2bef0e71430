// Package exchange implements a fixed-rate exchange between the native asset
// and an issued token.
//
// The engine owns two native reserves. The liquidity pool receives the net
// value of every purchase and backs every redemption; the fee vault collects
// fees until the admin claims them. The token is minted and burned only by
// the engine's own supply. Every operation computes and validates all
// amounts before the first mutation, so a failed call changes nothing.
//
// An Engine is not safe for concurrent use. Callers serialize access.
package exchange

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// Engine is the exchange state root.
type Engine struct {
	id     uuid.UUID
	params Params

	supply    *coin.Supply[coin.Token]
	feeVault  *coin.Coin[coin.Native]
	liquidity *coin.Coin[coin.Native]

	capID uuid.UUID
	admin types.Address

	restoring bool
}

// Initialize creates an exchange with empty reserves and returns the only
// capability that can claim its fees or top up its liquidity.
func Initialize(params Params, deployer types.Address) (*Engine, *AdminCap, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if deployer.IsZero() {
		return nil, nil, fmt.Errorf("%w: zero deployer address", ErrInvalidConfiguration)
	}
	e := &Engine{
		id:        uuid.New(),
		params:    params,
		supply:    coin.NewSupply[coin.Token](),
		feeVault:  coin.Zero[coin.Native](),
		liquidity: coin.Zero[coin.Native](),
		capID:     uuid.New(),
		admin:     deployer,
	}
	return e, e.newCap(), nil
}

// ID returns the exchange identity.
func (e *Engine) ID() uuid.UUID { return e.id }

// Params returns the fixed conversion parameters.
func (e *Engine) Params() Params { return e.params }

// Admin returns the address the admin capability is bound to.
func (e *Engine) Admin() types.Address { return e.admin }

// Liquidity returns the redemption reserve.
func (e *Engine) Liquidity() uint64 { return e.liquidity.Value() }

// FeeVault returns the unclaimed fees.
func (e *Engine) FeeVault() uint64 { return e.feeVault.Value() }

// TokenSupply returns the amount of token in circulation.
func (e *Engine) TokenSupply() uint64 { return e.supply.Total() }

// SwapAssetForToken buys token with in. The fee joins the fee vault, the
// rest joins the liquidity pool, and (in - fee) * rate tokens are minted.
// in is consumed on success and untouched on failure.
func (e *Engine) SwapAssetForToken(in *coin.Coin[coin.Native]) (*coin.Coin[coin.Token], error) {
	if e.restoring {
		return nil, ErrRestoring
	}
	if in.Consumed() {
		return nil, coin.ErrConsumed
	}
	q, err := e.QuoteAssetForToken(in.Value())
	if err != nil {
		return nil, err
	}

	out, err := e.supply.Mint(q.TokenOut)
	if err != nil {
		return nil, err
	}
	fee, err := in.Split(q.Fee)
	if err != nil {
		return nil, err
	}
	if err := e.feeVault.Join(fee); err != nil {
		return nil, err
	}
	if err := e.liquidity.Join(in); err != nil {
		return nil, err
	}
	return out, nil
}

// SwapTokenForAsset redeems in for native asset. The token is burned,
// in / rate native units leave the liquidity pool, the fee on that amount
// stays in the fee vault and the rest is returned. Token below one rate
// unit is burned with the rest. in is consumed on success and untouched
// on failure.
func (e *Engine) SwapTokenForAsset(in *coin.Coin[coin.Token]) (*coin.Coin[coin.Native], error) {
	if e.restoring {
		return nil, ErrRestoring
	}
	if in.Consumed() {
		return nil, coin.ErrConsumed
	}
	q, err := e.QuoteTokenForAsset(in.Value())
	if err != nil {
		return nil, err
	}

	if _, err := e.supply.Burn(in); err != nil {
		return nil, err
	}
	out, err := e.liquidity.Split(q.Gross)
	if err != nil {
		return nil, err
	}
	fee, err := out.Split(q.Fee)
	if err != nil {
		return nil, err
	}
	if err := e.feeVault.Join(fee); err != nil {
		return nil, err
	}
	return out, nil
}
