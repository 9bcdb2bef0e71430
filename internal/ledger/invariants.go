package ledger

import (
	"fmt"
	"math/bits"
)

// Invariant names.
const (
	InvNativeConservation = "native_conservation"
	InvTokenConservation  = "token_conservation"
	InvStakeVault         = "stake_vault"
	InvLiquidityBacking   = "liquidity_backing"
)

// InvariantResult is the outcome of one invariant check.
type InvariantResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// CheckInvariants verifies the books and reports every invariant, broken
// or not.
func (l *Ledger) CheckInvariants() []InvariantResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var nativeHeld, tokenHeld uint64
	for _, a := range l.accounts {
		nativeHeld += a.native.Value()
		tokenHeld += a.token.Value()
	}
	nativeHeld += l.exchange.Liquidity() + l.exchange.FeeVault()
	tokenHeld += l.stake.VaultValue()

	liquidity := l.exchange.Liquidity()
	rate := l.exchange.Params().Rate()
	supply := l.exchange.TokenSupply()
	hi, lo := bits.Mul64(liquidity, rate)

	results := []InvariantResult{
		{
			Name:   InvNativeConservation,
			OK:     nativeHeld == l.native.Total(),
			Detail: fmt.Sprintf("held %d, supply %d", nativeHeld, l.native.Total()),
		},
		{
			Name:   InvTokenConservation,
			OK:     tokenHeld == supply,
			Detail: fmt.Sprintf("held %d, supply %d", tokenHeld, supply),
		},
		{
			Name:   InvStakeVault,
			OK:     l.stake.VaultValue() == l.stake.OutstandingValue(),
			Detail: fmt.Sprintf("vault %d, tickets %d", l.stake.VaultValue(), l.stake.OutstandingValue()),
		},
		{
			Name:   InvLiquidityBacking,
			OK:     hi > 0 || lo >= supply,
			Detail: fmt.Sprintf("liquidity %d at rate %d, supply %d", liquidity, rate, supply),
		},
	}
	for _, r := range results {
		l.metrics.ObserveInvariant(r.Name, r.OK)
		if !r.OK {
			l.logger.Error().Str("invariant", r.Name).Str("detail", r.Detail).Msg("Invariant broken")
		}
	}
	return results
}
