package exchange

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/coin"
)

// AssetQuote breaks down a native-to-token swap.
type AssetQuote struct {
	AmountIn    uint64 `json:"amount_in"`
	Fee         uint64 `json:"fee"`
	UserPortion uint64 `json:"user_portion"`
	Rate        uint64 `json:"rate"`
	TokenOut    uint64 `json:"token_out"`
}

// TokenQuote breaks down a token-to-native swap.
type TokenQuote struct {
	AmountIn uint64 `json:"amount_in"`
	Divisor  uint64 `json:"divisor"`
	Gross    uint64 `json:"gross"`
	Fee      uint64 `json:"fee"`
	Net      uint64 `json:"net"`
}

// QuoteAssetForToken prices a swap of amount native units without
// touching any reserve. It fails exactly when the swap would.
func (e *Engine) QuoteAssetForToken(amount uint64) (AssetQuote, error) {
	if amount == 0 {
		return AssetQuote{}, ErrZeroValue
	}
	fee := feeOf(amount, e.params.FeeBasisPoints)
	user := amount - fee
	if user == 0 {
		return AssetQuote{}, fmt.Errorf("%w: %d in, %d fee", ErrDegenerateAmount, amount, fee)
	}

	// Re-derived per call. Division first, then multiply.
	rate := e.params.AmountOfToken / e.params.PriceInAsset
	if rate == 0 {
		return AssetQuote{}, fmt.Errorf("%w: zero rate", ErrInvalidConfiguration)
	}
	out, err := mulChecked(user, rate)
	if err != nil {
		return AssetQuote{}, err
	}
	if err := e.supply.CanMint(out); err != nil {
		return AssetQuote{}, err
	}
	if !e.feeVault.CanJoin(fee) || !e.liquidity.CanJoin(user) {
		return AssetQuote{}, fmt.Errorf("reserves: %w", coin.ErrOverflow)
	}

	return AssetQuote{
		AmountIn:    amount,
		Fee:         fee,
		UserPortion: user,
		Rate:        rate,
		TokenOut:    out,
	}, nil
}

// QuoteTokenForAsset prices a redemption of amount token units without
// touching any reserve. It fails exactly when the swap would.
func (e *Engine) QuoteTokenForAsset(amount uint64) (TokenQuote, error) {
	if amount == 0 {
		return TokenQuote{}, ErrZeroValue
	}
	divisor := e.params.AmountOfToken / e.params.PriceInAsset
	if divisor == 0 {
		return TokenQuote{}, fmt.Errorf("%w: amount_of_token below price_in_asset", ErrInvalidConfiguration)
	}
	gross := amount / divisor
	if gross == 0 {
		return TokenQuote{}, fmt.Errorf("%w: %d token below divisor %d", ErrDegenerateAmount, amount, divisor)
	}
	if e.liquidity.Value() < gross {
		return TokenQuote{}, fmt.Errorf("%w: need %d, pool holds %d",
			ErrInsufficientLiquidity, gross, e.liquidity.Value())
	}
	if amount > e.supply.Total() {
		return TokenQuote{}, fmt.Errorf("burn %d over supply %d: %w", amount, e.supply.Total(), coin.ErrInsufficientValue)
	}
	fee := feeOf(gross, e.params.FeeBasisPoints)
	net := gross - fee
	if net == 0 {
		return TokenQuote{}, fmt.Errorf("%w: %d gross, %d fee", ErrDegenerateAmount, gross, fee)
	}
	if !e.feeVault.CanJoin(fee) {
		return TokenQuote{}, fmt.Errorf("fee vault: %w", coin.ErrOverflow)
	}

	return TokenQuote{
		AmountIn: amount,
		Divisor:  divisor,
		Gross:    gross,
		Fee:      fee,
		Net:      net,
	}, nil
}
