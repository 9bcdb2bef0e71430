package exchange

import "fmt"

// MaxFeeBasisPoints is a 100% fee.
const MaxFeeBasisPoints = 10_000

// Params fixes the conversion between the native asset and the token.
// Paying PriceInAsset native units yields AmountOfToken token units.
type Params struct {
	FeeBasisPoints uint64 `json:"fee_basis_points"`
	PriceInAsset   uint64 `json:"price_in_asset"`
	AmountOfToken  uint64 `json:"amount_of_token"`
}

// Validate checks that the pair defines a whole, positive rate.
func (p Params) Validate() error {
	if p.FeeBasisPoints > MaxFeeBasisPoints {
		return fmt.Errorf("%w: fee %d bps exceeds %d", ErrInvalidConfiguration, p.FeeBasisPoints, MaxFeeBasisPoints)
	}
	if p.PriceInAsset == 0 {
		return fmt.Errorf("%w: price_in_asset must be positive", ErrInvalidConfiguration)
	}
	if p.AmountOfToken == 0 {
		return fmt.Errorf("%w: amount_of_token must be positive", ErrInvalidConfiguration)
	}
	if p.AmountOfToken%p.PriceInAsset != 0 {
		return fmt.Errorf("%w: amount_of_token %d is not a multiple of price_in_asset %d",
			ErrInvalidConfiguration, p.AmountOfToken, p.PriceInAsset)
	}
	return nil
}

// Rate is the number of token units per native unit.
func (p Params) Rate() uint64 {
	if p.PriceInAsset == 0 {
		return 0
	}
	return p.AmountOfToken / p.PriceInAsset
}
