package exchange

import (
	"fmt"
	"math/bits"

	"github.com/Klingon-tech/klingswap/internal/coin"
)

// feeOf returns floor(amount * bps / 10000) without intermediate overflow.
// bps is at most 10000, so the high word of the product is always smaller
// than the divisor.
func feeOf(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	q, _ := bits.Div64(hi, lo, MaxFeeBasisPoints)
	return q
}

// mulChecked returns a*b or coin.ErrOverflow.
func mulChecked(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%d * %d: %w", a, b, coin.ErrOverflow)
	}
	return lo, nil
}
