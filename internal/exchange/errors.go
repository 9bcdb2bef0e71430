package exchange

import (
	"errors"

	"github.com/Klingon-tech/klingswap/internal/coin"
)

// Exchange errors.
var (
	// ErrZeroValue is returned when an input coin is empty.
	ErrZeroValue = coin.ErrZeroValue

	ErrDegenerateAmount      = errors.New("amount rounds to zero after fee")
	ErrInvalidConfiguration  = errors.New("invalid exchange configuration")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrRestoring             = errors.New("exchange is being restored")
)
