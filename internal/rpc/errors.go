package rpc

import (
	"errors"

	"github.com/Klingon-tech/klingswap/internal/auth"
	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/stake"
)

var errorCodes = []struct {
	err  error
	code int
}{
	{auth.ErrMissingAuth, CodeUnauthorized},
	{auth.ErrBadPubKey, CodeUnauthorized},
	{auth.ErrBadSignature, CodeUnauthorized},
	{coin.ErrZeroValue, CodeZeroValue},
	{exchange.ErrDegenerateAmount, CodeDegenerateAmount},
	{exchange.ErrInsufficientLiquidity, CodeInsufficientLiquidity},
	{exchange.ErrNotAuthorized, CodeNotAuthorized},
	{exchange.ErrInvalidConfiguration, CodeInvalidConfiguration},
	{stake.ErrNotTicketOwner, CodeNotTicketOwner},
	{stake.ErrTicketNotFound, CodeTicketNotFound},
	{ledger.ErrBadNonce, CodeBadNonce},
	{ledger.ErrInsufficientBalance, CodeInsufficientBalance},
	{ledger.ErrUnknownDenom, CodeInvalidParams},
	{ledger.ErrInvalidRecipient, CodeInvalidParams},
	{ledger.ErrPersist, CodePersist},
	{coin.ErrOverflow, CodeOverflow},
}

// toError maps a ledger error to a JSON-RPC error with a stable code.
func toError(err error) *Error {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return &Error{Code: e.code, Message: err.Error()}
		}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}
