package rpc

import (
	"github.com/Klingon-tech/klingswap/internal/auth"
	"github.com/Klingon-tech/klingswap/internal/ledger"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeUnauthorized   = -32001
)

// Ledger error codes. These are stable; clients match on them.
const (
	CodeZeroValue             = -32010
	CodeDegenerateAmount      = -32011
	CodeInsufficientLiquidity = -32012
	CodeNotAuthorized         = -32013
	CodeNotTicketOwner        = -32014
	CodeTicketNotFound        = -32015
	CodeBadNonce              = -32016
	CodeInsufficientBalance   = -32017
	CodeOverflow              = -32018
	CodeInvalidConfiguration  = -32019
	CodePersist               = -32020
)

// Method names.
const (
	MethodExchangeGetInfo    = "exchange_getInfo"
	MethodQuoteAssetForToken = "exchange_quoteAssetForToken"
	MethodQuoteTokenForAsset = "exchange_quoteTokenForAsset"
	MethodSwapAssetForToken  = "exchange_swapAssetForToken"
	MethodSwapTokenForAsset  = "exchange_swapTokenForAsset"
	MethodClaimFees          = "exchange_claimFees"
	MethodDepositLiquidity   = "exchange_depositLiquidity"
	MethodStake              = "stake_stake"
	MethodUnstake            = "stake_unstake"
	MethodStakeGetInfo       = "stake_getInfo"
	MethodGetTickets         = "stake_getTickets"
	MethodGetBalance         = "account_getBalance"
	MethodTransfer           = "account_transfer"
	MethodCheckInvariants    = "ledger_checkInvariants"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ── Signed payloads ─────────────────────────────────────────────────────
//
// A signed call carries its payload fields plus an "auth" envelope. The
// signature covers the payload struct below, not the raw params.

// AmountPayload is signed by swaps, deposits and stakes.
type AmountPayload struct {
	Amount uint64 `json:"amount"`
}

// EmptyPayload is signed by exchange_claimFees.
type EmptyPayload struct{}

// UnstakePayload is signed by stake_unstake.
type UnstakePayload struct {
	TicketID string `json:"ticket_id"`
}

// TransferPayload is signed by account_transfer.
type TransferPayload struct {
	To     string `json:"to"`
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AmountParam is used by the quote endpoints.
type AmountParam struct {
	Amount uint64 `json:"amount"`
}

// SignedAmountParam is used by endpoints that move an amount.
type SignedAmountParam struct {
	Amount uint64         `json:"amount"`
	Auth   *auth.Envelope `json:"auth"`
}

// AuthParam is used by exchange_claimFees.
type AuthParam struct {
	Auth *auth.Envelope `json:"auth"`
}

// UnstakeParam is used by stake_unstake.
type UnstakeParam struct {
	TicketID string         `json:"ticket_id"`
	Auth     *auth.Envelope `json:"auth"`
}

// TransferParam is used by account_transfer.
type TransferParam struct {
	To     string         `json:"to"`
	Denom  string         `json:"denom"`
	Amount uint64         `json:"amount"`
	Auth   *auth.Envelope `json:"auth"`
}

// AddressParam is used by account_getBalance and stake_getTickets.
type AddressParam struct {
	Address string `json:"address"`
}

// ── Result types ────────────────────────────────────────────────────────

// ExchangeInfoResult is returned by exchange_getInfo.
type ExchangeInfoResult struct {
	ChainID     string `json:"chain_id"`
	Symbol      string `json:"symbol,omitempty"`
	TokenSymbol string `json:"token_symbol,omitempty"`
	ledger.ExchangeInfo
}

// ClaimResult is returned by exchange_claimFees.
type ClaimResult struct {
	Claimed uint64 `json:"claimed"`
}

// DepositResult is returned by exchange_depositLiquidity.
type DepositResult struct {
	Liquidity uint64 `json:"liquidity"`
}

// TicketResult describes one stake ticket.
type TicketResult struct {
	ID     string `json:"id"`
	Amount uint64 `json:"amount"`
	Owner  string `json:"owner"`
}

// UnstakeResult is returned by stake_unstake.
type UnstakeResult struct {
	Amount uint64 `json:"amount"`
}

// TicketsResult is returned by stake_getTickets.
type TicketsResult struct {
	Address string         `json:"address"`
	Tickets []TicketResult `json:"tickets"`
}

// TransferResult is returned by account_transfer.
type TransferResult struct {
	Nonce uint64 `json:"nonce"`
}

// InvariantsResult is returned by ledger_checkInvariants.
type InvariantsResult struct {
	OK      bool                     `json:"ok"`
	Results []ledger.InvariantResult `json:"results"`
}
