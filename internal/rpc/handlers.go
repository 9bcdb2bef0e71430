package rpc

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/auth"
	"github.com/Klingon-tech/klingswap/internal/stake"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// authenticate verifies env over payload on this server's chain and
// returns the caller.
func (s *Server) authenticate(method string, payload interface{}, env *auth.Envelope) (types.Address, *Error) {
	caller, err := auth.Verify(s.chainID, method, payload, env)
	if err != nil {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: err.Error()}
	}
	return caller, nil
}

func parseAddress(s string) (types.Address, *Error) {
	if s == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid address: %v", err)}
	}
	return addr, nil
}

func ticketResult(t stake.Ticket) TicketResult {
	return TicketResult{ID: t.ID.String(), Amount: t.Amount, Owner: t.Owner.String()}
}

// ── Exchange endpoints ──────────────────────────────────────────────────

func (s *Server) handleExchangeGetInfo(req *Request) (interface{}, *Error) {
	gen := s.ledger.Genesis()
	return &ExchangeInfoResult{
		ChainID:      gen.ChainID,
		Symbol:       gen.Symbol,
		TokenSymbol:  gen.TokenSymbol,
		ExchangeInfo: s.ledger.ExchangeInfo(),
	}, nil
}

func (s *Server) handleQuoteAssetForToken(req *Request) (interface{}, *Error) {
	var params AmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	q, err := s.ledger.QuoteAssetForToken(params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	return q, nil
}

func (s *Server) handleQuoteTokenForAsset(req *Request) (interface{}, *Error) {
	var params AmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	q, err := s.ledger.QuoteTokenForAsset(params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	return q, nil
}

func (s *Server) handleSwapAssetForToken(req *Request) (interface{}, *Error) {
	var params SignedAmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, AmountPayload{Amount: params.Amount}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	q, err := s.ledger.SwapAssetForToken(caller, params.Auth.Nonce, params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	return q, nil
}

func (s *Server) handleSwapTokenForAsset(req *Request) (interface{}, *Error) {
	var params SignedAmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, AmountPayload{Amount: params.Amount}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	q, err := s.ledger.SwapTokenForAsset(caller, params.Auth.Nonce, params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	return q, nil
}

func (s *Server) handleClaimFees(req *Request) (interface{}, *Error) {
	var params AuthParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, EmptyPayload{}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	claimed, err := s.ledger.ClaimFees(caller, params.Auth.Nonce)
	if err != nil {
		return nil, toError(err)
	}
	return &ClaimResult{Claimed: claimed}, nil
}

func (s *Server) handleDepositLiquidity(req *Request) (interface{}, *Error) {
	var params SignedAmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, AmountPayload{Amount: params.Amount}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pool, err := s.ledger.DepositLiquidity(caller, params.Auth.Nonce, params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	return &DepositResult{Liquidity: pool}, nil
}

// ── Stake endpoints ─────────────────────────────────────────────────────

func (s *Server) handleStake(req *Request) (interface{}, *Error) {
	var params SignedAmountParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, AmountPayload{Amount: params.Amount}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	t, err := s.ledger.Stake(caller, params.Auth.Nonce, params.Amount)
	if err != nil {
		return nil, toError(err)
	}
	res := ticketResult(t)
	return &res, nil
}

func (s *Server) handleUnstake(req *Request) (interface{}, *Error) {
	var params UnstakeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := s.authenticate(req.Method, UnstakePayload{TicketID: params.TicketID}, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := types.HexToHash(params.TicketID)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid ticket_id: %v", err)}
	}
	amount, err := s.ledger.Unstake(caller, params.Auth.Nonce, id)
	if err != nil {
		return nil, toError(err)
	}
	return &UnstakeResult{Amount: amount}, nil
}

func (s *Server) handleStakeGetInfo(req *Request) (interface{}, *Error) {
	info := s.ledger.StakeInfo()
	return &info, nil
}

func (s *Server) handleGetTickets(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tickets := s.ledger.Tickets(addr)
	res := &TicketsResult{Address: addr.String(), Tickets: make([]TicketResult, 0, len(tickets))}
	for _, t := range tickets {
		res.Tickets = append(res.Tickets, ticketResult(t))
	}
	return res, nil
}

// ── Account endpoints ───────────────────────────────────────────────────

func (s *Server) handleGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal := s.ledger.Balance(addr)
	return &bal, nil
}

func (s *Server) handleTransfer(req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	payload := TransferPayload{To: params.To, Denom: params.Denom, Amount: params.Amount}
	caller, rpcErr := s.authenticate(req.Method, payload, params.Auth)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.ledger.Transfer(caller, params.Auth.Nonce, to, params.Denom, params.Amount); err != nil {
		return nil, toError(err)
	}
	return &TransferResult{Nonce: params.Auth.Nonce}, nil
}

// ── Ledger endpoints ────────────────────────────────────────────────────

func (s *Server) handleCheckInvariants(req *Request) (interface{}, *Error) {
	results := s.ledger.CheckInvariants()
	res := &InvariantsResult{OK: true, Results: results}
	for _, r := range results {
		if !r.OK {
			res.OK = false
		}
	}
	return res, nil
}
