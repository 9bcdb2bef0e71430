package ledger

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/internal/exchange"
	"github.com/Klingon-tech/klingswap/internal/stake"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Operation names used in logs and metrics.
const (
	OpTransfer  = "transfer"
	OpBuy       = "swap_asset_for_token"
	OpSell      = "swap_token_for_asset"
	OpClaimFees = "claim_fees"
	OpDeposit   = "deposit_liquidity"
	OpStake     = "stake"
	OpUnstake   = "unstake"
)

// Balance is the public view of an account.
type Balance struct {
	Address types.Address `json:"address"`
	Native  uint64        `json:"native"`
	Token   uint64        `json:"token"`
	Nonce   uint64        `json:"nonce"`
}

// ExchangeInfo is the public view of the exchange.
type ExchangeInfo struct {
	ID          string          `json:"id"`
	Params      exchange.Params `json:"params"`
	Rate        uint64          `json:"rate"`
	Admin       types.Address   `json:"admin"`
	Liquidity   uint64          `json:"liquidity"`
	FeeVault    uint64          `json:"fee_vault"`
	TokenSupply uint64          `json:"token_supply"`
}

// StakeInfo is the public view of the stake ledger.
type StakeInfo struct {
	ID          string `json:"id"`
	Vault       uint64 `json:"vault"`
	Outstanding int    `json:"outstanding"`
}

// checkNonce requires nonce to be exactly one past the account's last.
func checkNonce(a *account, nonce uint64) error {
	if nonce != a.nonce+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrBadNonce, nonce, a.nonce+1)
	}
	return nil
}

// advance registers a and bumps its nonce.
func (l *Ledger) advance(a *account) {
	a.nonce++
	l.accounts[a.addr] = a
}

// finish records the outcome of op and persists c when it succeeded.
func (l *Ledger) finish(op string, c *changes, err error) error {
	if err == nil {
		err = l.commit(op, c)
	}
	l.metrics.ObserveOp(op, err)
	if err != nil {
		l.logger.Warn().Err(err).Str("op", op).Msg("Operation rejected")
	}
	return err
}

// Balance returns the holdings of addr. Unknown addresses are empty.
func (l *Ledger) Balance(addr types.Address) Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a := l.accountOf(addr)
	return Balance{Address: addr, Native: a.native.Value(), Token: a.token.Value(), Nonce: a.nonce}
}

// Transfer moves amount of denom from caller to to.
func (l *Ledger) Transfer(caller types.Address, nonce uint64, to types.Address, denom string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.transfer(caller, nonce, to, denom, amount)
	if err == nil {
		l.logger.Debug().
			Str("from", caller.String()).
			Str("to", to.String()).
			Str("denom", denom).
			Uint64("amount", amount).
			Msg("Transfer")
	}
	return err
}

func (l *Ledger) transfer(caller types.Address, nonce uint64, to types.Address, denom string, amount uint64) error {
	from := l.accountOf(caller)
	if err := checkNonce(from, nonce); err != nil {
		return l.finish(OpTransfer, nil, err)
	}
	if to.IsZero() {
		return l.finish(OpTransfer, nil, ErrInvalidRecipient)
	}
	if amount == 0 {
		return l.finish(OpTransfer, nil, coin.ErrZeroValue)
	}
	dest := l.accountOf(to)

	switch denom {
	case DenomNative:
		if err := moveCoin(from.native, dest.native, amount); err != nil {
			return l.finish(OpTransfer, nil, err)
		}
	case DenomToken:
		if err := moveCoin(from.token, dest.token, amount); err != nil {
			return l.finish(OpTransfer, nil, err)
		}
	default:
		return l.finish(OpTransfer, nil, fmt.Errorf("%w: %q", ErrUnknownDenom, denom))
	}

	l.advance(from)
	l.accounts[dest.addr] = dest
	c := newChanges()
	c.touch(from, dest)
	return l.finish(OpTransfer, c, nil)
}

// moveCoin splits amount off src and joins it into dst. Self-transfers
// leave the holding as it was.
func moveCoin[D coin.Denom](src, dst *coin.Coin[D], amount uint64) error {
	part, err := withdraw(src, amount)
	if err != nil {
		return err
	}
	mustJoin(dst, part)
	return nil
}

// withdraw splits amount off a holding, reporting a short balance as
// ErrInsufficientBalance.
func withdraw[D coin.Denom](src *coin.Coin[D], amount uint64) (*coin.Coin[D], error) {
	if src.Value() < amount {
		return nil, fmt.Errorf("%w: have %d %s, need %d",
			ErrInsufficientBalance, src.Value(), coin.DenomName[D](), amount)
	}
	return src.Split(amount)
}

// SwapAssetForToken spends amount of caller's native balance on token.
func (l *Ledger) SwapAssetForToken(caller types.Address, nonce uint64, amount uint64) (exchange.AssetQuote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return exchange.AssetQuote{}, l.finish(OpBuy, nil, err)
	}
	q, err := l.exchange.QuoteAssetForToken(amount)
	if err != nil {
		return exchange.AssetQuote{}, l.finish(OpBuy, nil, err)
	}
	in, err := withdraw(a.native, amount)
	if err != nil {
		return exchange.AssetQuote{}, l.finish(OpBuy, nil, err)
	}
	out, err := l.exchange.SwapAssetForToken(in)
	if err != nil {
		mustJoin(a.native, in)
		return exchange.AssetQuote{}, l.finish(OpBuy, nil, err)
	}
	mustJoin(a.token, out)
	l.advance(a)

	c := newChanges()
	c.exchange = true
	c.touch(a)
	if err := l.finish(OpBuy, c, nil); err != nil {
		return exchange.AssetQuote{}, err
	}
	l.metrics.ObserveSwap(coin.DenomName[coin.Native](), amount, q.Fee)
	l.logger.Debug().
		Str("caller", caller.String()).
		Uint64("amount", amount).
		Uint64("fee", q.Fee).
		Uint64("minted", q.TokenOut).
		Msg("Swapped asset for token")
	return q, nil
}

// SwapTokenForAsset redeems amount of caller's token for native asset.
func (l *Ledger) SwapTokenForAsset(caller types.Address, nonce uint64, amount uint64) (exchange.TokenQuote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return exchange.TokenQuote{}, l.finish(OpSell, nil, err)
	}
	q, err := l.exchange.QuoteTokenForAsset(amount)
	if err != nil {
		return exchange.TokenQuote{}, l.finish(OpSell, nil, err)
	}
	in, err := withdraw(a.token, amount)
	if err != nil {
		return exchange.TokenQuote{}, l.finish(OpSell, nil, err)
	}
	out, err := l.exchange.SwapTokenForAsset(in)
	if err != nil {
		mustJoin(a.token, in)
		return exchange.TokenQuote{}, l.finish(OpSell, nil, err)
	}
	mustJoin(a.native, out)
	l.advance(a)

	c := newChanges()
	c.exchange = true
	c.touch(a)
	if err := l.finish(OpSell, c, nil); err != nil {
		return exchange.TokenQuote{}, err
	}
	l.metrics.ObserveSwap(coin.DenomName[coin.Token](), amount, q.Fee)
	l.logger.Debug().
		Str("caller", caller.String()).
		Uint64("amount", amount).
		Uint64("gross", q.Gross).
		Uint64("fee", q.Fee).
		Uint64("net", q.Net).
		Msg("Swapped token for asset")
	return q, nil
}

// QuoteAssetForToken prices a native-to-token swap.
func (l *Ledger) QuoteAssetForToken(amount uint64) (exchange.AssetQuote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exchange.QuoteAssetForToken(amount)
}

// QuoteTokenForAsset prices a token-to-native swap.
func (l *Ledger) QuoteTokenForAsset(amount uint64) (exchange.TokenQuote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exchange.QuoteTokenForAsset(amount)
}

// ClaimFees pays the fee vault to caller, who must be the exchange admin.
func (l *Ledger) ClaimFees(caller types.Address, nonce uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return 0, l.finish(OpClaimFees, nil, err)
	}
	out, err := l.exchange.ClaimFees(l.adminCap, caller)
	if err != nil {
		return 0, l.finish(OpClaimFees, nil, err)
	}
	claimed := out.Value()
	mustJoin(a.native, out)
	l.advance(a)

	c := newChanges()
	c.exchange = true
	c.touch(a)
	if err := l.finish(OpClaimFees, c, nil); err != nil {
		return 0, err
	}
	l.metrics.ObserveClaim(claimed)
	l.logger.Info().Str("admin", caller.String()).Uint64("claimed", claimed).Msg("Fees claimed")
	return claimed, nil
}

// DepositLiquidity moves amount of caller's native balance into the
// liquidity pool. Only the exchange admin may deposit. It returns the new
// pool size.
func (l *Ledger) DepositLiquidity(caller types.Address, nonce uint64, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return 0, l.finish(OpDeposit, nil, err)
	}
	if caller != l.adminCap.Owner() {
		return 0, l.finish(OpDeposit, nil, exchange.ErrNotAuthorized)
	}
	if amount == 0 {
		return 0, l.finish(OpDeposit, nil, exchange.ErrZeroValue)
	}
	in, err := withdraw(a.native, amount)
	if err != nil {
		return 0, l.finish(OpDeposit, nil, err)
	}
	if err := l.exchange.DepositLiquidity(l.adminCap, caller, in); err != nil {
		mustJoin(a.native, in)
		return 0, l.finish(OpDeposit, nil, err)
	}
	l.advance(a)

	c := newChanges()
	c.exchange = true
	c.touch(a)
	if err := l.finish(OpDeposit, c, nil); err != nil {
		return 0, err
	}
	l.metrics.ObserveDeposit(amount)
	l.logger.Info().Str("admin", caller.String()).Uint64("amount", amount).Msg("Liquidity deposited")
	return l.exchange.Liquidity(), nil
}

// Stake locks amount of caller's token and returns the issued ticket.
func (l *Ledger) Stake(caller types.Address, nonce uint64, amount uint64) (stake.Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return stake.Ticket{}, l.finish(OpStake, nil, err)
	}
	if amount == 0 {
		return stake.Ticket{}, l.finish(OpStake, nil, stake.ErrZeroValue)
	}
	in, err := withdraw(a.token, amount)
	if err != nil {
		return stake.Ticket{}, l.finish(OpStake, nil, err)
	}
	t, err := l.stake.Stake(in, caller)
	if err != nil {
		mustJoin(a.token, in)
		return stake.Ticket{}, l.finish(OpStake, nil, err)
	}
	l.advance(a)

	c := newChanges()
	c.stakeRoot = true
	c.putTickets = append(c.putTickets, *t)
	c.touch(a)
	if err := l.finish(OpStake, c, nil); err != nil {
		return stake.Ticket{}, err
	}
	l.metrics.ObserveStake(amount)
	l.logger.Debug().
		Str("owner", caller.String()).
		Str("ticket", t.ID.Short()).
		Uint64("amount", amount).
		Msg("Staked")
	return *t, nil
}

// Unstake redeems the ticket id held by caller and returns its amount.
func (l *Ledger) Unstake(caller types.Address, nonce uint64, id types.Hash) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accountOf(caller)
	if err := checkNonce(a, nonce); err != nil {
		return 0, l.finish(OpUnstake, nil, err)
	}
	t, ok := l.stake.Ticket(id)
	if !ok {
		return 0, l.finish(OpUnstake, nil, fmt.Errorf("%w: %s", stake.ErrTicketNotFound, id.Short()))
	}
	out, err := l.stake.Unstake(t, caller)
	if err != nil {
		return 0, l.finish(OpUnstake, nil, err)
	}
	amount := out.Value()
	mustJoin(a.token, out)
	l.advance(a)

	c := newChanges()
	c.stakeRoot = true
	c.delTickets = append(c.delTickets, id)
	c.touch(a)
	if err := l.finish(OpUnstake, c, nil); err != nil {
		return 0, err
	}
	l.logger.Debug().
		Str("owner", caller.String()).
		Str("ticket", id.Short()).
		Uint64("amount", amount).
		Msg("Unstaked")
	return amount, nil
}

// Tickets returns the outstanding tickets of owner, ordered by id.
func (l *Ledger) Tickets(owner types.Address) []stake.Ticket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stake.TicketsOf(owner)
}

// ExchangeInfo returns the exchange parameters and reserves.
func (l *Ledger) ExchangeInfo() ExchangeInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p := l.exchange.Params()
	return ExchangeInfo{
		ID:          l.exchange.ID().String(),
		Params:      p,
		Rate:        p.Rate(),
		Admin:       l.exchange.Admin(),
		Liquidity:   l.exchange.Liquidity(),
		FeeVault:    l.exchange.FeeVault(),
		TokenSupply: l.exchange.TokenSupply(),
	}
}

// StakeInfo returns the vault total and the number of open tickets.
func (l *Ledger) StakeInfo() StakeInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return StakeInfo{
		ID:          l.stake.ID().String(),
		Vault:       l.stake.VaultValue(),
		Outstanding: l.stake.Outstanding(),
	}
}
