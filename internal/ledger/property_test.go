package ledger

import (
	"testing"

	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"pgregory.net/rapid"
)

// TestProperty_Books drives random operations from several callers and
// checks after every step that the books balance and that a ledger
// reopened from storage sees the same state.
func TestProperty_Books(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		db := storage.NewMemory()
		l, err := Open(db, testGenesis(), nil)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		callers := []types.Address{admin, alice, bob}
		pick := rapid.SampledFrom(callers)
		amount := rapid.Uint64Range(0, 30_000_000_000)
		nonceOf := func(a types.Address) uint64 { return l.Balance(a).Nonce + 1 }

		t.Repeat(map[string]func(*rapid.T){
			"buy": func(t *rapid.T) {
				who := pick.Draw(t, "who")
				_, _ = l.SwapAssetForToken(who, nonceOf(who), amount.Draw(t, "amount"))
			},
			"sell": func(t *rapid.T) {
				who := pick.Draw(t, "who")
				held := l.Balance(who).Token
				n := rapid.Uint64Range(0, held).Draw(t, "n")
				_, _ = l.SwapTokenForAsset(who, nonceOf(who), n)
			},
			"transfer": func(t *rapid.T) {
				from, to := pick.Draw(t, "from"), pick.Draw(t, "to")
				denom := rapid.SampledFrom([]string{DenomNative, DenomToken}).Draw(t, "denom")
				_ = l.Transfer(from, nonceOf(from), to, denom, amount.Draw(t, "amount"))
			},
			"claim": func(t *rapid.T) {
				who := pick.Draw(t, "who")
				_, _ = l.ClaimFees(who, nonceOf(who))
			},
			"deposit": func(t *rapid.T) {
				_, _ = l.DepositLiquidity(admin, nonceOf(admin), amount.Draw(t, "amount"))
			},
			"stake": func(t *rapid.T) {
				who := pick.Draw(t, "who")
				held := l.Balance(who).Token
				n := rapid.Uint64Range(0, held).Draw(t, "n")
				_, _ = l.Stake(who, nonceOf(who), n)
			},
			"unstake": func(t *rapid.T) {
				who := pick.Draw(t, "who")
				ts := l.Tickets(who)
				if len(ts) == 0 {
					t.Skip("no tickets")
				}
				id := rapid.SampledFrom(ts).Draw(t, "ticket").ID
				if _, err := l.Unstake(who, nonceOf(who), id); err != nil {
					t.Fatalf("Unstake own ticket: %v", err)
				}
			},
			"": func(t *rapid.T) {
				for _, r := range l.CheckInvariants() {
					if !r.OK {
						t.Fatalf("invariant %s broken: %s", r.Name, r.Detail)
					}
				}
			},
		})

		reopened, err := Open(db, testGenesis(), nil)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		for _, a := range callers {
			if got, want := reopened.Balance(a), l.Balance(a); got != want {
				t.Fatalf("reopened %s = %+v, want %+v", a, got, want)
			}
		}
		if got, want := reopened.ExchangeInfo(), l.ExchangeInfo(); got != want {
			t.Fatalf("reopened exchange = %+v, want %+v", got, want)
		}
		if got, want := reopened.StakeInfo(), l.StakeInfo(); got != want {
			t.Fatalf("reopened stake = %+v, want %+v", got, want)
		}
	})
}
