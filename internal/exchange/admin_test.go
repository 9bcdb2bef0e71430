package exchange

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

func TestClaimFees_Authorization(t *testing.T) {
	e, ac, native := newTestEngine(t, referenceParams())
	if _, err := e.SwapAssetForToken(mustMint(t, native, 1_000_000)); err != nil {
		t.Fatal(err)
	}
	_, otherCap, _ := newTestEngine(t, referenceParams())

	tests := []struct {
		name   string
		ac     *AdminCap
		caller types.Address
	}{
		{"nil cap", nil, deployer},
		{"wrong caller", ac, stranger},
		{"cap of another exchange", otherCap, deployer},
		{"forged cap", &AdminCap{owner: stranger}, stranger},
		{"copied fields, wrong id", &AdminCap{exchangeID: e.ID(), owner: deployer}, deployer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := stateOf(e)
			if _, err := e.ClaimFees(tt.ac, tt.caller); !errors.Is(err, ErrNotAuthorized) {
				t.Errorf("ClaimFees error = %v, want ErrNotAuthorized", err)
			}
			in := mustMint(t, native, 50)
			if err := e.DepositLiquidity(tt.ac, tt.caller, in); !errors.Is(err, ErrNotAuthorized) {
				t.Errorf("DepositLiquidity error = %v, want ErrNotAuthorized", err)
			}
			if in.Consumed() {
				t.Error("rejected deposit consumed input")
			}
			if stateOf(e) != before {
				t.Errorf("state changed: %+v -> %+v", before, stateOf(e))
			}
		})
	}
}

func TestClaimFees_EmptyVault(t *testing.T) {
	e, ac, _ := newTestEngine(t, referenceParams())
	out, err := e.ClaimFees(ac, deployer)
	if err != nil {
		t.Fatalf("ClaimFees on empty vault: %v", err)
	}
	if out.Value() != 0 {
		t.Errorf("payout = %d, want 0", out.Value())
	}
	if err := out.DestroyZero(); err != nil {
		t.Errorf("DestroyZero: %v", err)
	}
}

func TestClaimFees_Twice(t *testing.T) {
	e, ac, native := newTestEngine(t, referenceParams())
	if _, err := e.SwapAssetForToken(mustMint(t, native, 10_000)); err != nil {
		t.Fatal(err)
	}
	first, err := e.ClaimFees(ac, deployer)
	if err != nil {
		t.Fatal(err)
	}
	if first.Value() != 100 {
		t.Errorf("first claim = %d, want 100", first.Value())
	}
	second, err := e.ClaimFees(ac, deployer)
	if err != nil {
		t.Fatal(err)
	}
	if second.Value() != 0 {
		t.Errorf("second claim = %d, want 0", second.Value())
	}
}

func TestDepositLiquidity(t *testing.T) {
	e, ac, native := newTestEngine(t, referenceParams())

	in := mustMint(t, native, 5_000)
	if err := e.DepositLiquidity(ac, deployer, in); err != nil {
		t.Fatalf("DepositLiquidity: %v", err)
	}
	if !in.Consumed() {
		t.Error("deposit should consume input")
	}
	if e.Liquidity() != 5_000 || e.FeeVault() != 0 {
		t.Errorf("liquidity %d fee %d, want 5000 and 0", e.Liquidity(), e.FeeVault())
	}

	if err := e.DepositLiquidity(ac, deployer, coin.Zero[coin.Native]()); !errors.Is(err, ErrZeroValue) {
		t.Errorf("zero deposit error = %v, want ErrZeroValue", err)
	}
}
