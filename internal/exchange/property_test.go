package exchange

import (
	"testing"

	"github.com/Klingon-tech/klingswap/internal/coin"
	"pgregory.net/rapid"
)

func drawParams(t *rapid.T) Params {
	price := rapid.Uint64Range(1, 1_000_000).Draw(t, "price")
	rate := rapid.Uint64Range(1, 1000).Draw(t, "rate")
	return Params{
		FeeBasisPoints: rapid.Uint64Range(0, 500).Draw(t, "fee_bps"),
		PriceInAsset:   price,
		AmountOfToken:  price * rate,
	}
}

// Reserves always equal net inflows, circulating token always equals the
// tokens held outside the exchange, and the pool always backs them.
func TestProperty_Conservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, ac, err := Initialize(drawParams(t), deployer)
		if err != nil {
			t.Fatal(err)
		}
		native := coin.NewSupply[coin.Native]()
		held := coin.Zero[coin.Token]()
		var inflow, outflow uint64

		t.Repeat(map[string]func(*rapid.T){
			"buy": func(t *rapid.T) {
				amount := rapid.Uint64Range(1, 1<<30).Draw(t, "amount")
				in, _ := native.Mint(amount)
				out, err := e.SwapAssetForToken(in)
				if err != nil {
					t.Skip(err)
				}
				inflow += amount
				if err := held.Join(out); err != nil {
					t.Fatal(err)
				}
			},
			"sell": func(t *rapid.T) {
				if held.Value() == 0 {
					t.Skip("no token")
				}
				part, _ := held.Split(rapid.Uint64Range(1, held.Value()).Draw(t, "amount"))
				out, err := e.SwapTokenForAsset(part)
				if err != nil {
					if err := held.Join(part); err != nil {
						t.Fatal(err)
					}
					t.Skip(err)
				}
				outflow += out.Value()
			},
			"claim": func(t *rapid.T) {
				out, err := e.ClaimFees(ac, deployer)
				if err != nil {
					t.Fatal(err)
				}
				outflow += out.Value()
			},
			"deposit": func(t *rapid.T) {
				amount := rapid.Uint64Range(1, 1<<20).Draw(t, "amount")
				in, _ := native.Mint(amount)
				if err := e.DepositLiquidity(ac, deployer, in); err != nil {
					t.Fatal(err)
				}
				inflow += amount
			},
			"": func(t *rapid.T) {
				if e.Liquidity()+e.FeeVault() != inflow-outflow {
					t.Fatalf("reserves %d+%d != inflow %d - outflow %d",
						e.Liquidity(), e.FeeVault(), inflow, outflow)
				}
				if e.TokenSupply() != held.Value() {
					t.Fatalf("supply %d != held %d", e.TokenSupply(), held.Value())
				}
				if e.Liquidity()*e.Params().Rate() < e.TokenSupply() {
					t.Fatalf("pool %d does not back supply %d at rate %d",
						e.Liquidity(), e.TokenSupply(), e.Params().Rate())
				}
			},
		})
	})
}

// Buying and immediately selling never returns more than was paid, and
// the loss is exactly the two fees.
func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawParams(t)
		e, _, err := Initialize(p, deployer)
		if err != nil {
			t.Fatal(err)
		}
		native := coin.NewSupply[coin.Native]()
		x := rapid.Uint64Range(1, 1<<40).Draw(t, "x")

		in, _ := native.Mint(x)
		tok, err := e.SwapAssetForToken(in)
		if err != nil {
			t.Skip(err)
		}
		back, err := e.SwapTokenForAsset(tok)
		if err != nil {
			t.Skip(err)
		}

		fee1 := x * p.FeeBasisPoints / MaxFeeBasisPoints
		user := x - fee1
		fee2 := user * p.FeeBasisPoints / MaxFeeBasisPoints
		if back.Value() != user-fee2 {
			t.Fatalf("round trip of %d = %d, want %d", x, back.Value(), user-fee2)
		}
		if back.Value() > x {
			t.Fatalf("round trip gained value: %d -> %d", x, back.Value())
		}
		if fee1 > 0 && back.Value() >= x {
			t.Fatalf("round trip with fee returned %d of %d", back.Value(), x)
		}
	})
}

func TestProperty_QuoteMatchesSwap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, _, err := Initialize(drawParams(t), deployer)
		if err != nil {
			t.Fatal(err)
		}
		native := coin.NewSupply[coin.Native]()
		amount := rapid.Uint64Range(1, 1<<40).Draw(t, "amount")

		q, qerr := e.QuoteAssetForToken(amount)
		in, _ := native.Mint(amount)
		out, serr := e.SwapAssetForToken(in)
		if (qerr == nil) != (serr == nil) {
			t.Fatalf("quote error %v, swap error %v", qerr, serr)
		}
		if serr != nil {
			return
		}
		if out.Value() != q.TokenOut {
			t.Fatalf("swap minted %d, quote said %d", out.Value(), q.TokenOut)
		}

		tq, qerr := e.QuoteTokenForAsset(out.Value())
		back, serr := e.SwapTokenForAsset(out)
		if (qerr == nil) != (serr == nil) {
			t.Fatalf("quote error %v, swap error %v", qerr, serr)
		}
		if serr == nil && back.Value() != tq.Net {
			t.Fatalf("redeemed %d, quote said %d", back.Value(), tq.Net)
		}
	})
}
