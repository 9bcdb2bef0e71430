package coin

import (
	"errors"
	"math"
	"testing"
)

func mint[D Denom](t *testing.T, s *Supply[D], amount uint64) *Coin[D] {
	t.Helper()
	c, err := s.Mint(amount)
	if err != nil {
		t.Fatalf("Mint(%d): %v", amount, err)
	}
	return c
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		value   uint64
		amount  uint64
		wantErr error
	}{
		{"partial", 100, 40, nil},
		{"all", 100, 100, nil},
		{"nothing", 100, 0, nil},
		{"too much", 100, 101, ErrInsufficientValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mint(t, NewSupply[Native](), tt.value)
			part, err := c.Split(tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Split() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if c.Value() != tt.value {
					t.Errorf("value after failed split = %d, want %d", c.Value(), tt.value)
				}
				return
			}
			if part.Value() != tt.amount {
				t.Errorf("part = %d, want %d", part.Value(), tt.amount)
			}
			if c.Value() != tt.value-tt.amount {
				t.Errorf("remainder = %d, want %d", c.Value(), tt.value-tt.amount)
			}
		})
	}
}

func TestJoin_ConsumesOther(t *testing.T) {
	s := NewSupply[Token]()
	a := mint(t, s, 30)
	b := mint(t, s, 12)

	if err := a.Join(b); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if a.Value() != 42 {
		t.Errorf("joined value = %d, want 42", a.Value())
	}
	if !b.Consumed() {
		t.Error("joined coin should be consumed")
	}
	if b.Value() != 0 {
		t.Errorf("consumed coin value = %d, want 0", b.Value())
	}

	if err := a.Join(b); !errors.Is(err, ErrConsumed) {
		t.Errorf("second Join error = %v, want ErrConsumed", err)
	}
	if _, err := b.Split(1); !errors.Is(err, ErrConsumed) {
		t.Errorf("Split on consumed error = %v, want ErrConsumed", err)
	}
}

func TestJoin_Self(t *testing.T) {
	c := mint(t, NewSupply[Native](), 5)
	if err := c.Join(c); !errors.Is(err, ErrSelfJoin) {
		t.Errorf("self join error = %v, want ErrSelfJoin", err)
	}
	if c.Value() != 5 {
		t.Errorf("value = %d, want 5", c.Value())
	}
}

func TestJoin_Overflow(t *testing.T) {
	a := &Coin[Native]{value: math.MaxUint64}
	b := &Coin[Native]{value: 1}
	if err := a.Join(b); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Join error = %v, want ErrOverflow", err)
	}
	if b.Consumed() {
		t.Error("failed join must not consume the argument")
	}
	if a.CanJoin(1) {
		t.Error("CanJoin(1) on max coin should be false")
	}
}

func TestWithdraw(t *testing.T) {
	vault := Zero[Native]()
	if err := vault.Join(mint(t, NewSupply[Native](), 77)); err != nil {
		t.Fatal(err)
	}

	out, err := vault.Withdraw()
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if out.Value() != 77 || vault.Value() != 0 {
		t.Errorf("withdraw = %d (vault %d), want 77 (vault 0)", out.Value(), vault.Value())
	}
	if vault.Consumed() {
		t.Error("withdrawn vault should remain usable")
	}

	empty, err := vault.Withdraw()
	if err != nil {
		t.Fatalf("Withdraw on empty vault: %v", err)
	}
	if empty.Value() != 0 {
		t.Errorf("empty withdraw = %d, want 0", empty.Value())
	}
}

func TestDestroyZero(t *testing.T) {
	if err := Zero[Token]().DestroyZero(); err != nil {
		t.Errorf("DestroyZero on empty coin: %v", err)
	}
	c := mint(t, NewSupply[Token](), 1)
	if err := c.DestroyZero(); !errors.Is(err, ErrNonZero) {
		t.Errorf("DestroyZero on funded coin = %v, want ErrNonZero", err)
	}
}

func TestDenomName(t *testing.T) {
	if got := DenomName[Native](); got != "native" {
		t.Errorf("DenomName[Native] = %q", got)
	}
	if got := DenomName[Token](); got != "token" {
		t.Errorf("DenomName[Token] = %q", got)
	}
}
