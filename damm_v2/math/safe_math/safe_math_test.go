package safe_math

import (
	"errors"
	"math/big"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func TestMulDivRounding(t *testing.T) {
	tests := []struct {
		x, y, d  int64
		rounding shared.Rounding
		want     int64
	}{
		{10, 3, 4, shared.RoundingDown, 7},
		{10, 3, 4, shared.RoundingUp, 8},
		{10, 4, 5, shared.RoundingUp, 8},
		{0, 7, 3, shared.RoundingUp, 0},
	}
	for _, tt := range tests {
		got, err := MulDiv(big.NewInt(tt.x), big.NewInt(tt.y), big.NewInt(tt.d), tt.rounding)
		if err != nil {
			t.Fatal("MulDiv() fail", err)
		}
		if got.Int64() != tt.want {
			t.Fatalf("MulDiv(%d, %d, %d, %v) = %s, want %d", tt.x, tt.y, tt.d, tt.rounding, got, tt.want)
		}
	}
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0), shared.RoundingDown); !errors.Is(err, shared.ErrArithmeticOverflow) {
		t.Fatal("MulDiv() want ErrArithmeticOverflow on a zero denominator", err)
	}
}

func TestShiftRounding(t *testing.T) {
	// 5 * 3 >> 2 = 3.75
	if got := MulShr(big.NewInt(5), big.NewInt(3), 2, shared.RoundingDown); got.Int64() != 3 {
		t.Fatalf("MulShr() down = %s, want 3", got)
	}
	if got := MulShr(big.NewInt(5), big.NewInt(3), 2, shared.RoundingUp); got.Int64() != 4 {
		t.Fatalf("MulShr() up = %s, want 4", got)
	}
	// (3 << 2) / 5 = 2.4
	got, err := ShlDiv(big.NewInt(3), big.NewInt(5), 2, shared.RoundingUp)
	if err != nil {
		t.Fatal("ShlDiv() fail", err)
	}
	if got.Int64() != 3 {
		t.Fatalf("ShlDiv() up = %s, want 3", got)
	}
}

func TestCheckedBounds(t *testing.T) {
	if _, err := CheckedU64(shared.U64Max); err != nil {
		t.Fatal("CheckedU64() rejected u64 max", err)
	}
	over := new(big.Int).Add(shared.U64Max, big.NewInt(1))
	if _, err := CheckedU64(over); !errors.Is(err, shared.ErrArithmeticOverflow) {
		t.Fatal("CheckedU64() want ErrArithmeticOverflow", err)
	}
	if _, err := CheckedU128(big.NewInt(-1)); !errors.Is(err, shared.ErrArithmeticOverflow) {
		t.Fatal("CheckedU128() want ErrArithmeticOverflow below zero", err)
	}
}

func TestPow(t *testing.T) {
	half := new(big.Int).Rsh(shared.OneQ64, 1)
	quarter := new(big.Int).Rsh(shared.OneQ64, 2)
	if got := Pow(half, big.NewInt(2)); got.Cmp(quarter) != 0 {
		t.Fatalf("0.5^2 = %s, want %s", got, quarter)
	}
	if got := Pow(half, big.NewInt(0)); got.Cmp(shared.OneQ64) != 0 {
		t.Fatalf("0.5^0 = %s, want one", got)
	}
	if got := Pow(half, shared.MaxExponential); got.Sign() != 0 {
		t.Fatalf("exponent past the limit = %s, want 0", got)
	}
}

func TestFeeAmountRoundTrip(t *testing.T) {
	// 1% fee
	numerator := big.NewInt(10_000_000)
	for _, amount := range []int64{1, 99, 1_000_000, 123_456_789} {
		excluded, fee, err := GetExcludedFeeAmount(numerator, big.NewInt(amount))
		if err != nil {
			t.Fatal("GetExcludedFeeAmount() fail", err)
		}
		if new(big.Int).Add(excluded, fee).Int64() != amount {
			t.Fatalf("excluded %s + fee %s != %d", excluded, fee, amount)
		}
		included, _, err := GetIncludedFeeAmount(numerator, excluded)
		if err != nil {
			t.Fatal("GetIncludedFeeAmount() fail", err)
		}
		// grossing up never asks for more than the original input
		if included.Int64() > amount {
			t.Fatalf("included %s above the original %d", included, amount)
		}
	}
	if _, _, err := GetIncludedFeeAmount(big.NewInt(shared.FeeDenominator), big.NewInt(1)); !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("GetIncludedFeeAmount() want ErrInvalidFeeConfiguration at a 100% fee", err)
	}
}
