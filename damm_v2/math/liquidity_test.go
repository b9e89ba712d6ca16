package math

import (
	"errors"
	"math/big"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func TestLiquidityAmountsRoundTrip(t *testing.T) {
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	liquidity := new(big.Int).Lsh(big.NewInt(123_456_789), 64)

	up, err := AmountsFromLiquidity(liquidity, shared.MinSqrtPrice, shared.MaxSqrtPrice, sqrtPrice, shared.RoundingUp)
	if err != nil {
		t.Fatal("AmountsFromLiquidity() fail", err)
	}
	down, err := AmountsFromLiquidity(liquidity, shared.MinSqrtPrice, shared.MaxSqrtPrice, sqrtPrice, shared.RoundingDown)
	if err != nil {
		t.Fatal("AmountsFromLiquidity() fail", err)
	}
	if up.TokenAAmount.Cmp(down.TokenAAmount) < 0 || up.TokenBAmount.Cmp(down.TokenBAmount) < 0 {
		t.Fatal("rounding up paid less than rounding down")
	}

	// depositing the rounded up amounts backs at least the requested liquidity
	back, err := GetLiquidityDeltaFromAmounts(up.TokenAAmount, up.TokenBAmount, sqrtPrice, shared.MinSqrtPrice, shared.MaxSqrtPrice)
	if err != nil {
		t.Fatal("GetLiquidityDeltaFromAmounts() fail", err)
	}
	if back.Cmp(liquidity) < 0 {
		t.Fatalf("liquidity %s from deposit, want at least %s", back, liquidity)
	}

	// withdrawing never pays more than the deposit backs
	again, err := GetLiquidityDeltaFromAmounts(down.TokenAAmount, down.TokenBAmount, sqrtPrice, shared.MinSqrtPrice, shared.MaxSqrtPrice)
	if err != nil {
		t.Fatal("GetLiquidityDeltaFromAmounts() fail", err)
	}
	if again.Cmp(liquidity) > 0 {
		t.Fatalf("liquidity %s from withdrawal, want at most %s", again, liquidity)
	}
}

func TestValidatePriceRange(t *testing.T) {
	one := new(big.Int).Lsh(big.NewInt(1), 64)
	if err := ValidatePriceRange(one, shared.MinSqrtPrice, shared.MaxSqrtPrice); err != nil {
		t.Fatal("ValidatePriceRange() fail", err)
	}
	below := new(big.Int).Sub(shared.MinSqrtPrice, big.NewInt(1))
	if err := ValidatePriceRange(one, below, shared.MaxSqrtPrice); !errors.Is(err, shared.ErrInvalidPriceRange) {
		t.Fatal("ValidatePriceRange() want ErrInvalidPriceRange", err)
	}
	if err := ValidatePriceRange(shared.MaxSqrtPrice, shared.MinSqrtPrice, one); !errors.Is(err, shared.ErrPriceOutOfRange) {
		t.Fatal("ValidatePriceRange() want ErrPriceOutOfRange", err)
	}
}

func TestSwapQuoteDoesNotExceedReserves(t *testing.T) {
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	liquidity := new(big.Int).Lsh(big.NewInt(1_000_000), 64)
	nextPrice, err := GetNextSqrtPriceFromInput(sqrtPrice, liquidity, big.NewInt(500_000), true)
	if err != nil {
		t.Fatal("GetNextSqrtPriceFromInput() fail", err)
	}
	if nextPrice.Cmp(sqrtPrice) >= 0 {
		t.Fatal("selling a must lower the price")
	}
	out, err := GetAmountBFromLiquidityDelta(nextPrice, sqrtPrice, liquidity, shared.RoundingDown)
	if err != nil {
		t.Fatal("GetAmountBFromLiquidityDelta() fail", err)
	}
	// constant product at price 1: 1e6 * 1e6 / 1.5e6
	if out.Cmp(big.NewInt(333_333)) != 0 {
		t.Fatalf("output %s, want 333333", out)
	}
}

func TestSingleSidedLiquidityRoundTrip(t *testing.T) {
	one := new(big.Int).Lsh(big.NewInt(1), 64)
	narrow := new(big.Int).Mul(one, big.NewInt(101))
	narrow.Div(narrow, big.NewInt(100))
	ranges := []struct {
		name   string
		lo, hi *big.Int
	}{
		{"price 1 to 4", one, new(big.Int).Lsh(one, 1)},
		{"one percent", one, narrow},
		{"full range", shared.MinSqrtPrice, shared.MaxSqrtPrice},
	}
	amounts := []int64{1, 7, 1_000_003, 987_654_321_012}

	for _, r := range ranges {
		for _, x := range amounts {
			amount := big.NewInt(x)

			liquidity, err := GetLiquidityDeltaFromAmountA(amount, r.lo, r.hi)
			if err != nil {
				t.Fatal("GetLiquidityDeltaFromAmountA() fail", err)
			}
			// all token a when the price sits at the lower bound
			back, err := GetAmountAFromLiquidityDelta(r.lo, r.hi, liquidity, shared.RoundingDown)
			if err != nil {
				t.Fatal("GetAmountAFromLiquidityDelta() fail", err)
			}
			if diff := new(big.Int).Sub(amount, back); diff.Sign() < 0 || diff.Cmp(big.NewInt(1)) > 0 {
				t.Fatalf("%s: token a %d came back as %s", r.name, x, back)
			}

			liquidity, err = GetLiquidityDeltaFromAmountB(amount, r.lo, r.hi)
			if err != nil {
				t.Fatal("GetLiquidityDeltaFromAmountB() fail", err)
			}
			back, err = GetAmountBFromLiquidityDelta(r.lo, r.hi, liquidity, shared.RoundingDown)
			if err != nil {
				t.Fatal("GetAmountBFromLiquidityDelta() fail", err)
			}
			if diff := new(big.Int).Sub(amount, back); diff.Sign() < 0 || diff.Cmp(big.NewInt(1)) > 0 {
				t.Fatalf("%s: token b %d came back as %s", r.name, x, back)
			}
		}
	}
}
