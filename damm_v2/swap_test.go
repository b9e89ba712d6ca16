package dammv2

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func TestSwapStaticFeeOnInput(t *testing.T) {
	tp := newStaticPool(t, MaxFeeBpsV1, CollectFeeModeOnlyA)
	pool := tp.pool
	sqrtPriceBefore := pool.SqrtPrice.BigInt()

	amountIn := big.NewInt(1_000_000_000)
	result, err := Swap(pool, SwapParams{
		Amount:         amountIn,
		SwapMode:       SwapModeExactIn,
		TradeDirection: TradeDirectionAtoB,
	}, testClock(1))
	if err != nil {
		t.Fatal("Swap() fail", err)
	}

	if got := result.TotalFee(); got.Cmp(big.NewInt(990_000_000)) != 0 {
		t.Fatalf("total fee %s, want 990000000", got)
	}
	if result.ExcludedFeeInputAmount.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("excluded fee input %s, want 10000000", result.ExcludedFeeInputAmount)
	}
	if result.ProtocolFee.Cmp(big.NewInt(198_000_000)) != 0 {
		t.Fatalf("protocol fee %s, want 198000000", result.ProtocolFee)
	}
	if pool.ProtocolAFee != 198_000_000 || pool.ProtocolBFee != 0 {
		t.Fatalf("protocol fees %d/%d", pool.ProtocolAFee, pool.ProtocolBFee)
	}

	wantPerLiquidity := new(big.Int).Lsh(big.NewInt(792_000_000), LiquidityScale)
	wantPerLiquidity.Div(wantPerLiquidity, testLiquidity)
	if got := state.U256(pool.FeeAPerLiquidity); got.Cmp(wantPerLiquidity) != 0 {
		t.Fatalf("fee a per liquidity %s, want %s", got, wantPerLiquidity)
	}
	if pool.SqrtPrice.BigInt().Cmp(sqrtPriceBefore) >= 0 {
		t.Fatal("a to b swap must lower the price")
	}
}

func TestSwapBothTokenChargesOutput(t *testing.T) {
	tp := newStaticPool(t, 100, CollectFeeModeBothToken)
	result, err := Swap(tp.pool, SwapParams{
		Amount:         big.NewInt(5_000_000),
		SwapMode:       SwapModeExactIn,
		TradeDirection: TradeDirectionAtoB,
	}, testClock(1))
	if err != nil {
		t.Fatal("Swap() fail", err)
	}
	if result.ExcludedFeeInputAmount.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("fee was taken from the input: %s", result.ExcludedFeeInputAmount)
	}
	if tp.pool.ProtocolBFee == 0 || tp.pool.ProtocolAFee != 0 {
		t.Fatalf("protocol fees %d/%d, want fee on token b", tp.pool.ProtocolAFee, tp.pool.ProtocolBFee)
	}
}

func TestSwapSlippageLeavesPoolUntouched(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	before := *tp.pool

	_, err := Swap(tp.pool, SwapParams{
		Amount:         big.NewInt(1_000_000),
		SwapMode:       SwapModeExactIn,
		TradeDirection: TradeDirectionBtoA,
		Threshold:      big.NewInt(1_000_000),
	}, testClock(1))
	if !errors.Is(err, shared.ErrSlippageExceeded) {
		t.Fatal("Swap() want ErrSlippageExceeded", err)
	}
	if !reflect.DeepEqual(before, *tp.pool) {
		t.Fatal("pool changed after a failed swap")
	}
}

func TestSwapExactOutMaximumInput(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	quote, err := QuoteSwap(tp.pool, SwapParams{
		Amount:         big.NewInt(2_000_000),
		SwapMode:       SwapModeExactOut,
		TradeDirection: TradeDirectionAtoB,
	}, testClock(1), 50, 9, 9)
	if err != nil {
		t.Fatal("QuoteSwap() fail", err)
	}

	_, err = Swap(tp.pool, SwapParams{
		Amount:         big.NewInt(2_000_000),
		SwapMode:       SwapModeExactOut,
		TradeDirection: TradeDirectionAtoB,
		Threshold:      new(big.Int).Sub(quote.IncludedFeeInputAmount, big.NewInt(1)),
	}, testClock(1))
	if !errors.Is(err, shared.ErrSlippageExceeded) {
		t.Fatal("Swap() want ErrSlippageExceeded", err)
	}

	result, err := Swap(tp.pool, SwapParams{
		Amount:         big.NewInt(2_000_000),
		SwapMode:       SwapModeExactOut,
		TradeDirection: TradeDirectionAtoB,
		Threshold:      quote.MaximumAmountIn,
	}, testClock(1))
	if err != nil {
		t.Fatal("Swap() fail", err)
	}
	if result.OutputAmount.Cmp(big.NewInt(2_000_000)) != 0 {
		t.Fatalf("output %s, want 2000000", result.OutputAmount)
	}
}

func TestSwapRejectsDisabledPool(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	if err := SetPoolStatus(tp.pool, PoolStatusDisable); err != nil {
		t.Fatal("SetPoolStatus() fail", err)
	}
	_, err := Swap(tp.pool, SwapParams{
		Amount:         big.NewInt(1_000),
		TradeDirection: TradeDirectionAtoB,
	}, testClock(1))
	if !errors.Is(err, shared.ErrSwapDisabled) {
		t.Fatal("Swap() want ErrSwapDisabled", err)
	}
}

func TestSwapRejectsZeroAmount(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	_, err := Swap(tp.pool, SwapParams{Amount: big.NewInt(0), TradeDirection: TradeDirectionAtoB}, testClock(1))
	if !errors.Is(err, shared.ErrAmountIsZero) {
		t.Fatal("Swap() want ErrAmountIsZero", err)
	}
}

func TestQuoteFillableAmountIn(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	// range ends 1% above the current sqrt price
	narrowMax := new(big.Int).Mul(testSqrtPrice, big.NewInt(101))
	narrowMax.Div(narrowMax, big.NewInt(100))
	tp.pool.SqrtMaxPrice = state.U128(narrowMax)

	quote, err := QuoteSwap(tp.pool, SwapParams{
		Amount:         big.NewInt(1_000),
		SwapMode:       SwapModeExactIn,
		TradeDirection: TradeDirectionBtoA,
	}, testClock(1), 0, 9, 9)
	if err != nil {
		t.Fatal("QuoteSwap() fail", err)
	}
	// liquidity * (max - current) >> 128, about 1e10
	low, high := big.NewInt(9_999_999_000), big.NewInt(10_000_000_000)
	if quote.FillableAmountIn.Cmp(low) < 0 || quote.FillableAmountIn.Cmp(high) > 0 {
		t.Fatalf("fillable b in %s, want about 1e10", quote.FillableAmountIn)
	}

	partial, err := QuoteSwap(tp.pool, SwapParams{
		Amount:         new(big.Int).Mul(quote.FillableAmountIn, big.NewInt(2)),
		SwapMode:       SwapModePartialFill,
		TradeDirection: TradeDirectionBtoA,
	}, testClock(1), 0, 9, 9)
	if err != nil {
		t.Fatal("QuoteSwap() partial fill fail", err)
	}
	if partial.AmountLeft == nil || partial.AmountLeft.Sign() <= 0 {
		t.Fatal("partial fill past the range bound left nothing unfilled")
	}

	// the other side of the range is wide enough to hit the u64 cap
	quote, err = QuoteSwap(tp.pool, SwapParams{
		Amount:         big.NewInt(1_000),
		SwapMode:       SwapModeExactIn,
		TradeDirection: TradeDirectionAtoB,
	}, testClock(1), 0, 9, 9)
	if err != nil {
		t.Fatal("QuoteSwap() fail", err)
	}
	if quote.FillableAmountIn.Cmp(U64Max) != 0 {
		t.Fatalf("fillable a in %s, want the u64 cap", quote.FillableAmountIn)
	}
}
