package dammv2

import (
	"errors"
	"math/big"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// generateFees trades in both directions so both fee tokens accrue.
func generateFees(t *testing.T, tp testPool, clock Clock) {
	t.Helper()
	for _, direction := range []TradeDirection{TradeDirectionAtoB, TradeDirectionBtoA} {
		if _, err := Swap(tp.pool, SwapParams{
			Amount:         big.NewInt(50_000_000),
			SwapMode:       SwapModeExactIn,
			TradeDirection: direction,
		}, clock); err != nil {
			t.Fatal("Swap() fail", err)
		}
	}
}

func TestSplitPositionConservesTotals(t *testing.T) {
	for _, percentage := range []uint8{0, 37, 100} {
		tp := newStaticPool(t, 100, CollectFeeModeBothToken)
		generateFees(t, tp, testClock(1))
		second := tp.newPosition(t, testClock(2))

		pending, err := GetPendingFees(tp.pool, tp.position, testStartTime+2)
		if err != nil {
			t.Fatal("GetPendingFees() fail", err)
		}
		liquidityBefore := totalLiquidity(tp.position)

		params := SplitPositionParameters{
			UnlockedLiquidityPercentage: percentage,
			FeeAPercentage:              percentage,
			FeeBPercentage:              percentage,
		}
		if percentage == 0 {
			// an all zero split is rejected, so move only fee b
			params.FeeBPercentage = 50
		}
		info, err := SplitPosition(tp.pool, tp.position, second, params, testClock(2))
		if err != nil {
			t.Fatal("SplitPosition() fail", err)
		}

		sumLiquidity := new(big.Int).Add(totalLiquidity(tp.position), totalLiquidity(second))
		if sumLiquidity.Cmp(liquidityBefore) != 0 {
			t.Fatalf("%d%%: liquidity %s after split, want %s", percentage, sumLiquidity, liquidityBefore)
		}
		if got := tp.position.FeeAPending + second.FeeAPending; got != pending.FeeA {
			t.Fatalf("%d%%: fee a %d after split, want %d", percentage, got, pending.FeeA)
		}
		if got := tp.position.FeeBPending + second.FeeBPending; got != pending.FeeB {
			t.Fatalf("%d%%: fee b %d after split, want %d", percentage, got, pending.FeeB)
		}
		if second.UnlockedLiquidity.BigInt().Cmp(info.UnlockedLiquidity) != 0 {
			t.Fatalf("%d%%: reported %s, moved %s", percentage, info.UnlockedLiquidity, second.UnlockedLiquidity.BigInt())
		}
		if percentage == 100 && !state.IsZeroU128(tp.position.UnlockedLiquidity) {
			t.Fatal("100% split left unlocked liquidity behind")
		}
		if percentage == 0 && !state.IsZeroU128(second.UnlockedLiquidity) {
			t.Fatal("0% split moved liquidity")
		}
	}
}

func TestSplitPositionVesting(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	lockTestPosition(t, tp)
	second := tp.newPosition(t, testClock(0))
	vestedBefore := tp.position.VestedLiquidity.BigInt()

	// cliff and one period have been released
	if _, err := SplitPosition2(tp.pool, tp.position, second, SplitPositionParameters2{
		InnerVestingLiquidityNumerator: SplitPositionDenominator / 2,
	}, testClock(25)); err != nil {
		t.Fatal("SplitPosition2() fail", err)
	}

	for _, position := range []*state.Position{tp.position, second} {
		remaining := remainingVestedLiquidity(&position.InnerVesting)
		if remaining.Cmp(position.VestedLiquidity.BigInt()) != 0 {
			t.Fatalf("schedule owes %s, position holds %s", remaining, position.VestedLiquidity.BigInt())
		}
	}
	if second.InnerVesting.CliffPoint != tp.position.InnerVesting.CliffPoint {
		t.Fatal("split schedule has a different cliff point")
	}

	// both schedules finish without underflow
	for _, position := range []*state.Position{tp.position, second} {
		if _, err := RefreshVesting(position, testStartTime+1_000); err != nil {
			t.Fatal("RefreshVesting() fail", err)
		}
		if !position.InnerVesting.IsZero() || !state.IsZeroU128(position.VestedLiquidity) {
			t.Fatal("schedule not fully released")
		}
	}
	sum := new(big.Int).Add(totalLiquidity(tp.position), totalLiquidity(second))
	if sum.Cmp(testLiquidity) != 0 {
		t.Fatalf("liquidity %s after vesting split, want %s (vested was %s)", sum, testLiquidity, vestedBefore)
	}
}

func TestMergePositionEmptiesSource(t *testing.T) {
	tp := newStaticPool(t, 100, CollectFeeModeBothToken)
	lockTestPosition(t, tp)
	if err := PermanentLockPosition(tp.pool, tp.position, big.NewInt(1_000), testClock(1)); err != nil {
		t.Fatal("PermanentLockPosition() fail", err)
	}
	generateFees(t, tp, testClock(2))
	destination := tp.newPosition(t, testClock(3))

	if _, err := MergePosition(tp.pool, tp.position, destination, testClock(3)); err != nil {
		t.Fatal("MergePosition() fail", err)
	}
	if !IsPositionEmpty(tp.position) {
		t.Fatalf("source not empty after merge: %+v", tp.position)
	}
	if totalLiquidity(destination).Cmp(testLiquidity) != 0 {
		t.Fatalf("destination liquidity %s, want %s", totalLiquidity(destination), testLiquidity)
	}

	positions := tp.pool.Metrics.TotalPosition
	if err := ClosePosition(tp.pool, tp.position, testClock(4)); err != nil {
		t.Fatal("ClosePosition() fail", err)
	}
	if tp.pool.Metrics.TotalPosition != positions-1 {
		t.Fatal("ClosePosition() did not decrement the position count")
	}
	if err := ClosePosition(tp.pool, destination, testClock(4)); !errors.Is(err, shared.ErrPositionNotEmpty) {
		t.Fatal("ClosePosition() want ErrPositionNotEmpty", err)
	}
}

func TestSplitPositionRejectsSamePosition(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	_, err := SplitPosition2(tp.pool, tp.position, tp.position, SplitPositionParameters2{UnlockedLiquidityNumerator: 1}, testClock(1))
	if !errors.Is(err, shared.ErrSamePosition) {
		t.Fatal("SplitPosition2() want ErrSamePosition", err)
	}

	second := tp.newPosition(t, testClock(1))
	_, err = SplitPosition2(tp.pool, tp.position, second, SplitPositionParameters2{}, testClock(1))
	if !errors.Is(err, shared.ErrInvalidSplitPositionParameters) {
		t.Fatal("SplitPosition2() want ErrInvalidSplitPositionParameters", err)
	}
}
