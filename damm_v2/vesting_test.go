package dammv2

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func lockTestPosition(t *testing.T, tp testPool) (cliff, perPeriod *big.Int) {
	t.Helper()
	cliff = new(big.Int).Div(testLiquidity, big.NewInt(10))
	perPeriod = new(big.Int).Div(testLiquidity, big.NewInt(20))
	cliffPoint := uint64(testStartTime + 10)
	err := LockPosition(tp.pool, tp.position, LockPositionParams{
		CliffPoint:           &cliffPoint,
		PeriodFrequency:      10,
		CliffUnlockLiquidity: cliff,
		LiquidityPerPeriod:   perPeriod,
		NumberOfPeriod:       5,
	}, testClock(0))
	if err != nil {
		t.Fatal("LockPosition() fail", err)
	}
	return cliff, perPeriod
}

func TestLockPositionMovesLiquidity(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	cliff, perPeriod := lockTestPosition(t, tp)

	totalLock := new(big.Int).Mul(perPeriod, big.NewInt(5))
	totalLock.Add(totalLock, cliff)
	if tp.position.VestedLiquidity.BigInt().Cmp(totalLock) != 0 {
		t.Fatalf("vested %s, want %s", tp.position.VestedLiquidity.BigInt(), totalLock)
	}
	if totalLiquidity(tp.position).Cmp(testLiquidity) != 0 {
		t.Fatal("locking changed total position liquidity")
	}
	if !IsLockedPosition(tp.position) {
		t.Fatal("IsLockedPosition() want true")
	}

	err := LockPosition(tp.pool, tp.position, LockPositionParams{LiquidityPerPeriod: big.NewInt(1), NumberOfPeriod: 1, PeriodFrequency: 1}, testClock(1))
	if !errors.Is(err, shared.ErrInvalidVestingInfo) {
		t.Fatal("LockPosition() want ErrInvalidVestingInfo for a second schedule", err)
	}
}

func TestRefreshVestingIsIdempotent(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	cliff, perPeriod := lockTestPosition(t, tp)

	released, err := RefreshVesting(tp.position, testStartTime+5)
	if err != nil {
		t.Fatal("RefreshVesting() fail", err)
	}
	if released.Sign() != 0 {
		t.Fatalf("released %s before the cliff", released)
	}

	released, err = RefreshVesting(tp.position, testStartTime+25)
	if err != nil {
		t.Fatal("RefreshVesting() fail", err)
	}
	want := new(big.Int).Add(cliff, perPeriod)
	if released.Cmp(want) != 0 {
		t.Fatalf("released %s, want %s", released, want)
	}

	snapshot := *tp.position
	released, err = RefreshVesting(tp.position, testStartTime+25)
	if err != nil {
		t.Fatal("RefreshVesting() fail", err)
	}
	if released.Sign() != 0 || !reflect.DeepEqual(snapshot, *tp.position) {
		t.Fatal("second refresh at the same point changed the position")
	}
}

func TestRefreshVestingResetsFinishedSchedule(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	lockTestPosition(t, tp)

	if _, err := RefreshVesting(tp.position, testStartTime+1_000); err != nil {
		t.Fatal("RefreshVesting() fail", err)
	}
	if !tp.position.InnerVesting.IsZero() {
		t.Fatal("finished schedule not reset")
	}
	if !state.IsZeroU128(tp.position.VestedLiquidity) {
		t.Fatalf("vested liquidity %s left after the schedule ended", tp.position.VestedLiquidity.BigInt())
	}
	if tp.position.UnlockedLiquidity.BigInt().Cmp(testLiquidity) != 0 {
		t.Fatal("released liquidity did not return to unlocked")
	}
}

func TestRemoveLockedLiquidity(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	lockTestPosition(t, tp)

	_, err := RemoveLiquidity(tp.pool, tp.position, RemoveLiquidityParams{LiquidityDelta: testLiquidity}, testClock(1))
	if !errors.Is(err, shared.ErrPositionLocked) {
		t.Fatal("RemoveLiquidity() want ErrPositionLocked", err)
	}

	tooMuch := new(big.Int).Add(testLiquidity, big.NewInt(1))
	_, err = RemoveLiquidity(tp.pool, tp.position, RemoveLiquidityParams{LiquidityDelta: tooMuch}, testClock(1))
	if !errors.Is(err, shared.ErrInsufficientLiquidity) {
		t.Fatal("RemoveLiquidity() want ErrInsufficientLiquidity", err)
	}

	// everything has vested by now
	if _, err := RemoveAllLiquidity(tp.pool, tp.position, nil, nil, testClock(1_000)); err != nil {
		t.Fatal("RemoveAllLiquidity() fail", err)
	}
	if !state.IsZeroU128(tp.pool.Liquidity) {
		t.Fatalf("pool liquidity %s after removing everything", tp.pool.Liquidity.BigInt())
	}
}

func TestPermanentLock(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	amount := new(big.Int).Div(testLiquidity, big.NewInt(4))

	if err := PermanentLockPosition(tp.pool, tp.position, amount, testClock(1)); err != nil {
		t.Fatal("PermanentLockPosition() fail", err)
	}
	if tp.pool.PermanentLockLiquidity.BigInt().Cmp(amount) != 0 {
		t.Fatalf("pool permanent lock %s, want %s", tp.pool.PermanentLockLiquidity.BigInt(), amount)
	}
	if !IsPermanentLockedPosition(tp.position) {
		t.Fatal("IsPermanentLockedPosition() want true")
	}

	_, err := RemoveAllLiquidity(tp.pool, tp.position, nil, nil, testClock(2))
	if err != nil {
		t.Fatal("RemoveAllLiquidity() fail", err)
	}
	if tp.position.PermanentLockedLiquidity.BigInt().Cmp(amount) != 0 {
		t.Fatal("permanent liquidity was removed")
	}
	if tp.pool.Liquidity.BigInt().Cmp(amount) != 0 {
		t.Fatalf("pool liquidity %s, want %s", tp.pool.Liquidity.BigInt(), amount)
	}

	if err := PermanentUnlockPosition(tp.pool, tp.position, amount); err != nil {
		t.Fatal("PermanentUnlockPosition() fail", err)
	}
	if !state.IsZeroU128(tp.pool.PermanentLockLiquidity) || IsPermanentLockedPosition(tp.position) {
		t.Fatal("permanent lock not released")
	}
}

func TestPermanentVestingOnlyReleasesOnDemand(t *testing.T) {
	tp := newStaticPool(t, 25, CollectFeeModeBothToken)
	unlocked := tp.position.UnlockedLiquidity.BigInt()
	amount := new(big.Int).Div(testLiquidity, big.NewInt(3))
	cliffPoint := uint64(state.PermanentCliffPoint)
	err := LockPosition(tp.pool, tp.position, LockPositionParams{
		CliffPoint:           &cliffPoint,
		CliffUnlockLiquidity: amount,
	}, testClock(0))
	if err != nil {
		t.Fatal("LockPosition() fail", err)
	}
	if !tp.position.InnerVesting.IsPermanent() {
		t.Fatal("IsPermanent() want true")
	}

	for _, point := range []uint64{testStartTime, testStartTime + 1_000_000, state.PermanentCliffPoint - 1, state.PermanentCliffPoint} {
		released, err := RefreshVesting(tp.position, point)
		if err != nil {
			t.Fatal("RefreshVesting() fail", err)
		}
		if released.Sign() != 0 {
			t.Fatalf("refresh at %d released %s from a permanent schedule", point, released)
		}
		if tp.position.VestedLiquidity.BigInt().Cmp(amount) != 0 {
			t.Fatalf("vested %s at %d, want %s", tp.position.VestedLiquidity.BigInt(), point, amount)
		}
	}

	released, err := ReleasePermanentVesting(tp.position)
	if err != nil {
		t.Fatal("ReleasePermanentVesting() fail", err)
	}
	if released.Cmp(amount) != 0 {
		t.Fatalf("released %s, want %s", released, amount)
	}
	if !state.IsZeroU128(tp.position.VestedLiquidity) || !tp.position.InnerVesting.IsZero() {
		t.Fatal("schedule still holds liquidity after release")
	}
	if tp.position.UnlockedLiquidity.BigInt().Cmp(unlocked) != 0 {
		t.Fatalf("unlocked %s, want %s", tp.position.UnlockedLiquidity.BigInt(), unlocked)
	}

	if _, err := ReleasePermanentVesting(tp.position); !errors.Is(err, shared.ErrInvalidVestingInfo) {
		t.Fatal("ReleasePermanentVesting() want ErrInvalidVestingInfo without a permanent schedule", err)
	}
}
