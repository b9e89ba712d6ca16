package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// RefreshVesting releases what the inner vesting schedule has unlocked by
// currentPoint into unlocked liquidity and returns the released amount.
// A fully released schedule is reset to the zero value. Calling it again
// with the same currentPoint changes nothing.
func RefreshVesting(position *state.Position, currentPoint uint64) (*big.Int, error) {
	next := *position
	vesting := &next.InnerVesting
	if vesting.IsZero() || vesting.IsPermanent() {
		return big.NewInt(0), nil
	}

	released := helpers.GetAvailableVestingLiquidity(vesting, state.U64(currentPoint))
	if released.Sign() > 0 {
		var err error
		if next.VestedLiquidity, err = subU128(next.VestedLiquidity, released); err != nil {
			return nil, fmt.Errorf("release %s exceeds vested liquidity: %w", released.String(), shared.ErrInvalidVestingInfo)
		}
		if next.UnlockedLiquidity, err = addU128(next.UnlockedLiquidity, released); err != nil {
			return nil, err
		}
		if vesting.TotalReleasedLiquidity, err = addU128(vesting.TotalReleasedLiquidity, released); err != nil {
			return nil, err
		}
	}
	if vestingDone(vesting) {
		next.InnerVesting = state.InnerVesting{}
	}

	*position = next
	return released, nil
}

func vestingDone(vesting *state.InnerVesting) bool {
	return vesting.TotalReleasedLiquidity.BigInt().Cmp(helpers.GetTotalLockedLiquidity(vesting)) >= 0
}

// remainingVestedLiquidity is what the schedule has yet to release.
func remainingVestedLiquidity(vesting *state.InnerVesting) *big.Int {
	remaining := helpers.GetTotalLockedLiquidity(vesting)
	return remaining.Sub(remaining, vesting.TotalReleasedLiquidity.BigInt())
}

// LockPosition moves unlocked liquidity under a vesting schedule. The
// position must not already carry an unfinished schedule.
func LockPosition(pool *state.Pool, position *state.Position, params LockPositionParams, clock Clock) error {
	currentPoint := clock.CurrentPoint(pool.ActivationType)
	next := *position
	if _, err := RefreshVesting(&next, currentPoint); err != nil {
		return err
	}
	if !next.InnerVesting.IsZero() {
		return fmt.Errorf("position already has a vesting schedule: %w", shared.ErrInvalidVestingInfo)
	}
	cliffPoint, totalLock, err := params.Validate(currentPoint)
	if err != nil {
		return err
	}
	if totalLock.Cmp(next.UnlockedLiquidity.BigInt()) > 0 {
		return fmt.Errorf("lock %s exceeds unlocked liquidity: %w", totalLock.String(), shared.ErrInsufficientLiquidity)
	}

	if next.UnlockedLiquidity, err = subU128(next.UnlockedLiquidity, totalLock); err != nil {
		return err
	}
	if next.VestedLiquidity, err = addU128(next.VestedLiquidity, totalLock); err != nil {
		return err
	}
	next.InnerVesting = state.InnerVesting{
		CliffPoint:           cliffPoint,
		PeriodFrequency:      params.PeriodFrequency,
		CliffUnlockLiquidity: state.U128(bigOrZero(params.CliffUnlockLiquidity)),
		LiquidityPerPeriod:   state.U128(bigOrZero(params.LiquidityPerPeriod)),
		NumberOfPeriod:       params.NumberOfPeriod,
	}

	*position = next
	return nil
}

// PermanentLockPosition moves unlocked liquidity into the permanent bucket.
func PermanentLockPosition(pool *state.Pool, position *state.Position, amount *big.Int, clock Clock) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("permanent lock amount: %w", shared.ErrAmountIsZero)
	}
	p, next := *pool, *position
	if _, err := RefreshVesting(&next, clock.CurrentPoint(p.ActivationType)); err != nil {
		return err
	}
	if amount.Cmp(next.UnlockedLiquidity.BigInt()) > 0 {
		return fmt.Errorf("permanent lock %s exceeds unlocked liquidity: %w", amount.String(), shared.ErrInsufficientLiquidity)
	}

	var err error
	if next.UnlockedLiquidity, err = subU128(next.UnlockedLiquidity, amount); err != nil {
		return err
	}
	if next.PermanentLockedLiquidity, err = addU128(next.PermanentLockedLiquidity, amount); err != nil {
		return err
	}
	if p.PermanentLockLiquidity, err = addU128(p.PermanentLockLiquidity, amount); err != nil {
		return err
	}

	*pool, *position = p, next
	return nil
}

// PermanentUnlockPosition is the administrative reverse of PermanentLockPosition.
func PermanentUnlockPosition(pool *state.Pool, position *state.Position, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("permanent unlock amount: %w", shared.ErrAmountIsZero)
	}
	p, next := *pool, *position
	if amount.Cmp(next.PermanentLockedLiquidity.BigInt()) > 0 {
		return fmt.Errorf("permanent unlock %s exceeds permanently locked liquidity: %w", amount.String(), shared.ErrInsufficientLiquidity)
	}

	var err error
	if next.PermanentLockedLiquidity, err = subU128(next.PermanentLockedLiquidity, amount); err != nil {
		return err
	}
	if next.UnlockedLiquidity, err = addU128(next.UnlockedLiquidity, amount); err != nil {
		return err
	}
	if p.PermanentLockLiquidity, err = subU128(p.PermanentLockLiquidity, amount); err != nil {
		return err
	}

	*pool, *position = p, next
	return nil
}

// ReleasePermanentVesting is the administrative unlock of a vesting schedule
// whose cliff is PermanentCliffPoint. Refresh never releases such a schedule.
func ReleasePermanentVesting(position *state.Position) (*big.Int, error) {
	next := *position
	if !next.InnerVesting.IsPermanent() {
		return nil, fmt.Errorf("vesting schedule is not permanent: %w", shared.ErrInvalidVestingInfo)
	}
	released := remainingVestedLiquidity(&next.InnerVesting)
	var err error
	if next.VestedLiquidity, err = subU128(next.VestedLiquidity, released); err != nil {
		return nil, err
	}
	if next.UnlockedLiquidity, err = addU128(next.UnlockedLiquidity, released); err != nil {
		return nil, err
	}
	next.InnerVesting = state.InnerVesting{}

	*position = next
	return released, nil
}
