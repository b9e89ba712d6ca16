package helpers

import (
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// VestingEndPoint is cliffPoint + periodFrequency * numberOfPeriod.
func VestingEndPoint(vesting *state.InnerVesting) *big.Int {
	end := new(big.Int).Mul(state.U64(vesting.PeriodFrequency), big.NewInt(int64(vesting.NumberOfPeriod)))
	return end.Add(end, state.U64(vesting.CliffPoint))
}

func IsVestingComplete(vesting *state.InnerVesting, currentPoint *big.Int) bool {
	if vesting.IsPermanent() {
		return false
	}
	return currentPoint.Cmp(VestingEndPoint(vesting)) >= 0
}

// GetTotalLockedLiquidity is cliffUnlockLiquidity + liquidityPerPeriod * numberOfPeriod.
func GetTotalLockedLiquidity(vesting *state.InnerVesting) *big.Int {
	total := new(big.Int).Mul(vesting.LiquidityPerPeriod.BigInt(), big.NewInt(int64(vesting.NumberOfPeriod)))
	return total.Add(total, vesting.CliffUnlockLiquidity.BigInt())
}

// GetMaxUnlockedLiquidity is the amount released by currentPoint, counted
// from the start of the schedule.
func GetMaxUnlockedLiquidity(vesting *state.InnerVesting, currentPoint *big.Int) *big.Int {
	cliffPoint := state.U64(vesting.CliffPoint)
	if currentPoint.Cmp(cliffPoint) < 0 {
		return big.NewInt(0)
	}
	cliffUnlockLiquidity := vesting.CliffUnlockLiquidity.BigInt()
	if vesting.PeriodFrequency == 0 {
		return cliffUnlockLiquidity
	}
	passedPeriod := new(big.Int).Sub(currentPoint, cliffPoint)
	passedPeriod.Div(passedPeriod, state.U64(vesting.PeriodFrequency))
	if maxPeriods := big.NewInt(int64(vesting.NumberOfPeriod)); passedPeriod.Cmp(maxPeriods) > 0 {
		passedPeriod = maxPeriods
	}
	unlocked := passedPeriod.Mul(passedPeriod, vesting.LiquidityPerPeriod.BigInt())
	return unlocked.Add(unlocked, cliffUnlockLiquidity)
}

// GetAvailableVestingLiquidity is what a refresh at currentPoint would release.
func GetAvailableVestingLiquidity(vesting *state.InnerVesting, currentPoint *big.Int) *big.Int {
	available := GetMaxUnlockedLiquidity(vesting, currentPoint)
	available.Sub(available, vesting.TotalReleasedLiquidity.BigInt())
	if available.Sign() < 0 {
		return big.NewInt(0)
	}
	return available
}
