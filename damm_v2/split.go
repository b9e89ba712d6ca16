package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// SplitPosition2 moves a share of every bucket of first into second. Each
// share is floor(amount * numerator / SplitPositionDenominator); what the
// floor leaves behind stays on first.
func SplitPosition2(pool *state.Pool, first, second *state.Position, params SplitPositionParameters2, clock Clock) (SplitAmountInfo, error) {
	if first == second || first.NftMint.Equals(second.NftMint) {
		return SplitAmountInfo{}, shared.ErrSamePosition
	}
	if !first.Pool.Equals(second.Pool) {
		return SplitAmountInfo{}, shared.ErrPositionPoolMismatch
	}
	if err := params.Validate(); err != nil {
		return SplitAmountInfo{}, err
	}

	p, a, b := *pool, *first, *second
	currentPoint := clock.CurrentPoint(p.ActivationType)
	if _, err := RefreshVesting(&a, currentPoint); err != nil {
		return SplitAmountInfo{}, err
	}
	if _, err := RefreshVesting(&b, currentPoint); err != nil {
		return SplitAmountInfo{}, err
	}
	if err := updatePoolRewards(&p, clock.UnixTimestamp); err != nil {
		return SplitAmountInfo{}, err
	}
	if err := settlePosition(&p, &a); err != nil {
		return SplitAmountInfo{}, err
	}
	if err := settlePosition(&p, &b); err != nil {
		return SplitAmountInfo{}, err
	}

	info := SplitAmountInfo{
		UnlockedLiquidity:        mulDivFloor(a.UnlockedLiquidity.BigInt(), params.UnlockedLiquidityNumerator),
		PermanentLockedLiquidity: mulDivFloor(a.PermanentLockedLiquidity.BigInt(), params.PermanentLockedLiquidityNumerator),
		VestedLiquidity:          big.NewInt(0),
		FeeA:                     mulDivFloor(state.U64(a.FeeAPending), params.FeeANumerator).Uint64(),
		FeeB:                     mulDivFloor(state.U64(a.FeeBPending), params.FeeBNumerator).Uint64(),
	}
	rewardNumerators := [NumRewards]uint32{params.Reward0Numerator, params.Reward1Numerator}
	for i := range info.Rewards {
		info.Rewards[i] = mulDivFloor(state.U64(a.RewardInfos[i].RewardPendings), rewardNumerators[i]).Uint64()
	}

	if params.InnerVestingLiquidityNumerator > 0 && !a.InnerVesting.IsZero() {
		moved, err := splitVesting(&a, &b, params.InnerVestingLiquidityNumerator)
		if err != nil {
			return SplitAmountInfo{}, err
		}
		info.VestedLiquidity = moved
	}

	if err := moveSplitAmounts(&a, &b, info); err != nil {
		return SplitAmountInfo{}, err
	}

	*pool, *first, *second = p, a, b
	return info, nil
}

// SplitPosition accepts whole percentages.
func SplitPosition(pool *state.Pool, first, second *state.Position, params SplitPositionParameters, clock Clock) (SplitAmountInfo, error) {
	numerators, err := params.ToNumerators()
	if err != nil {
		return SplitAmountInfo{}, err
	}
	return SplitPosition2(pool, first, second, numerators, clock)
}

// MergePosition moves everything from source into destination, leaving
// source empty and ready to close.
func MergePosition(pool *state.Pool, source, destination *state.Position, clock Clock) (SplitAmountInfo, error) {
	return SplitPosition2(pool, source, destination, SplitPositionParameters2{
		UnlockedLiquidityNumerator:        SplitPositionDenominator,
		PermanentLockedLiquidityNumerator: SplitPositionDenominator,
		FeeANumerator:                     SplitPositionDenominator,
		FeeBNumerator:                     SplitPositionDenominator,
		Reward0Numerator:                  SplitPositionDenominator,
		Reward1Numerator:                  SplitPositionDenominator,
		InnerVestingLiquidityNumerator:    SplitPositionDenominator,
	}, clock)
}

// splitVesting carves a congruent schedule out of a's and installs it on b.
// Both schedules keep the cliff point, frequency and number of periods; the
// liquidity amounts and released total scale by numerator. It returns the
// vested liquidity that moved.
func splitVesting(a, b *state.Position, numerator uint32) (*big.Int, error) {
	if !b.InnerVesting.IsZero() {
		return nil, fmt.Errorf("destination already vesting: %w", shared.ErrInvalidVestingInfo)
	}
	source := a.InnerVesting
	vestedA := a.VestedLiquidity.BigInt()
	if remainingVestedLiquidity(&source).Cmp(vestedA) != 0 {
		return nil, fmt.Errorf("schedule does not match vested liquidity: %w", shared.ErrInvalidVestingInfo)
	}

	dest := state.InnerVesting{
		CliffPoint:           source.CliffPoint,
		PeriodFrequency:      source.PeriodFrequency,
		NumberOfPeriod:       source.NumberOfPeriod,
		CliffUnlockLiquidity: state.U128(mulDivFloor(source.CliffUnlockLiquidity.BigInt(), numerator)),
		LiquidityPerPeriod:   state.U128(mulDivFloor(source.LiquidityPerPeriod.BigInt(), numerator)),
	}
	totalB := helpers.GetTotalLockedLiquidity(&dest)
	releasedB := safe_math.MinBig(mulDivFloor(source.TotalReleasedLiquidity.BigInt(), numerator), totalB)
	moved := new(big.Int).Sub(totalB, releasedB)
	if moved.Cmp(vestedA) > 0 {
		releasedB = new(big.Int).Sub(totalB, vestedA)
		moved = new(big.Int).Set(vestedA)
	}
	dest.TotalReleasedLiquidity = state.U128(releasedB)

	var err error
	if source.CliffUnlockLiquidity, err = subU128(source.CliffUnlockLiquidity, dest.CliffUnlockLiquidity.BigInt()); err != nil {
		return nil, err
	}
	if source.LiquidityPerPeriod, err = subU128(source.LiquidityPerPeriod, dest.LiquidityPerPeriod.BigInt()); err != nil {
		return nil, err
	}
	if source.TotalReleasedLiquidity, err = subU128(source.TotalReleasedLiquidity, releasedB); err != nil {
		return nil, err
	}
	if vestingDone(&source) {
		source = state.InnerVesting{}
	}
	if vestingDone(&dest) {
		dest = state.InnerVesting{}
	}

	if a.VestedLiquidity, err = subU128(a.VestedLiquidity, moved); err != nil {
		return nil, err
	}
	if b.VestedLiquidity, err = addU128(b.VestedLiquidity, moved); err != nil {
		return nil, err
	}
	a.InnerVesting, b.InnerVesting = source, dest
	return moved, nil
}

func moveSplitAmounts(a, b *state.Position, info SplitAmountInfo) error {
	var err error
	if a.UnlockedLiquidity, err = subU128(a.UnlockedLiquidity, info.UnlockedLiquidity); err != nil {
		return err
	}
	if b.UnlockedLiquidity, err = addU128(b.UnlockedLiquidity, info.UnlockedLiquidity); err != nil {
		return err
	}
	if a.PermanentLockedLiquidity, err = subU128(a.PermanentLockedLiquidity, info.PermanentLockedLiquidity); err != nil {
		return err
	}
	if b.PermanentLockedLiquidity, err = addU128(b.PermanentLockedLiquidity, info.PermanentLockedLiquidity); err != nil {
		return err
	}
	if a.FeeAPending, err = subU64(a.FeeAPending, state.U64(info.FeeA)); err != nil {
		return err
	}
	if b.FeeAPending, err = addU64(b.FeeAPending, state.U64(info.FeeA)); err != nil {
		return err
	}
	if a.FeeBPending, err = subU64(a.FeeBPending, state.U64(info.FeeB)); err != nil {
		return err
	}
	if b.FeeBPending, err = addU64(b.FeeBPending, state.U64(info.FeeB)); err != nil {
		return err
	}
	for i, amount := range info.Rewards {
		if a.RewardInfos[i].RewardPendings, err = subU64(a.RewardInfos[i].RewardPendings, state.U64(amount)); err != nil {
			return err
		}
		if b.RewardInfos[i].RewardPendings, err = addU64(b.RewardInfos[i].RewardPendings, state.U64(amount)); err != nil {
			return err
		}
	}
	return nil
}
