package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// updatePositionFee moves LP fees accrued since the last checkpoint into pending.
func updatePositionFee(pool *state.Pool, position *state.Position) error {
	liquidity := helpers.TotalPositionLiquidity(position)
	if liquidity.Sign() > 0 {
		feeA := helpers.PendingFeeDelta(liquidity, pool.FeeAPerLiquidity, position.FeeAPerTokenCheckpoint)
		feeB := helpers.PendingFeeDelta(liquidity, pool.FeeBPerLiquidity, position.FeeBPerTokenCheckpoint)
		pendingA, err := addU64(position.FeeAPending, feeA)
		if err != nil {
			return err
		}
		pendingB, err := addU64(position.FeeBPending, feeB)
		if err != nil {
			return err
		}
		position.FeeAPending, position.FeeBPending = pendingA, pendingB
	}
	position.FeeAPerTokenCheckpoint = pool.FeeAPerLiquidity
	position.FeeBPerTokenCheckpoint = pool.FeeBPerLiquidity
	return nil
}

// updatePoolRewards advances every initialized reward to currentTime.
func updatePoolRewards(pool *state.Pool, currentTime uint64) error {
	liquidity := pool.Liquidity.BigInt()
	for i := range pool.RewardInfos {
		if err := updateRewardInfo(&pool.RewardInfos[i], liquidity, currentTime); err != nil {
			return fmt.Errorf("reward %d: %w", i, err)
		}
	}
	return nil
}

// updateRewardInfo accrues rewardPerTokenStored, or counts the seconds the
// pool was empty so the funder can withdraw what nobody earned.
func updateRewardInfo(reward *state.RewardInfo, liquidity *big.Int, currentTime uint64) error {
	if !reward.IsInitialized() {
		return nil
	}
	lastTime := helpers.LastTimeRewardApplicable(reward, currentTime)
	if lastTime < reward.LastUpdateTime {
		return fmt.Errorf("time %d before last update %d: %w", lastTime, reward.LastUpdateTime, shared.ErrArithmeticOverflow)
	}
	if liquidity.Sign() > 0 {
		stored := helpers.RewardPerTokenStored(reward, liquidity, currentTime)
		if stored.Cmp(shared.U256Max) > 0 {
			return fmt.Errorf("reward per token stored: %w", shared.ErrArithmeticOverflow)
		}
		reward.RewardPerTokenStored = state.PutU256(stored)
	} else {
		seconds, err := addU64(reward.CumulativeSecondsWithEmptyLiquidityReward, state.U64(lastTime-reward.LastUpdateTime))
		if err != nil {
			return err
		}
		reward.CumulativeSecondsWithEmptyLiquidityReward = seconds
	}
	reward.LastUpdateTime = lastTime
	return nil
}

// updatePositionRewards settles pending rewards against the pool accumulators.
// The pool must already be updated to the current time.
func updatePositionRewards(pool *state.Pool, position *state.Position) error {
	liquidity := helpers.TotalPositionLiquidity(position)
	for i := range pool.RewardInfos {
		if !pool.RewardInfos[i].IsInitialized() {
			continue
		}
		userReward := &position.RewardInfos[i]
		stored := state.U256(pool.RewardInfos[i].RewardPerTokenStored)
		delta := helpers.RewardPendingDelta(liquidity, stored, userReward.RewardPerTokenCheckpoint)
		pending, err := addU64(userReward.RewardPendings, delta)
		if err != nil {
			return err
		}
		userReward.RewardPendings = pending
		userReward.RewardPerTokenCheckpoint = pool.RewardInfos[i].RewardPerTokenStored
	}
	return nil
}

// settlePosition brings a position's fees and rewards up to the pool's accumulators.
func settlePosition(pool *state.Pool, position *state.Position) error {
	if err := updatePositionFee(pool, position); err != nil {
		return err
	}
	return updatePositionRewards(pool, position)
}

// GetPendingFees reports what a position could claim at currentTime,
// without mutating either record.
func GetPendingFees(pool *state.Pool, position *state.Position, currentTime uint64) (helpers.PendingFees, error) {
	p, pos := *pool, *position
	if err := updatePoolRewards(&p, currentTime); err != nil {
		return helpers.PendingFees{}, err
	}
	if err := settlePosition(&p, &pos); err != nil {
		return helpers.PendingFees{}, err
	}
	out := helpers.PendingFees{FeeA: pos.FeeAPending, FeeB: pos.FeeBPending}
	for i := range pos.RewardInfos {
		out.Rewards[i] = pos.RewardInfos[i].RewardPendings
	}
	return out, nil
}
