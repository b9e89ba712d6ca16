package helpers

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// TotalPositionLiquidity is unlocked + vested + permanently locked liquidity.
func TotalPositionLiquidity(position *state.Position) *big.Int {
	total := new(big.Int).Add(position.UnlockedLiquidity.BigInt(), position.VestedLiquidity.BigInt())
	return total.Add(total, position.PermanentLockedLiquidity.BigInt())
}

// PendingFeeDelta returns liquidity * (perLiquidity - checkpoint) >> 128.
func PendingFeeDelta(liquidity *big.Int, perLiquidity, checkpoint [32]uint8) *big.Int {
	delta := new(big.Int).Sub(state.U256(perLiquidity), state.U256(checkpoint))
	if delta.Sign() < 0 {
		return big.NewInt(0)
	}
	delta.Mul(delta, liquidity)
	return delta.Rsh(delta, shared.LiquidityScale)
}

// LastTimeRewardApplicable is min(currentTime, rewardDurationEnd).
func LastTimeRewardApplicable(poolReward *state.RewardInfo, currentTime uint64) uint64 {
	if currentTime < poolReward.RewardDurationEnd {
		return currentTime
	}
	return poolReward.RewardDurationEnd
}

// RewardPerTokenStored projects the pool accumulator to currentTime.
func RewardPerTokenStored(poolReward *state.RewardInfo, poolLiquidity *big.Int, currentTime uint64) *big.Int {
	stored := state.U256(poolReward.RewardPerTokenStored)
	if poolLiquidity.Sign() == 0 {
		return stored
	}
	lastTime := LastTimeRewardApplicable(poolReward, currentTime)
	if lastTime <= poolReward.LastUpdateTime {
		return stored
	}
	timePeriod := new(big.Int).SetUint64(lastTime - poolReward.LastUpdateTime)
	currentTotalReward := timePeriod.Mul(timePeriod, poolReward.RewardRate.BigInt())
	rewardPerTokenStore := currentTotalReward.Lsh(currentTotalReward, shared.LiquidityScale)
	rewardPerTokenStore.Div(rewardPerTokenStore, poolLiquidity)
	return stored.Add(stored, rewardPerTokenStore)
}

// RewardPendingDelta returns liquidity * (stored - checkpoint) >> 192.
func RewardPendingDelta(liquidity, rewardPerTokenStored *big.Int, checkpoint [32]uint8) *big.Int {
	delta := new(big.Int).Sub(rewardPerTokenStored, state.U256(checkpoint))
	if delta.Sign() < 0 {
		return big.NewInt(0)
	}
	delta.Mul(delta, liquidity)
	return delta.Rsh(delta, RewardPerTokenShift)
}

// GetRewardInfo reports, for the next periodTime seconds, what the reward
// emits, what remains unemitted and what has been emitted so far.
func GetRewardInfo(pool *state.Pool, rewardIndex int, periodTime, currentTime uint64) (rewardPerPeriod, rewardBalance, totalRewardDistributed *big.Int, err error) {
	if rewardIndex < 0 || rewardIndex >= len(pool.RewardInfos) {
		return nil, nil, nil, fmt.Errorf("index %d: %w", rewardIndex, shared.ErrInvalidRewardIndex)
	}
	poolReward := &pool.RewardInfos[rewardIndex]
	poolLiquidity := pool.Liquidity.BigInt()

	rewardPerTokenStore := RewardPerTokenStored(poolReward, poolLiquidity, currentTime)
	totalRewardDistributed = new(big.Int).Mul(rewardPerTokenStore, poolLiquidity)
	totalRewardDistributed.Rsh(totalRewardDistributed, RewardPerTokenShift)

	if poolReward.RewardDurationEnd <= currentTime {
		return big.NewInt(0), big.NewInt(0), totalRewardDistributed, nil
	}

	rewardPerPeriod = getRewardPerPeriod(poolReward, currentTime, periodTime)
	rewardBalance = new(big.Int).Mul(poolReward.RewardRate.BigInt(), state.U64(poolReward.RewardDurationEnd-currentTime))
	rewardBalance.Rsh(rewardBalance, shared.RewardRateScale)
	return rewardPerPeriod.Rsh(rewardPerPeriod, shared.RewardRateScale), rewardBalance, totalRewardDistributed, nil
}

// GetUserRewardPending projects a position's share of the next periodTime
// seconds of emissions and its claimable reward at currentTime.
func GetUserRewardPending(pool *state.Pool, position *state.Position, rewardIndex int, currentTime, periodTime uint64) (userRewardPerPeriod, userPendingReward *big.Int, err error) {
	if rewardIndex < 0 || rewardIndex >= len(pool.RewardInfos) {
		return nil, nil, fmt.Errorf("index %d: %w", rewardIndex, shared.ErrInvalidRewardIndex)
	}
	poolLiquidity := pool.Liquidity.BigInt()
	poolReward := &pool.RewardInfos[rewardIndex]
	userRewardInfo := position.RewardInfos[rewardIndex]
	totalPositionLiquidity := TotalPositionLiquidity(position)

	rewardPerTokenStore := RewardPerTokenStored(poolReward, poolLiquidity, currentTime)
	newReward := RewardPendingDelta(totalPositionLiquidity, rewardPerTokenStore, userRewardInfo.RewardPerTokenCheckpoint)
	pending := newReward.Add(newReward, state.U64(userRewardInfo.RewardPendings))

	if poolReward.RewardDurationEnd <= currentTime || poolLiquidity.Sign() == 0 {
		return big.NewInt(0), pending, nil
	}

	rewardPerPeriod := getRewardPerPeriod(poolReward, currentTime, periodTime)
	rewardPerTokenStorePerPeriod := new(big.Int).Lsh(rewardPerPeriod, shared.LiquidityScale)
	rewardPerTokenStorePerPeriod.Div(rewardPerTokenStorePerPeriod, poolLiquidity)
	userRewardPerPeriod = new(big.Int).Mul(totalPositionLiquidity, rewardPerTokenStorePerPeriod)
	userRewardPerPeriod.Rsh(userRewardPerPeriod, RewardPerTokenShift)
	return userRewardPerPeriod, pending, nil
}

func getRewardPerPeriod(poolReward *state.RewardInfo, currentTime, periodTime uint64) *big.Int {
	period := periodTime
	if currentTime+periodTime > poolReward.RewardDurationEnd {
		period = poolReward.RewardDurationEnd - currentTime
	}
	return new(big.Int).Mul(poolReward.RewardRate.BigInt(), state.U64(period))
}
