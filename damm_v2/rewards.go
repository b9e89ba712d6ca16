package dammv2

import (
	"fmt"
	"math/big"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// InitializeReward opens a reward slot. It emits nothing until funded.
func InitializeReward(pool *state.Pool, params InitializeRewardParams) error {
	if err := validateRewardIndex(params.RewardIndex); err != nil {
		return err
	}
	if err := validateRewardDuration(params.RewardDuration); err != nil {
		return err
	}
	if params.Mint.IsZero() {
		return fmt.Errorf("reward mint: %w", shared.ErrInvalidParameters)
	}
	reward := &pool.RewardInfos[params.RewardIndex]
	if reward.IsInitialized() {
		return fmt.Errorf("reward %d: %w", params.RewardIndex, shared.ErrRewardInitialized)
	}

	*reward = state.RewardInfo{
		Initialized:    1,
		Mint:           params.Mint,
		Vault:          DeriveRewardVaultAddress(params.Pool, params.RewardIndex),
		Funder:         params.Funder,
		RewardDuration: params.RewardDuration,
	}
	return nil
}

func initializedReward(pool *state.Pool, rewardIndex uint8) (*state.RewardInfo, error) {
	if err := validateRewardIndex(rewardIndex); err != nil {
		return nil, err
	}
	reward := &pool.RewardInfos[rewardIndex]
	if !reward.IsInitialized() {
		return nil, fmt.Errorf("reward %d: %w", rewardIndex, shared.ErrRewardUninitialized)
	}
	return reward, nil
}

// ineligibleReward is what accrued while the pool held no liquidity.
func ineligibleReward(reward *state.RewardInfo) *big.Int {
	amount := new(big.Int).Mul(state.U64(reward.CumulativeSecondsWithEmptyLiquidityReward), reward.RewardRate.BigInt())
	return amount.Rsh(amount, shared.RewardRateScale)
}

// FundReward adds Amount to a reward slot and restarts its emission window
// at the current time. Undistributed rewards of a running window roll into
// the new rate. It returns the amount the funder deposits.
func FundReward(pool *state.Pool, params FundRewardParams, clock Clock) (uint64, error) {
	p := *pool
	reward, err := initializedReward(&p, params.RewardIndex)
	if err != nil {
		return 0, err
	}
	currentTime := clock.UnixTimestamp
	if err := updatePoolRewards(&p, currentTime); err != nil {
		return 0, err
	}

	total := state.U64(params.Amount)
	if params.CarryForward {
		total.Add(total, ineligibleReward(reward))
		reward.CumulativeSecondsWithEmptyLiquidityReward = 0
	}
	if currentTime < reward.RewardDurationEnd {
		leftover := new(big.Int).Mul(reward.RewardRate.BigInt(), state.U64(reward.RewardDurationEnd-currentTime))
		total.Add(total, leftover.Rsh(leftover, shared.RewardRateScale))
	}
	if total.Sign() == 0 {
		return 0, fmt.Errorf("reward funding: %w", shared.ErrAmountIsZero)
	}
	if !fitsU64(total) {
		return 0, fmt.Errorf("reward funding: %w", shared.ErrArithmeticOverflow)
	}

	rate := new(big.Int).Lsh(total, shared.RewardRateScale)
	rate.Div(rate, state.U64(reward.RewardDuration))
	if !fitsU128(rate) {
		return 0, fmt.Errorf("reward rate: %w", shared.ErrArithmeticOverflow)
	}
	end, err := addU64(currentTime, state.U64(reward.RewardDuration))
	if err != nil {
		return 0, err
	}
	reward.RewardRate = state.U128(rate)
	reward.LastUpdateTime = currentTime
	reward.RewardDurationEnd = end

	*pool = p
	return params.Amount, nil
}

// UpdateRewardDuration changes the emission window of a finished reward.
func UpdateRewardDuration(pool *state.Pool, rewardIndex uint8, newDuration uint64, clock Clock) error {
	p := *pool
	reward, err := initializedReward(&p, rewardIndex)
	if err != nil {
		return err
	}
	if err := validateRewardDuration(newDuration); err != nil {
		return err
	}
	if newDuration == reward.RewardDuration {
		return fmt.Errorf("reward duration unchanged: %w", shared.ErrInvalidRewardDuration)
	}
	if clock.UnixTimestamp < reward.RewardDurationEnd {
		return fmt.Errorf("reward %d ends at %d: %w", rewardIndex, reward.RewardDurationEnd, shared.ErrRewardNotEnded)
	}
	if err := updatePoolRewards(&p, clock.UnixTimestamp); err != nil {
		return err
	}
	reward.RewardDuration = newDuration

	*pool = p
	return nil
}

func UpdateRewardFunder(pool *state.Pool, rewardIndex uint8, newFunder solanago.PublicKey) error {
	reward, err := initializedReward(pool, rewardIndex)
	if err != nil {
		return err
	}
	if reward.Funder.Equals(newFunder) {
		return fmt.Errorf("reward funder unchanged: %w", shared.ErrInvalidParameters)
	}
	reward.Funder = newFunder
	return nil
}

// ClaimReward pays out a position's pending reward for one slot.
func ClaimReward(pool *state.Pool, position *state.Position, rewardIndex uint8, clock Clock) (uint64, error) {
	p, pos := *pool, *position
	if _, err := initializedReward(&p, rewardIndex); err != nil {
		return 0, err
	}
	if err := accrue(&p, &pos, clock); err != nil {
		return 0, err
	}

	userReward := &pos.RewardInfos[rewardIndex]
	amount := userReward.RewardPendings
	claimed, err := addU64(userReward.TotalClaimedRewards, state.U64(amount))
	if err != nil {
		return 0, err
	}
	userReward.RewardPendings = 0
	userReward.TotalClaimedRewards = claimed

	*pool, *position = p, pos
	return amount, nil
}

// ClaimIneligibleReward returns to the funder what was emitted while the
// pool was empty. The emission window must be over.
func ClaimIneligibleReward(pool *state.Pool, rewardIndex uint8, clock Clock) (uint64, error) {
	p := *pool
	reward, err := initializedReward(&p, rewardIndex)
	if err != nil {
		return 0, err
	}
	if clock.UnixTimestamp < reward.RewardDurationEnd {
		return 0, fmt.Errorf("reward %d ends at %d: %w", rewardIndex, reward.RewardDurationEnd, shared.ErrRewardNotEnded)
	}
	if err := updatePoolRewards(&p, clock.UnixTimestamp); err != nil {
		return 0, err
	}
	amount := ineligibleReward(reward)
	if !fitsU64(amount) {
		return 0, fmt.Errorf("ineligible reward: %w", shared.ErrArithmeticOverflow)
	}
	reward.CumulativeSecondsWithEmptyLiquidityReward = 0

	*pool = p
	return amount.Uint64(), nil
}
