package state

import (
	"math"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// PermanentCliffPoint marks a vesting schedule that never releases on its own.
const PermanentCliffPoint = math.MaxUint64

type UserRewardInfo struct {
	RewardPerTokenCheckpoint [32]uint8
	RewardPendings           uint64
	TotalClaimedRewards      uint64
}

type PositionMetrics struct {
	TotalClaimedAFee uint64
	TotalClaimedBFee uint64
}

// InnerVesting is the lock schedule embedded in a position.
type InnerVesting struct {
	CliffPoint             uint64
	PeriodFrequency        uint64
	CliffUnlockLiquidity   binary.Uint128
	LiquidityPerPeriod     binary.Uint128
	TotalReleasedLiquidity binary.Uint128
	NumberOfPeriod         uint16
	Padding                [14]uint8
}

type Position struct {
	Pool                     solanago.PublicKey
	NftMint                  solanago.PublicKey
	Owner                    solanago.PublicKey
	FeeAPerTokenCheckpoint   [32]uint8
	FeeBPerTokenCheckpoint   [32]uint8
	FeeAPending              uint64
	FeeBPending              uint64
	UnlockedLiquidity        binary.Uint128
	VestedLiquidity          binary.Uint128
	PermanentLockedLiquidity binary.Uint128
	Metrics                  PositionMetrics
	RewardInfos              [2]UserRewardInfo
	InnerVesting             InnerVesting
	Padding                  [6]binary.Uint128
}

// IsZero reports whether the schedule is in its canonical released state.
func (v *InnerVesting) IsZero() bool {
	return v.CliffPoint == 0 &&
		v.PeriodFrequency == 0 &&
		v.NumberOfPeriod == 0 &&
		IsZeroU128(v.CliffUnlockLiquidity) &&
		IsZeroU128(v.LiquidityPerPeriod) &&
		IsZeroU128(v.TotalReleasedLiquidity)
}

func (v *InnerVesting) IsPermanent() bool {
	return v.CliffPoint == PermanentCliffPoint && v.NumberOfPeriod == 0
}
