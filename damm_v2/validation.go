package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// ValidatePoolFees checks the fee configuration of a new pool.
func ValidatePoolFees(params PoolFeeParameters, collectFeeMode CollectFeeMode, activationType ActivationType, poolVersion PoolVersion) error {
	handler, err := pool_fees.GetBaseFeeHandlerFromParams(params.BaseFee)
	if err != nil {
		return err
	}
	if err := handler.Validate(collectFeeMode, activationType, poolVersion); err != nil {
		return err
	}
	switch {
	case params.ProtocolFeePercent > shared.MaxProtocolFeePercent:
		return fmt.Errorf("protocol fee percent %d: %w", params.ProtocolFeePercent, shared.ErrInvalidFeeConfiguration)
	case params.PartnerFeePercent > shared.MaxPartnerFeePercent:
		return fmt.Errorf("partner fee percent %d: %w", params.PartnerFeePercent, shared.ErrInvalidFeeConfiguration)
	case params.ReferralFeePercent > shared.MaxReferralFeePercent:
		return fmt.Errorf("referral fee percent %d: %w", params.ReferralFeePercent, shared.ErrInvalidFeeConfiguration)
	}
	if params.DynamicFee != nil {
		return helpers.ValidateDynamicFeeParams(*params.DynamicFee)
	}
	return nil
}

func ValidateCollectFeeMode(mode CollectFeeMode) error {
	if mode > CollectFeeModeOnlyB {
		return fmt.Errorf("collect fee mode %d: %w", mode, shared.ErrInvalidParameters)
	}
	return nil
}

func ValidateActivationType(activationType ActivationType) error {
	if activationType > ActivationTypeTimestamp {
		return fmt.Errorf("activation type %d: %w", activationType, shared.ErrInvalidParameters)
	}
	return nil
}

// Validate resolves the cliff point and checks the schedule against currentPoint.
func (p LockPositionParams) Validate(currentPoint uint64) (cliffPoint uint64, totalLock *big.Int, err error) {
	cliffPoint = currentPoint
	if p.CliffPoint != nil {
		cliffPoint = *p.CliffPoint
	}
	if cliffPoint < currentPoint {
		return 0, nil, fmt.Errorf("cliff point %d before current point %d: %w", cliffPoint, currentPoint, shared.ErrInvalidVestingInfo)
	}
	if p.NumberOfPeriod > 0 && p.PeriodFrequency == 0 {
		return 0, nil, fmt.Errorf("periods without frequency: %w", shared.ErrInvalidVestingInfo)
	}
	span := new(big.Int).Mul(state.U64(p.PeriodFrequency), big.NewInt(int64(p.NumberOfPeriod)))
	if span.Add(span, state.U64(cliffPoint)).Cmp(shared.U64Max) > 0 {
		return 0, nil, fmt.Errorf("vesting end point overflows: %w", shared.ErrInvalidVestingInfo)
	}

	cliffUnlock, perPeriod := bigOrZero(p.CliffUnlockLiquidity), bigOrZero(p.LiquidityPerPeriod)
	if !fitsU128(cliffUnlock) || !fitsU128(perPeriod) {
		return 0, nil, fmt.Errorf("lock amount: %w", shared.ErrArithmeticOverflow)
	}
	totalLock = helpers.GetTotalLockedLiquidity(&state.InnerVesting{
		CliffUnlockLiquidity: state.U128(cliffUnlock),
		LiquidityPerPeriod:   state.U128(perPeriod),
		NumberOfPeriod:       p.NumberOfPeriod,
	})
	if !fitsU128(totalLock) {
		return 0, nil, fmt.Errorf("total lock amount: %w", shared.ErrArithmeticOverflow)
	}
	if totalLock.Sign() == 0 {
		return 0, nil, fmt.Errorf("nothing to lock: %w", shared.ErrInvalidVestingInfo)
	}
	return cliffPoint, totalLock, nil
}

// Validate rejects numerators above the denominator and the all zero split.
func (p SplitPositionParameters2) Validate() error {
	numerators := []uint32{
		p.UnlockedLiquidityNumerator,
		p.PermanentLockedLiquidityNumerator,
		p.FeeANumerator,
		p.FeeBNumerator,
		p.Reward0Numerator,
		p.Reward1Numerator,
		p.InnerVestingLiquidityNumerator,
	}
	nonZero := false
	for _, n := range numerators {
		if n > SplitPositionDenominator {
			return fmt.Errorf("numerator %d: %w", n, shared.ErrInvalidSplitPositionParameters)
		}
		nonZero = nonZero || n > 0
	}
	if !nonZero {
		return fmt.Errorf("all numerators are zero: %w", shared.ErrInvalidSplitPositionParameters)
	}
	return nil
}

// ToNumerators converts whole percentages into SplitPositionParameters2.
func (p SplitPositionParameters) ToNumerators() (SplitPositionParameters2, error) {
	percentages := []uint8{
		p.UnlockedLiquidityPercentage,
		p.PermanentLockedLiquidityPercentage,
		p.FeeAPercentage,
		p.FeeBPercentage,
		p.Reward0Percentage,
		p.Reward1Percentage,
		p.InnerVestingLiquidityPercentage,
	}
	for _, v := range percentages {
		if v > splitPercentMax {
			return SplitPositionParameters2{}, fmt.Errorf("percentage %d: %w", v, shared.ErrInvalidSplitPositionParameters)
		}
	}
	scale := func(v uint8) uint32 {
		return uint32(v) * (SplitPositionDenominator / splitPercentMax)
	}
	return SplitPositionParameters2{
		UnlockedLiquidityNumerator:        scale(p.UnlockedLiquidityPercentage),
		PermanentLockedLiquidityNumerator: scale(p.PermanentLockedLiquidityPercentage),
		FeeANumerator:                     scale(p.FeeAPercentage),
		FeeBNumerator:                     scale(p.FeeBPercentage),
		Reward0Numerator:                  scale(p.Reward0Percentage),
		Reward1Numerator:                  scale(p.Reward1Percentage),
		InnerVestingLiquidityNumerator:    scale(p.InnerVestingLiquidityPercentage),
	}, nil
}

func validateRewardIndex(rewardIndex uint8) error {
	if int(rewardIndex) >= NumRewards {
		return fmt.Errorf("index %d: %w", rewardIndex, shared.ErrInvalidRewardIndex)
	}
	return nil
}

func validateRewardDuration(duration uint64) error {
	if duration < MinRewardDuration || duration > MaxRewardDuration {
		return fmt.Errorf("duration %d outside [%d, %d]: %w", duration, MinRewardDuration, MaxRewardDuration, shared.ErrInvalidRewardDuration)
	}
	return nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func fitsU128(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(shared.U128Max) <= 0
}

func fitsU64(v *big.Int) bool {
	return v.Sign() >= 0 && v.IsUint64()
}
