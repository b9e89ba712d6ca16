package pool_fees

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func IsDynamicFeeEnabled(dynamicFee state.DynamicFeeStruct) bool {
	return dynamicFee.Initialized != 0
}

// GetDynamicFeeNumerator returns ceil((volatilityAccumulator * binStep)^2 * variableFeeControl / 1e11).
func GetDynamicFeeNumerator(volatilityAccumulator, binStep, variableFeeControl *big.Int) *big.Int {
	squareVfaBin := new(big.Int).Mul(volatilityAccumulator, binStep)
	squareVfaBin.Mul(squareVfaBin, squareVfaBin)
	vFee := new(big.Int).Mul(variableFeeControl, squareVfaBin)
	vFee.Add(vFee, shared.DynamicFeeRoundingOffset)
	return vFee.Div(vFee, shared.DynamicFeeScalingFactor)
}

// DynamicFeeNumerator is the surcharge of the current accumulator, zero when disabled.
func DynamicFeeNumerator(dynamicFee state.DynamicFeeStruct) *big.Int {
	if !IsDynamicFeeEnabled(dynamicFee) {
		return big.NewInt(0)
	}
	return GetDynamicFeeNumerator(
		dynamicFee.VolatilityAccumulator.BigInt(),
		big.NewInt(int64(dynamicFee.BinStep)),
		big.NewInt(int64(dynamicFee.VariableFeeControl)),
	)
}

// GetDeltaBinId counts bins of binStepU128 between two sqrt prices, doubled
// because a sqrt price step covers half a price bin.
func GetDeltaBinId(binStepU128, sqrtPriceA, sqrtPriceB *big.Int) (*big.Int, error) {
	upper, lower := sqrtPriceA, sqrtPriceB
	if upper.Cmp(lower) < 0 {
		upper, lower = lower, upper
	}
	if lower.Sign() == 0 || binStepU128.Sign() == 0 {
		return nil, fmt.Errorf("delta bin id on zero price or bin step: %w", shared.ErrArithmeticOverflow)
	}
	priceRatio := new(big.Int).Lsh(upper, shared.ScaleOffset)
	priceRatio.Div(priceRatio, lower)
	delta := priceRatio.Sub(priceRatio, shared.OneQ64)
	delta.Div(delta, binStepU128)
	return delta.Mul(delta, two), nil
}

// UpdateReferences runs before a swap. Once filterPeriod has passed since the
// last bin crossing the reference price moves to the current price and the
// volatility reference decays, or resets after decayPeriod.
func UpdateReferences(dynamicFee *state.DynamicFeeStruct, sqrtPriceCurrent *big.Int, currentTimestamp uint64) error {
	if currentTimestamp < dynamicFee.LastUpdateTimestamp {
		return fmt.Errorf("timestamp %d before last update %d: %w", currentTimestamp, dynamicFee.LastUpdateTimestamp, shared.ErrArithmeticOverflow)
	}
	if state.IsZeroU128(dynamicFee.SqrtPriceReference) {
		dynamicFee.SqrtPriceReference = state.U128(sqrtPriceCurrent)
	}
	elapsed := currentTimestamp - dynamicFee.LastUpdateTimestamp
	if elapsed < uint64(dynamicFee.FilterPeriod) {
		return nil
	}
	dynamicFee.SqrtPriceReference = state.U128(sqrtPriceCurrent)
	if elapsed < uint64(dynamicFee.DecayPeriod) {
		reference := new(big.Int).Mul(dynamicFee.VolatilityAccumulator.BigInt(), big.NewInt(int64(dynamicFee.ReductionFactor)))
		reference.Div(reference, basisPointMax)
		dynamicFee.VolatilityReference = state.U128(reference)
	} else {
		dynamicFee.VolatilityReference = state.U128(big.NewInt(0))
	}
	return nil
}

// UpdateVolatilityAccumulator sets the accumulator from the distance between
// sqrtPrice and the reference price, capped at MaxVolatilityAccumulator.
func UpdateVolatilityAccumulator(dynamicFee *state.DynamicFeeStruct, sqrtPrice *big.Int) error {
	deltaPrice, err := GetDeltaBinId(dynamicFee.BinStepU128.BigInt(), sqrtPrice, dynamicFee.SqrtPriceReference.BigInt())
	if err != nil {
		return err
	}
	accumulator := new(big.Int).Mul(deltaPrice, basisPointMax)
	accumulator.Add(accumulator, dynamicFee.VolatilityReference.BigInt())
	if limit := big.NewInt(int64(dynamicFee.MaxVolatilityAccumulator)); accumulator.Cmp(limit) > 0 {
		accumulator = limit
	}
	dynamicFee.VolatilityAccumulator = state.U128(accumulator)
	return nil
}
