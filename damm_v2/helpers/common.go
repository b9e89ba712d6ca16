package helpers

import (
	"fmt"
	stdmath "math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func BpsToFeeNumerator(bps uint16) *big.Int {
	fee := new(big.Int).Mul(big.NewInt(int64(bps)), big.NewInt(shared.FeeDenominator))
	return fee.Div(fee, big.NewInt(shared.BasisPointMax))
}

func FeeNumeratorToBps(feeNumerator *big.Int) uint16 {
	if feeNumerator == nil {
		return 0
	}
	val := new(big.Int).Mul(feeNumerator, big.NewInt(shared.BasisPointMax))
	val.Div(val, big.NewInt(shared.FeeDenominator))
	return uint16(val.Uint64())
}

// FeeNumeratorToPercent renders a numerator as a human percentage.
func FeeNumeratorToPercent(feeNumerator *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(feeNumerator, 0).
		Div(decimal.NewFromInt(shared.FeeDenominator)).
		Mul(decimal.NewFromInt(100))
}

func ConvertToLamports(amount decimal.Decimal, tokenDecimal uint8) *big.Int {
	valueInLamports := amount.Mul(decimal.New(1, int32(tokenDecimal)))
	return FromDecimalToBigInt(valueInLamports)
}

func FromDecimalToBigInt(value decimal.Decimal) *big.Int {
	return value.Floor().BigInt()
}

// getReductionFactor spreads the drop from start to end bps over numberOfPeriod.
// Linear returns the numerator removed per period, exponential the bps
// removed per period.
func getReductionFactor(startingBaseFeeBps, endingBaseFeeBps uint16, numberOfPeriod uint16, baseFeeMode shared.BaseFeeMode) (uint64, error) {
	if numberOfPeriod == 0 {
		return 0, fmt.Errorf("number of period must be > 0: %w", shared.ErrInvalidFeeConfiguration)
	}
	if endingBaseFeeBps > startingBaseFeeBps {
		return 0, fmt.Errorf("ending fee %d above starting fee %d: %w", endingBaseFeeBps, startingBaseFeeBps, shared.ErrInvalidFeeConfiguration)
	}
	if baseFeeMode.IsExponential() {
		ratio := float64(endingBaseFeeBps) / float64(startingBaseFeeBps)
		decayBase := stdmath.Pow(ratio, 1/float64(numberOfPeriod))
		return uint64((1 - decayBase) * shared.BasisPointMax), nil
	}
	delta := new(big.Int).Sub(BpsToFeeNumerator(startingBaseFeeBps), BpsToFeeNumerator(endingBaseFeeBps))
	delta.Div(delta, big.NewInt(int64(numberOfPeriod)))
	return delta.Uint64(), nil
}

// GetStaticFeeParams encodes a fixed fee as a time scheduler without periods.
func GetStaticFeeParams(baseFeeBps uint16) (BaseFeeParameters, error) {
	return EncodeFeeTimeSchedulerParams(BpsToFeeNumerator(baseFeeBps).Uint64(), 0, 0, 0, shared.BaseFeeModeFeeTimeSchedulerLinear)
}

func GetFeeTimeSchedulerParams(startingBaseFeeBps, endingBaseFeeBps uint16, baseFeeMode shared.BaseFeeMode, numberOfPeriod uint16, totalDuration uint64) (BaseFeeParameters, error) {
	if !baseFeeMode.IsTimeScheduler() {
		return BaseFeeParameters{}, fmt.Errorf("mode %s: %w", baseFeeMode, shared.ErrInvalidBaseFeeMode)
	}
	if startingBaseFeeBps == endingBaseFeeBps {
		if numberOfPeriod != 0 || totalDuration != 0 {
			return BaseFeeParameters{}, fmt.Errorf("numberOfPeriod and totalDuration must both be zero: %w", shared.ErrInvalidFeeConfiguration)
		}
		return GetStaticFeeParams(startingBaseFeeBps)
	}
	if totalDuration == 0 || numberOfPeriod == 0 {
		return BaseFeeParameters{}, fmt.Errorf("totalDuration and numberOfPeriod must be > 0: %w", shared.ErrInvalidFeeConfiguration)
	}
	reductionFactor, err := getReductionFactor(startingBaseFeeBps, endingBaseFeeBps, numberOfPeriod, baseFeeMode)
	if err != nil {
		return BaseFeeParameters{}, err
	}
	periodFrequency := totalDuration / uint64(numberOfPeriod)
	return EncodeFeeTimeSchedulerParams(BpsToFeeNumerator(startingBaseFeeBps).Uint64(), numberOfPeriod, periodFrequency, reductionFactor, baseFeeMode)
}

func GetFeeRateLimiterParams(baseFeeBps, feeIncrementBps uint16, maxFeeBps, maxLimiterDuration uint32, referenceAmount uint64) (BaseFeeParameters, error) {
	return EncodeFeeRateLimiterParams(BpsToFeeNumerator(baseFeeBps).Uint64(), feeIncrementBps, maxLimiterDuration, maxFeeBps, referenceAmount)
}

func GetFeeMarketCapSchedulerParams(startingBaseFeeBps, endingBaseFeeBps uint16, baseFeeMode shared.BaseFeeMode, numberOfPeriod uint16, sqrtPriceStepBps, schedulerExpirationDuration uint32) (BaseFeeParameters, error) {
	if !baseFeeMode.IsMarketCapScheduler() {
		return BaseFeeParameters{}, fmt.Errorf("mode %s: %w", baseFeeMode, shared.ErrInvalidBaseFeeMode)
	}
	if startingBaseFeeBps == endingBaseFeeBps {
		return GetStaticFeeParams(startingBaseFeeBps)
	}
	reductionFactor, err := getReductionFactor(startingBaseFeeBps, endingBaseFeeBps, numberOfPeriod, baseFeeMode)
	if err != nil {
		return BaseFeeParameters{}, err
	}
	return EncodeFeeMarketCapSchedulerParams(BpsToFeeNumerator(startingBaseFeeBps).Uint64(), numberOfPeriod, sqrtPriceStepBps, schedulerExpirationDuration, reductionFactor, baseFeeMode)
}

// BaseFeeConfig collects every knob of the four base fee families. Only the
// fields of the selected mode are read.
type BaseFeeConfig struct {
	Mode                        shared.BaseFeeMode
	StartingBaseFeeBps          uint16
	EndingBaseFeeBps            uint16
	NumberOfPeriod              uint16
	TotalDuration               uint64
	SqrtPriceStepBps            uint32
	SchedulerExpirationDuration uint32
	FeeIncrementBps             uint16
	MaxLimiterDuration          uint32
	MaxFeeBps                   uint32
	ReferenceAmount             uint64
}

func GetBaseFeeParams(cfg BaseFeeConfig) (BaseFeeParameters, error) {
	switch cfg.Mode {
	case shared.BaseFeeModeFeeTimeSchedulerLinear, shared.BaseFeeModeFeeTimeSchedulerExponential:
		return GetFeeTimeSchedulerParams(cfg.StartingBaseFeeBps, cfg.EndingBaseFeeBps, cfg.Mode, cfg.NumberOfPeriod, cfg.TotalDuration)
	case shared.BaseFeeModeRateLimiter:
		return GetFeeRateLimiterParams(cfg.StartingBaseFeeBps, cfg.FeeIncrementBps, cfg.MaxFeeBps, cfg.MaxLimiterDuration, cfg.ReferenceAmount)
	case shared.BaseFeeModeFeeMarketCapSchedulerLinear, shared.BaseFeeModeFeeMarketCapSchedulerExp:
		return GetFeeMarketCapSchedulerParams(cfg.StartingBaseFeeBps, cfg.EndingBaseFeeBps, cfg.Mode, cfg.NumberOfPeriod, cfg.SqrtPriceStepBps, cfg.SchedulerExpirationDuration)
	default:
		return BaseFeeParameters{}, fmt.Errorf("mode %d: %w", cfg.Mode, shared.ErrInvalidBaseFeeMode)
	}
}

// GetDynamicFeeParams sizes the volatility fee so that a move of
// maxPriceChangeBps adds at most 20% of the base fee.
func GetDynamicFeeParams(baseFeeBps uint16, maxPriceChangeBps uint16) (DynamicFeeParameters, error) {
	if maxPriceChangeBps == 0 {
		maxPriceChangeBps = shared.MaxPriceChangeBpsDefault
	}
	if maxPriceChangeBps > shared.MaxPriceChangeBpsDefault {
		return DynamicFeeParameters{}, fmt.Errorf("maxPriceChangeBps must be <= %d: %w", shared.MaxPriceChangeBpsDefault, shared.ErrInvalidFeeConfiguration)
	}

	priceRatio := new(big.Float).SetPrec(256).SetFloat64(float64(maxPriceChangeBps)/float64(shared.BasisPointMax) + 1)
	sqrtPriceRatio := new(big.Float).SetPrec(256).Sqrt(priceRatio)
	sqrtPriceRatio.Mul(sqrtPriceRatio, new(big.Float).SetInt(shared.OneQ64))
	sqrtPriceRatioQ64, _ := sqrtPriceRatio.Int(nil)

	deltaBinId := new(big.Int).Sub(sqrtPriceRatioQ64, shared.OneQ64)
	deltaBinId.Div(deltaBinId, shared.BinStepBpsU128Default)
	deltaBinId.Mul(deltaBinId, big.NewInt(2))

	maxVolatilityAccumulator := new(big.Int).Mul(deltaBinId, big.NewInt(shared.BasisPointMax))
	squareVfaBin := new(big.Int).Mul(maxVolatilityAccumulator, big.NewInt(shared.BinStepBpsDefault))
	squareVfaBin.Mul(squareVfaBin, squareVfaBin)
	if squareVfaBin.Sign() == 0 {
		return DynamicFeeParameters{}, fmt.Errorf("price change %d bps is below one bin: %w", maxPriceChangeBps, shared.ErrInvalidFeeConfiguration)
	}

	maxDynamicFeeNumerator := new(big.Int).Mul(BpsToFeeNumerator(baseFeeBps), big.NewInt(20))
	maxDynamicFeeNumerator.Div(maxDynamicFeeNumerator, big.NewInt(100))
	vFee := new(big.Int).Mul(maxDynamicFeeNumerator, shared.DynamicFeeScalingFactor)
	vFee.Sub(vFee, shared.DynamicFeeRoundingOffset)
	variableFeeControl := new(big.Int).Div(vFee, squareVfaBin)
	if variableFeeControl.Sign() < 0 {
		variableFeeControl.SetInt64(0)
	}

	return DynamicFeeParameters{
		BinStep:                  shared.BinStepBpsDefault,
		BinStepU128:              state.U128(shared.BinStepBpsU128Default),
		FilterPeriod:             shared.DynamicFeeFilterPeriodDefault,
		DecayPeriod:              shared.DynamicFeeDecayPeriodDefault,
		ReductionFactor:          shared.DynamicFeeReductionFactorDefault,
		MaxVolatilityAccumulator: uint32(maxVolatilityAccumulator.Uint64()),
		VariableFeeControl:       uint32(variableFeeControl.Uint64()),
	}, nil
}

// ValidateDynamicFeeParams checks the ranges the engine relies on.
func ValidateDynamicFeeParams(params DynamicFeeParameters) error {
	switch {
	case params.BinStep != shared.BinStepBpsDefault:
		return fmt.Errorf("bin step %d: %w", params.BinStep, shared.ErrInvalidFeeConfiguration)
	case params.BinStepU128.BigInt().Cmp(shared.BinStepBpsU128Default) != 0:
		return fmt.Errorf("bin step u128 %s: %w", params.BinStepU128.BigInt().String(), shared.ErrInvalidFeeConfiguration)
	case params.FilterPeriod >= params.DecayPeriod:
		return fmt.Errorf("filter period %d must be below decay period %d: %w", params.FilterPeriod, params.DecayPeriod, shared.ErrInvalidFeeConfiguration)
	case params.ReductionFactor > shared.BasisPointMax:
		return fmt.Errorf("reduction factor %d: %w", params.ReductionFactor, shared.ErrInvalidFeeConfiguration)
	}
	return nil
}

func ValidatePoolFeeBps(baseFeeBps uint16, maxFeeBps uint16, poolVersion shared.PoolVersion) error {
	if baseFeeBps < shared.MinFeeBps {
		return fmt.Errorf("base fee bps %d too low: %w", baseFeeBps, shared.ErrInvalidFeeConfiguration)
	}
	limit := uint16(shared.MaxFeeBpsV1)
	if poolVersion == shared.PoolVersionV0 {
		limit = shared.MaxFeeBpsV0
	}
	if maxFeeBps > limit {
		return fmt.Errorf("max fee bps %d above %d: %w", maxFeeBps, limit, shared.ErrInvalidFeeConfiguration)
	}
	return nil
}

// GetMaxAmountWithSlippage widens amount by ratePercent percent.
func GetMaxAmountWithSlippage(amount *big.Int, ratePercent decimal.Decimal) *big.Int {
	factor := decimal.NewFromInt(100).Add(ratePercent).Div(decimal.NewFromInt(100))
	return FromDecimalToBigInt(decimal.NewFromBigInt(amount, 0).Mul(factor))
}
