package pool_fees

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// StaticFee implements BaseFeeHandler. It is stored as a time scheduler
// with every period field zero.
type StaticFee struct {
	CliffFeeNumerator *big.Int
	BaseFeeMode       shared.BaseFeeMode
}

func (f StaticFee) Mode() shared.BaseFeeMode {
	return f.BaseFeeMode
}

func (f StaticFee) Validate(_ shared.CollectFeeMode, _ shared.ActivationType, poolVersion shared.PoolVersion) error {
	return ValidateStaticFee(f.CliffFeeNumerator, poolVersion)
}

func (f StaticFee) GetBaseFeeNumeratorFromIncludedFeeAmount(_ shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

func (f StaticFee) GetBaseFeeNumeratorFromExcludedFeeAmount(_ shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

func (f StaticFee) ValidateBaseFeeIsStatic(_, _ *big.Int) bool {
	return true
}

func (f StaticFee) GetMinFeeNumerator() (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

func (f StaticFee) GetMaxFeeNumerator() (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

// FeeRateLimiter implements BaseFeeHandler.
type FeeRateLimiter struct {
	CliffFeeNumerator  *big.Int
	FeeIncrementBps    uint16
	MaxFeeBps          uint32
	MaxLimiterDuration uint32
	ReferenceAmount    *big.Int
}

func (f FeeRateLimiter) Mode() shared.BaseFeeMode {
	return shared.BaseFeeModeRateLimiter
}

func (f FeeRateLimiter) Validate(collectFeeMode shared.CollectFeeMode, activationType shared.ActivationType, poolVersion shared.PoolVersion) error {
	return ValidateFeeRateLimiter(f.CliffFeeNumerator, f.FeeIncrementBps, f.MaxFeeBps, f.MaxLimiterDuration, f.ReferenceAmount, collectFeeMode, activationType, poolVersion)
}

func (f FeeRateLimiter) applied(ctx shared.FeeContext) bool {
	return IsRateLimiterApplied(f.ReferenceAmount, f.MaxLimiterDuration, f.MaxFeeBps, f.FeeIncrementBps, ctx.CurrentPoint, ctx.ActivationPoint, ctx.TradeDirection)
}

func (f FeeRateLimiter) GetBaseFeeNumeratorFromIncludedFeeAmount(ctx shared.FeeContext, includedFeeAmount *big.Int) (*big.Int, error) {
	if f.applied(ctx) {
		return GetFeeNumeratorFromIncludedFeeAmount(includedFeeAmount, f.ReferenceAmount, f.CliffFeeNumerator, f.MaxFeeBps, f.FeeIncrementBps)
	}
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

func (f FeeRateLimiter) GetBaseFeeNumeratorFromExcludedFeeAmount(ctx shared.FeeContext, excludedFeeAmount *big.Int) (*big.Int, error) {
	if f.applied(ctx) {
		return GetFeeNumeratorFromExcludedFeeAmount(excludedFeeAmount, f.ReferenceAmount, f.CliffFeeNumerator, f.MaxFeeBps, f.FeeIncrementBps)
	}
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

func (f FeeRateLimiter) ValidateBaseFeeIsStatic(currentPoint, activationPoint *big.Int) bool {
	return ValidateFeeRateLimiterBaseFeeIsStatic(currentPoint, activationPoint, f.MaxLimiterDuration, f.ReferenceAmount, f.MaxFeeBps, f.FeeIncrementBps)
}

func (f FeeRateLimiter) GetMinFeeNumerator() (*big.Int, error) {
	return GetRateLimiterMinBaseFeeNumerator(f.CliffFeeNumerator), nil
}

func (f FeeRateLimiter) GetMaxFeeNumerator() (*big.Int, error) {
	if IsZeroRateLimiter(f.ReferenceAmount, f.MaxLimiterDuration, f.MaxFeeBps, f.FeeIncrementBps) {
		return new(big.Int).Set(f.CliffFeeNumerator), nil
	}
	return GetRateLimiterMaxBaseFeeNumerator(f.ReferenceAmount, f.CliffFeeNumerator, f.MaxFeeBps, f.FeeIncrementBps)
}

// FeeTimeScheduler implements BaseFeeHandler.
type FeeTimeScheduler struct {
	CliffFeeNumerator    *big.Int
	NumberOfPeriod       uint16
	PeriodFrequency      *big.Int
	ReductionFactor      *big.Int
	FeeTimeSchedulerMode shared.BaseFeeMode
}

func (f FeeTimeScheduler) Mode() shared.BaseFeeMode {
	return f.FeeTimeSchedulerMode
}

func (f FeeTimeScheduler) Validate(_ shared.CollectFeeMode, _ shared.ActivationType, poolVersion shared.PoolVersion) error {
	return ValidateFeeTimeScheduler(f.NumberOfPeriod, f.PeriodFrequency, f.ReductionFactor, f.CliffFeeNumerator, f.FeeTimeSchedulerMode, poolVersion)
}

func (f FeeTimeScheduler) GetBaseFeeNumeratorFromIncludedFeeAmount(ctx shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return GetFeeTimeBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.PeriodFrequency, f.ReductionFactor, f.FeeTimeSchedulerMode, ctx.CurrentPoint, ctx.ActivationPoint)
}

func (f FeeTimeScheduler) GetBaseFeeNumeratorFromExcludedFeeAmount(ctx shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return GetFeeTimeBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.PeriodFrequency, f.ReductionFactor, f.FeeTimeSchedulerMode, ctx.CurrentPoint, ctx.ActivationPoint)
}

func (f FeeTimeScheduler) ValidateBaseFeeIsStatic(currentPoint, activationPoint *big.Int) bool {
	return ValidateFeeTimeSchedulerBaseFeeIsStatic(currentPoint, activationPoint, f.NumberOfPeriod, f.PeriodFrequency)
}

func (f FeeTimeScheduler) GetMinFeeNumerator() (*big.Int, error) {
	return GetFeeTimeMinBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.ReductionFactor, f.FeeTimeSchedulerMode)
}

func (f FeeTimeScheduler) GetMaxFeeNumerator() (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

// FeeMarketCapScheduler implements BaseFeeHandler.
type FeeMarketCapScheduler struct {
	CliffFeeNumerator           *big.Int
	NumberOfPeriod              uint16
	SqrtPriceStepBps            uint32
	SchedulerExpirationDuration uint32
	ReductionFactor             *big.Int
	FeeMarketCapSchedulerMode   shared.BaseFeeMode
}

func (f FeeMarketCapScheduler) Mode() shared.BaseFeeMode {
	return f.FeeMarketCapSchedulerMode
}

func (f FeeMarketCapScheduler) Validate(_ shared.CollectFeeMode, _ shared.ActivationType, poolVersion shared.PoolVersion) error {
	return ValidateFeeMarketCapScheduler(f.CliffFeeNumerator, f.NumberOfPeriod, f.SqrtPriceStepBps, f.ReductionFactor, f.SchedulerExpirationDuration, f.FeeMarketCapSchedulerMode, poolVersion)
}

func (f FeeMarketCapScheduler) GetBaseFeeNumeratorFromIncludedFeeAmount(ctx shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return GetFeeMarketCapBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.SqrtPriceStepBps, f.SchedulerExpirationDuration, f.ReductionFactor, f.FeeMarketCapSchedulerMode, ctx)
}

func (f FeeMarketCapScheduler) GetBaseFeeNumeratorFromExcludedFeeAmount(ctx shared.FeeContext, _ *big.Int) (*big.Int, error) {
	return GetFeeMarketCapBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.SqrtPriceStepBps, f.SchedulerExpirationDuration, f.ReductionFactor, f.FeeMarketCapSchedulerMode, ctx)
}

func (f FeeMarketCapScheduler) ValidateBaseFeeIsStatic(currentPoint, activationPoint *big.Int) bool {
	return ValidateFeeMarketCapBaseFeeIsStatic(currentPoint, activationPoint, f.SchedulerExpirationDuration)
}

func (f FeeMarketCapScheduler) GetMinFeeNumerator() (*big.Int, error) {
	return GetFeeMarketCapMinBaseFeeNumerator(f.CliffFeeNumerator, f.NumberOfPeriod, f.ReductionFactor, f.FeeMarketCapSchedulerMode)
}

func (f FeeMarketCapScheduler) GetMaxFeeNumerator() (*big.Int, error) {
	return new(big.Int).Set(f.CliffFeeNumerator), nil
}

// NextReachedPeriod returns the period to persist after a swap that moved
// the price to sqrtPrice. Outside the scheduler window the stored value is kept.
func (f FeeMarketCapScheduler) NextReachedPeriod(ctx shared.FeeContext, sqrtPrice *big.Int) uint16 {
	if ctx.CurrentPoint.Cmp(ctx.ActivationPoint) < 0 || IsFeeMarketCapExpired(f.SchedulerExpirationDuration, ctx.CurrentPoint, ctx.ActivationPoint) {
		return ctx.ReachedPeriod
	}
	return GetFeeMarketCapPeriodFromPrice(f.NumberOfPeriod, f.SqrtPriceStepBps, ctx.InitSqrtPrice, sqrtPrice)
}

// GetBaseFeeHandler decodes the 32 byte pool blob and dispatches on its mode byte.
func GetBaseFeeHandler(rawData []byte) (shared.BaseFeeHandler, error) {
	if len(rawData) < helpers.BaseFeeDataSize {
		return nil, fmt.Errorf("base fee data is %d bytes: %w", len(rawData), shared.ErrInvalidBaseFeeMode)
	}
	baseFeeMode := shared.BaseFeeMode(rawData[8])
	switch baseFeeMode {
	case shared.BaseFeeModeFeeTimeSchedulerLinear, shared.BaseFeeModeFeeTimeSchedulerExponential:
		poolFees, err := helpers.DecodePodAlignedFeeTimeScheduler(rawData)
		if err != nil {
			return nil, err
		}
		if poolFees.NumberOfPeriod == 0 && poolFees.PeriodFrequency == 0 && poolFees.ReductionFactor == 0 {
			return StaticFee{
				CliffFeeNumerator: new(big.Int).SetUint64(poolFees.CliffFeeNumerator),
				BaseFeeMode:       baseFeeMode,
			}, nil
		}
		return FeeTimeScheduler{
			CliffFeeNumerator:    new(big.Int).SetUint64(poolFees.CliffFeeNumerator),
			NumberOfPeriod:       poolFees.NumberOfPeriod,
			PeriodFrequency:      new(big.Int).SetUint64(poolFees.PeriodFrequency),
			ReductionFactor:      new(big.Int).SetUint64(poolFees.ReductionFactor),
			FeeTimeSchedulerMode: baseFeeMode,
		}, nil
	case shared.BaseFeeModeRateLimiter:
		poolFees, err := helpers.DecodePodAlignedFeeRateLimiter(rawData)
		if err != nil {
			return nil, err
		}
		return FeeRateLimiter{
			CliffFeeNumerator:  new(big.Int).SetUint64(poolFees.CliffFeeNumerator),
			FeeIncrementBps:    poolFees.FeeIncrementBps,
			MaxFeeBps:          poolFees.MaxFeeBps,
			MaxLimiterDuration: poolFees.MaxLimiterDuration,
			ReferenceAmount:    new(big.Int).SetUint64(poolFees.ReferenceAmount),
		}, nil
	case shared.BaseFeeModeFeeMarketCapSchedulerLinear, shared.BaseFeeModeFeeMarketCapSchedulerExp:
		poolFees, err := helpers.DecodePodAlignedFeeMarketCapScheduler(rawData)
		if err != nil {
			return nil, err
		}
		return FeeMarketCapScheduler{
			CliffFeeNumerator:           new(big.Int).SetUint64(poolFees.CliffFeeNumerator),
			NumberOfPeriod:              poolFees.NumberOfPeriod,
			SqrtPriceStepBps:            poolFees.SqrtPriceStepBps,
			SchedulerExpirationDuration: poolFees.SchedulerExpirationDuration,
			ReductionFactor:             new(big.Int).SetUint64(poolFees.ReductionFactor),
			FeeMarketCapSchedulerMode:   baseFeeMode,
		}, nil
	default:
		return nil, fmt.Errorf("mode %d: %w", baseFeeMode, shared.ErrInvalidBaseFeeMode)
	}
}

// GetBaseFeeHandlerFromParams decodes borsh parameters into a handler.
func GetBaseFeeHandlerFromParams(params helpers.BaseFeeParameters) (shared.BaseFeeHandler, error) {
	data, err := helpers.ToPodAlignedBaseFee(params)
	if err != nil {
		return nil, err
	}
	return GetBaseFeeHandler(data[:])
}
