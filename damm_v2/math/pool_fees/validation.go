package pool_fees

import (
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// validateFeeBounds checks min >= MinFeeNumerator and max <= the version ceiling.
func validateFeeBounds(minFee, maxFee *big.Int, poolVersion shared.PoolVersion) error {
	if err := ValidateFeeFraction(minFee, feeDenominator); err != nil {
		return err
	}
	if err := ValidateFeeFraction(maxFee, feeDenominator); err != nil {
		return err
	}
	if minFee.Cmp(minFeeNumerator) < 0 {
		return invalidFee("min fee numerator %s below %d", minFee.String(), shared.MinFeeNumerator)
	}
	if limit := GetMaxFeeNumerator(poolVersion); maxFee.Cmp(limit) > 0 {
		return invalidFee("max fee numerator %s above %s", maxFee.String(), limit.String())
	}
	return nil
}

func ValidateStaticFee(cliffFeeNumerator *big.Int, poolVersion shared.PoolVersion) error {
	return validateFeeBounds(cliffFeeNumerator, cliffFeeNumerator, poolVersion)
}

func ValidateFeeTimeScheduler(numberOfPeriod uint16, periodFrequency, reductionFactor, cliffFeeNumerator *big.Int, mode shared.BaseFeeMode, poolVersion shared.PoolVersion) error {
	if periodFrequency.Sign() != 0 || numberOfPeriod != 0 || reductionFactor.Sign() != 0 {
		if numberOfPeriod == 0 || periodFrequency.Sign() == 0 || reductionFactor.Sign() == 0 {
			return invalidFee("time scheduler needs period count, frequency and reduction together")
		}
	}
	if mode.IsExponential() && reductionFactor.Cmp(basisPointMax) >= 0 {
		return invalidFee("exponential reduction factor %s must be below %d", reductionFactor.String(), shared.BasisPointMax)
	}
	minFee, err := GetFeeTimeMinBaseFeeNumerator(cliffFeeNumerator, numberOfPeriod, reductionFactor, mode)
	if err != nil {
		return invalidFee("time scheduler decays below zero")
	}
	return validateFeeBounds(minFee, cliffFeeNumerator, poolVersion)
}

// ValidateFeeTimeSchedulerBaseFeeIsStatic is true once the last period has passed.
func ValidateFeeTimeSchedulerBaseFeeIsStatic(currentPoint, activationPoint *big.Int, numberOfPeriod uint16, periodFrequency *big.Int) bool {
	end := new(big.Int).Mul(big.NewInt(int64(numberOfPeriod)), periodFrequency)
	end.Add(end, activationPoint)
	return currentPoint.Cmp(end) > 0
}

func ValidateFeeMarketCapScheduler(cliffFeeNumerator *big.Int, numberOfPeriod uint16, sqrtPriceStepBps uint32, reductionFactor *big.Int, schedulerExpirationDuration uint32, mode shared.BaseFeeMode, poolVersion shared.PoolVersion) error {
	if reductionFactor.Sign() <= 0 || sqrtPriceStepBps == 0 || schedulerExpirationDuration == 0 || numberOfPeriod == 0 {
		return invalidFee("market cap scheduler fields must be non-zero")
	}
	if mode.IsExponential() && reductionFactor.Cmp(basisPointMax) >= 0 {
		return invalidFee("exponential reduction factor %s must be below %d", reductionFactor.String(), shared.BasisPointMax)
	}
	minFee, err := GetFeeMarketCapMinBaseFeeNumerator(cliffFeeNumerator, numberOfPeriod, reductionFactor, mode)
	if err != nil {
		return invalidFee("market cap scheduler decays below zero")
	}
	return validateFeeBounds(minFee, cliffFeeNumerator, poolVersion)
}

func ValidateFeeMarketCapBaseFeeIsStatic(currentPoint, activationPoint *big.Int, schedulerExpirationDuration uint32) bool {
	return IsFeeMarketCapExpired(schedulerExpirationDuration, currentPoint, activationPoint)
}

func ValidateFeeRateLimiter(cliffFeeNumerator *big.Int, feeIncrementBps uint16, maxFeeBps uint32, maxLimiterDuration uint32, referenceAmount *big.Int, collectFeeMode shared.CollectFeeMode, activationType shared.ActivationType, poolVersion shared.PoolVersion) error {
	if collectFeeMode != shared.CollectFeeModeOnlyB {
		return invalidFee("rate limiter requires collect fee mode OnlyB")
	}
	if IsZeroRateLimiter(referenceAmount, maxLimiterDuration, maxFeeBps, feeIncrementBps) {
		return ValidateStaticFee(cliffFeeNumerator, poolVersion)
	}
	if !IsNonZeroRateLimiter(referenceAmount, maxLimiterDuration, maxFeeBps, feeIncrementBps) {
		return invalidFee("rate limiter fields must be all zero or all set")
	}
	durationLimit := uint32(shared.MaxRateLimiterDurationInSlots)
	if activationType == shared.ActivationTypeTimestamp {
		durationLimit = shared.MaxRateLimiterDurationInSeconds
	}
	if maxLimiterDuration > durationLimit {
		return invalidFee("max limiter duration %d above %d", maxLimiterDuration, durationLimit)
	}
	if uint64(maxFeeBps) > GetMaxFeeBps(poolVersion) {
		return invalidFee("max fee bps %d above %d", maxFeeBps, GetMaxFeeBps(poolVersion))
	}
	if ToNumerator(uint64(feeIncrementBps)).Cmp(feeDenominator) >= 0 {
		return invalidFee("fee increment bps %d too large", feeIncrementBps)
	}
	if cliffFeeNumerator.Cmp(minFeeNumerator) < 0 || cliffFeeNumerator.Cmp(ToNumerator(uint64(maxFeeBps))) > 0 {
		return invalidFee("cliff fee numerator %s outside [%d, max fee]", cliffFeeNumerator.String(), shared.MinFeeNumerator)
	}
	minFee, err := GetFeeNumeratorFromIncludedFeeAmount(big.NewInt(0), referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	if err != nil {
		return err
	}
	maxFee, err := GetRateLimiterMaxBaseFeeNumerator(referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	if err != nil {
		return err
	}
	return validateFeeBounds(minFee, maxFee, poolVersion)
}

func ValidateFeeRateLimiterBaseFeeIsStatic(currentPoint, activationPoint *big.Int, maxLimiterDuration uint32, referenceAmount *big.Int, maxFeeBps uint32, feeIncrementBps uint16) bool {
	if IsZeroRateLimiter(referenceAmount, maxLimiterDuration, maxFeeBps, feeIncrementBps) {
		return true
	}
	lastEffective := new(big.Int).Add(activationPoint, big.NewInt(int64(maxLimiterDuration)))
	return currentPoint.Cmp(lastEffective) > 0
}

func ValidateFeeFraction(numerator, denominator *big.Int) error {
	if denominator.Sign() == 0 || numerator.Cmp(denominator) >= 0 {
		return invalidFee("fee %s/%s must be a proper fraction", numerator.String(), denominator.String())
	}
	return nil
}
