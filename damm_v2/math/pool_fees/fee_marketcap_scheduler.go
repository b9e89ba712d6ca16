package pool_fees

import (
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// GetFeeMarketCapPeriodFromPrice counts how many sqrtPriceStepBps steps the
// current sqrt price has moved away from the initial sqrt price, in either
// direction, capped at numberOfPeriod.
func GetFeeMarketCapPeriodFromPrice(numberOfPeriod uint16, sqrtPriceStepBps uint32, initSqrtPrice, currentSqrtPrice *big.Int) uint16 {
	if sqrtPriceStepBps == 0 || initSqrtPrice == nil || initSqrtPrice.Sign() == 0 {
		return 0
	}
	passed := new(big.Int).Sub(currentSqrtPrice, initSqrtPrice)
	passed.Abs(passed)
	passed.Mul(passed, basisPointMax)
	passed.Div(passed, initSqrtPrice)
	passed.Div(passed, big.NewInt(int64(sqrtPriceStepBps)))
	return capPeriod(passed, numberOfPeriod)
}

func IsFeeMarketCapExpired(schedulerExpirationDuration uint32, currentPoint, activationPoint *big.Int) bool {
	expiration := new(big.Int).Add(activationPoint, big.NewInt(int64(schedulerExpirationDuration)))
	return currentPoint.Cmp(expiration) > 0
}

// GetFeeMarketCapPeriod picks the period in effect: the last period before
// activation, the live price distance inside the window, and the period
// recorded by the last swap inside the window once it has expired.
func GetFeeMarketCapPeriod(numberOfPeriod uint16, sqrtPriceStepBps, schedulerExpirationDuration uint32, ctx shared.FeeContext) uint16 {
	if ctx.CurrentPoint.Cmp(ctx.ActivationPoint) < 0 {
		return numberOfPeriod
	}
	if IsFeeMarketCapExpired(schedulerExpirationDuration, ctx.CurrentPoint, ctx.ActivationPoint) {
		if ctx.ReachedPeriod > numberOfPeriod {
			return numberOfPeriod
		}
		return ctx.ReachedPeriod
	}
	return GetFeeMarketCapPeriodFromPrice(numberOfPeriod, sqrtPriceStepBps, ctx.InitSqrtPrice, ctx.CurrentSqrtPrice)
}

func GetFeeMarketCapBaseFeeNumerator(cliffFeeNumerator *big.Int, numberOfPeriod uint16, sqrtPriceStepBps, schedulerExpirationDuration uint32, reductionFactor *big.Int, mode shared.BaseFeeMode, ctx shared.FeeContext) (*big.Int, error) {
	period := GetFeeMarketCapPeriod(numberOfPeriod, sqrtPriceStepBps, schedulerExpirationDuration, ctx)
	return getFeeNumeratorByPeriod(cliffFeeNumerator, reductionFactor, numberOfPeriod, period, mode.IsExponential())
}

func GetFeeMarketCapMinBaseFeeNumerator(cliffFeeNumerator *big.Int, numberOfPeriod uint16, reductionFactor *big.Int, mode shared.BaseFeeMode) (*big.Int, error) {
	return getFeeNumeratorByPeriod(cliffFeeNumerator, reductionFactor, numberOfPeriod, numberOfPeriod, mode.IsExponential())
}
