package pool_fees

import (
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// GetFeeTimePeriod returns min((current - activation) / frequency, numberOfPeriod).
// Before activation the scheduler sits at its last period.
func GetFeeTimePeriod(numberOfPeriod uint16, periodFrequency, currentPoint, activationPoint *big.Int) uint16 {
	if currentPoint.Cmp(activationPoint) < 0 {
		return numberOfPeriod
	}
	if periodFrequency.Sign() == 0 {
		return 0
	}
	passed := new(big.Int).Sub(currentPoint, activationPoint)
	passed.Div(passed, periodFrequency)
	return capPeriod(passed, numberOfPeriod)
}

func GetFeeTimeBaseFeeNumerator(cliffFeeNumerator *big.Int, numberOfPeriod uint16, periodFrequency, reductionFactor *big.Int, mode shared.BaseFeeMode, currentPoint, activationPoint *big.Int) (*big.Int, error) {
	if periodFrequency.Sign() == 0 {
		return new(big.Int).Set(cliffFeeNumerator), nil
	}
	period := GetFeeTimePeriod(numberOfPeriod, periodFrequency, currentPoint, activationPoint)
	return getFeeNumeratorByPeriod(cliffFeeNumerator, reductionFactor, numberOfPeriod, period, mode.IsExponential())
}

func GetFeeTimeMinBaseFeeNumerator(cliffFeeNumerator *big.Int, numberOfPeriod uint16, reductionFactor *big.Int, mode shared.BaseFeeMode) (*big.Int, error) {
	return getFeeNumeratorByPeriod(cliffFeeNumerator, reductionFactor, numberOfPeriod, numberOfPeriod, mode.IsExponential())
}
