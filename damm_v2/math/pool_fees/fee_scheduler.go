package pool_fees

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// GetFeeNumeratorOnLinearFeeScheduler returns cliff - period * reduction.
func GetFeeNumeratorOnLinearFeeScheduler(cliffFeeNumerator, reductionFactor *big.Int, period uint16) (*big.Int, error) {
	reduction := new(big.Int).Mul(big.NewInt(int64(period)), reductionFactor)
	fee := new(big.Int).Sub(cliffFeeNumerator, reduction)
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("linear fee below zero at period %d: %w", period, shared.ErrArithmeticOverflow)
	}
	return fee, nil
}

// GetFeeNumeratorOnExponentialFeeScheduler returns cliff * (1 - reduction/10000)^period
// evaluated in Q64.64.
func GetFeeNumeratorOnExponentialFeeScheduler(cliffFeeNumerator, reductionFactor *big.Int, period uint16) *big.Int {
	if period == 0 {
		return new(big.Int).Set(cliffFeeNumerator)
	}
	bps := new(big.Int).Lsh(reductionFactor, shared.ScaleOffset)
	bps.Div(bps, basisPointMax)
	base := new(big.Int).Sub(shared.OneQ64, bps)
	result := safe_math.Pow(base, big.NewInt(int64(period)))
	fee := new(big.Int).Mul(cliffFeeNumerator, result)
	return fee.Rsh(fee, shared.ScaleOffset)
}

func getFeeNumeratorByPeriod(cliffFeeNumerator, reductionFactor *big.Int, numberOfPeriod, period uint16, exponential bool) (*big.Int, error) {
	if period > numberOfPeriod {
		period = numberOfPeriod
	}
	if exponential {
		return GetFeeNumeratorOnExponentialFeeScheduler(cliffFeeNumerator, reductionFactor, period), nil
	}
	return GetFeeNumeratorOnLinearFeeScheduler(cliffFeeNumerator, reductionFactor, period)
}

// capPeriod narrows an unbounded period count into [0, numberOfPeriod].
func capPeriod(period *big.Int, numberOfPeriod uint16) uint16 {
	if period.Sign() <= 0 {
		return 0
	}
	if period.Cmp(big.NewInt(int64(numberOfPeriod))) > 0 {
		return numberOfPeriod
	}
	return uint16(period.Uint64())
}
