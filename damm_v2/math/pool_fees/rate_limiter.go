package pool_fees

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func IsZeroRateLimiter(referenceAmount *big.Int, maxLimiterDuration uint32, maxFeeBps uint32, feeIncrementBps uint16) bool {
	return (referenceAmount == nil || referenceAmount.Sign() == 0) && maxLimiterDuration == 0 && maxFeeBps == 0 && feeIncrementBps == 0
}

// IsNonZeroRateLimiter reports whether every limiter field is set.
func IsNonZeroRateLimiter(referenceAmount *big.Int, maxLimiterDuration uint32, maxFeeBps uint32, feeIncrementBps uint16) bool {
	return referenceAmount != nil && referenceAmount.Sign() != 0 && maxLimiterDuration != 0 && maxFeeBps != 0 && feeIncrementBps != 0
}

// IsRateLimiterApplied is true for B to A trades inside
// [activation, activation + maxLimiterDuration].
func IsRateLimiterApplied(referenceAmount *big.Int, maxLimiterDuration uint32, maxFeeBps uint32, feeIncrementBps uint16, currentPoint, activationPoint *big.Int, tradeDirection shared.TradeDirection) bool {
	if IsZeroRateLimiter(referenceAmount, maxLimiterDuration, maxFeeBps, feeIncrementBps) {
		return false
	}
	if tradeDirection == shared.TradeDirectionAtoB {
		return false
	}
	if currentPoint.Cmp(activationPoint) < 0 {
		return false
	}
	lastEffective := new(big.Int).Add(activationPoint, big.NewInt(int64(maxLimiterDuration)))
	return currentPoint.Cmp(lastEffective) <= 0
}

func GetMaxIndex(maxFeeBps uint32, cliffFeeNumerator *big.Int, feeIncrementBps uint16) (*big.Int, error) {
	maxFeeNumerator := ToNumerator(uint64(maxFeeBps))
	if cliffFeeNumerator.Cmp(maxFeeNumerator) > 0 {
		return nil, invalidFee("cliff fee numerator %s above max fee numerator %s", cliffFeeNumerator.String(), maxFeeNumerator.String())
	}
	feeIncrementNumerator := ToNumerator(uint64(feeIncrementBps))
	if feeIncrementNumerator.Sign() == 0 {
		return nil, invalidFee("fee increment numerator is zero")
	}
	deltaNumerator := new(big.Int).Sub(maxFeeNumerator, cliffFeeNumerator)
	return deltaNumerator.Div(deltaNumerator, feeIncrementNumerator), nil
}

// GetFeeNumeratorFromIncludedFeeAmount prices a trade of inputAmount. Each
// referenceAmount slice past the first pays feeIncrement more than the last,
// until the max fee numerator is reached.
func GetFeeNumeratorFromIncludedFeeAmount(inputAmount, referenceAmount, cliffFeeNumerator *big.Int, maxFeeBps uint32, feeIncrementBps uint16) (*big.Int, error) {
	if inputAmount.Cmp(referenceAmount) <= 0 {
		return new(big.Int).Set(cliffFeeNumerator), nil
	}
	maxFeeNumerator := ToNumerator(uint64(maxFeeBps))
	maxIndex, err := GetMaxIndex(maxFeeBps, cliffFeeNumerator, feeIncrementBps)
	if err != nil {
		return nil, err
	}
	c := cliffFeeNumerator
	i := ToNumerator(uint64(feeIncrementBps))
	x0 := referenceAmount
	diff := new(big.Int).Sub(inputAmount, x0)
	a, b := new(big.Int).QuoRem(diff, x0, new(big.Int))

	var tradingFeeNumerator *big.Int
	if a.Cmp(maxIndex) < 0 {
		numerator1 := new(big.Int).Add(c, new(big.Int).Mul(c, a))
		numerator1.Add(numerator1, new(big.Int).Div(new(big.Int).Mul(i, new(big.Int).Mul(a, new(big.Int).Add(a, one))), two))
		numerator2 := new(big.Int).Add(c, new(big.Int).Mul(i, new(big.Int).Add(a, one)))
		firstFee := new(big.Int).Mul(x0, numerator1)
		secondFee := new(big.Int).Mul(b, numerator2)
		tradingFeeNumerator = firstFee.Add(firstFee, secondFee)
	} else {
		numerator1 := new(big.Int).Add(c, new(big.Int).Mul(c, maxIndex))
		numerator1.Add(numerator1, new(big.Int).Div(new(big.Int).Mul(i, new(big.Int).Mul(maxIndex, new(big.Int).Add(maxIndex, one))), two))
		firstFee := new(big.Int).Mul(x0, numerator1)
		d := new(big.Int).Sub(a, maxIndex)
		secondFee := new(big.Int).Add(new(big.Int).Mul(d, x0), b)
		secondFee.Mul(secondFee, maxFeeNumerator)
		tradingFeeNumerator = firstFee.Add(firstFee, secondFee)
	}

	tradingFee, err := safe_math.MulDiv(tradingFeeNumerator, one, feeDenominator, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	feeNumerator, err := safe_math.MulDiv(tradingFee, feeDenominator, inputAmount, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	if feeNumerator.Cmp(maxFeeNumerator) > 0 {
		return maxFeeNumerator, nil
	}
	return feeNumerator, nil
}

// getRateLimiterExcludedFeeAmount is the amount left after charging the limiter fee on includedFeeAmount.
func getRateLimiterExcludedFeeAmount(includedFeeAmount, referenceAmount, cliffFeeNumerator *big.Int, maxFeeBps uint32, feeIncrementBps uint16) (*big.Int, error) {
	feeNumerator, err := GetFeeNumeratorFromIncludedFeeAmount(includedFeeAmount, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	if err != nil {
		return nil, err
	}
	excluded, _, err := safe_math.GetExcludedFeeAmount(feeNumerator, includedFeeAmount)
	return excluded, err
}

// GetFeeNumeratorFromExcludedFeeAmount inverts the limiter curve: it finds the
// included amount whose fee leaves excludedFeeAmount and returns its numerator.
func GetFeeNumeratorFromExcludedFeeAmount(excludedFeeAmount, referenceAmount, cliffFeeNumerator *big.Int, maxFeeBps uint32, feeIncrementBps uint16) (*big.Int, error) {
	excludedReference, err := getRateLimiterExcludedFeeAmount(referenceAmount, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	if err != nil {
		return nil, err
	}
	if excludedFeeAmount.Cmp(excludedReference) <= 0 {
		return new(big.Int).Set(cliffFeeNumerator), nil
	}

	maxIndex, err := GetMaxIndex(maxFeeBps, cliffFeeNumerator, feeIncrementBps)
	if err != nil {
		return nil, err
	}
	maxFeeNumerator := ToNumerator(uint64(maxFeeBps))
	x0 := referenceAmount
	checkedIncluded := new(big.Int).Mul(new(big.Int).Add(maxIndex, one), x0)
	isOverflow := false
	if checkedIncluded.Cmp(shared.U64Max) > 0 {
		checkedIncluded = new(big.Int).Set(shared.U64Max)
		isOverflow = true
	}
	checkedExcluded, err := getRateLimiterExcludedFeeAmount(checkedIncluded, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	if err != nil {
		return nil, err
	}
	if excludedFeeAmount.Cmp(checkedExcluded) == 0 {
		return GetFeeNumeratorFromIncludedFeeAmount(checkedIncluded, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
	}

	var includedFeeAmount *big.Int
	if excludedFeeAmount.Cmp(checkedExcluded) < 0 {
		// Solve i*x^2 - y*x + z = 0 for the included amount on the rising part of the curve.
		i := ToNumerator(uint64(feeIncrementBps))
		c := cliffFeeNumerator
		d := feeDenominator

		y := new(big.Int).Mul(two, d)
		y.Mul(y, x0)
		y.Add(y, new(big.Int).Mul(i, x0))
		y.Sub(y, new(big.Int).Mul(two, new(big.Int).Mul(c, x0)))
		z := new(big.Int).Mul(two, excludedFeeAmount)
		z.Mul(z, d)
		z.Mul(z, x0)

		discriminant := new(big.Int).Sub(new(big.Int).Mul(y, y), new(big.Int).Mul(four, new(big.Int).Mul(i, z)))
		if discriminant.Sign() < 0 {
			return nil, fmt.Errorf("negative discriminant: %w", shared.ErrArithmeticOverflow)
		}
		includedFeeAmount = new(big.Int).Sub(y, safe_math.Sqrt(discriminant))
		includedFeeAmount.Div(includedFeeAmount, new(big.Int).Mul(two, i))

		aPlusOne := new(big.Int).Div(includedFeeAmount, x0)
		firstExcluded, err := getRateLimiterExcludedFeeAmount(includedFeeAmount, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
		if err != nil {
			return nil, err
		}
		excludedRemaining := new(big.Int).Sub(excludedFeeAmount, firstExcluded)
		remainingFeeNumerator := new(big.Int).Add(c, new(big.Int).Mul(i, aPlusOne))
		includedRemaining, _, err := safe_math.GetIncludedFeeAmount(remainingFeeNumerator, excludedRemaining)
		if err != nil {
			return nil, err
		}
		includedFeeAmount.Add(includedFeeAmount, includedRemaining)
	} else {
		if isOverflow {
			return nil, fmt.Errorf("excluded amount beyond u64 limiter range: %w", shared.ErrArithmeticOverflow)
		}
		excludedRemaining := new(big.Int).Sub(excludedFeeAmount, checkedExcluded)
		includedRemaining, _, err := safe_math.GetIncludedFeeAmount(maxFeeNumerator, excludedRemaining)
		if err != nil {
			return nil, err
		}
		includedFeeAmount = includedRemaining.Add(includedRemaining, checkedIncluded)
	}

	tradingFee := new(big.Int).Sub(includedFeeAmount, excludedFeeAmount)
	feeNumerator, err := safe_math.MulDiv(tradingFee, feeDenominator, includedFeeAmount, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	if feeNumerator.Cmp(cliffFeeNumerator) < 0 {
		return new(big.Int).Set(cliffFeeNumerator), nil
	}
	if feeNumerator.Cmp(maxFeeNumerator) > 0 {
		return maxFeeNumerator, nil
	}
	return feeNumerator, nil
}

func GetRateLimiterMinBaseFeeNumerator(cliffFeeNumerator *big.Int) *big.Int {
	return new(big.Int).Set(cliffFeeNumerator)
}

func GetRateLimiterMaxBaseFeeNumerator(referenceAmount, cliffFeeNumerator *big.Int, maxFeeBps uint32, feeIncrementBps uint16) (*big.Int, error) {
	return GetFeeNumeratorFromIncludedFeeAmount(shared.U64Max, referenceAmount, cliffFeeNumerator, maxFeeBps, feeIncrementBps)
}
