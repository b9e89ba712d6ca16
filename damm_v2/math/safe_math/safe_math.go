// Package safe_math holds the big integer primitives shared by the curve and
// fee packages: rounded mul/div, range checks and the Q64.64 power.
package safe_math

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

var (
	one            = big.NewInt(1)
	feeDenominator = big.NewInt(shared.FeeDenominator)
)

// MulDiv returns x*y/denominator with the requested rounding. The product is
// held at full width, only the quotient is range checked by the caller.
func MulDiv(x, y, denominator *big.Int, rounding shared.Rounding) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, fmt.Errorf("mul div by zero: %w", shared.ErrArithmeticOverflow)
	}
	mul := new(big.Int).Mul(x, y)
	div, mod := new(big.Int).QuoRem(mul, denominator, new(big.Int))
	if rounding == shared.RoundingUp && mod.Sign() != 0 {
		div.Add(div, one)
	}
	return div, nil
}

// MulShr returns x*y >> offset, rounding per the argument.
func MulShr(x, y *big.Int, offset uint, rounding shared.Rounding) *big.Int {
	prod := new(big.Int).Mul(x, y)
	return shr(prod, offset, rounding)
}

// ShlDiv returns (x << offset) / y, rounding per the argument.
func ShlDiv(x, y *big.Int, offset uint, rounding shared.Rounding) (*big.Int, error) {
	if y.Sign() == 0 {
		return nil, fmt.Errorf("shl div by zero: %w", shared.ErrArithmeticOverflow)
	}
	return MulDiv(new(big.Int).Lsh(x, offset), one, y, rounding)
}

func shr(v *big.Int, offset uint, rounding shared.Rounding) *big.Int {
	out := new(big.Int).Rsh(v, offset)
	if rounding == shared.RoundingUp {
		back := new(big.Int).Lsh(out, offset)
		if back.Cmp(v) != 0 {
			out.Add(out, one)
		}
	}
	return out
}

// CheckedU64 fails when v does not fit an unsigned 64 bit integer.
func CheckedU64(v *big.Int) (*big.Int, error) {
	return checkedBits(v, shared.U64Max, "u64")
}

// CheckedU128 fails when v does not fit an unsigned 128 bit integer.
func CheckedU128(v *big.Int) (*big.Int, error) {
	return checkedBits(v, shared.U128Max, "u128")
}

func checkedBits(v, max *big.Int, name string) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("nil %s: %w", name, shared.ErrArithmeticOverflow)
	}
	if v.Sign() < 0 || v.Cmp(max) > 0 {
		return nil, fmt.Errorf("%s out of range %s: %w", name, v.String(), shared.ErrArithmeticOverflow)
	}
	return v, nil
}

func Sqrt(value *big.Int) *big.Int {
	if value == nil || value.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sqrt(value)
}

// Pow raises a Q64.64 base to an integer exponent. Results that underflow
// to zero or exponents past MaxExponential return zero.
func Pow(base, exp *big.Int) *big.Int {
	if exp == nil || exp.Sign() == 0 {
		return new(big.Int).Set(shared.OneQ64)
	}
	invert := exp.Sign() < 0
	absExp := new(big.Int).Abs(exp)
	if absExp.Cmp(shared.MaxExponential) >= 0 {
		return big.NewInt(0)
	}

	squaredBase := new(big.Int).Set(base)
	result := new(big.Int).Set(shared.OneQ64)
	if squaredBase.Cmp(result) >= 0 {
		squaredBase = new(big.Int).Div(shared.MaxU128, squaredBase)
		invert = !invert
	}

	for bit := 0; bit <= 18; bit++ {
		if absExp.Bit(bit) == 1 {
			result.Mul(result, squaredBase)
			result.Rsh(result, shared.ScaleOffset)
		}
		squaredBase.Mul(squaredBase, squaredBase)
		squaredBase.Rsh(squaredBase, shared.ScaleOffset)
	}

	if result.Sign() == 0 {
		return big.NewInt(0)
	}
	if invert {
		result = new(big.Int).Div(shared.MaxU128, result)
	}
	return result
}

func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// GetExcludedFeeAmount charges ceil(included * numerator / FeeDenominator).
func GetExcludedFeeAmount(tradeFeeNumerator, includedFeeAmount *big.Int) (*big.Int, *big.Int, error) {
	tradingFee, err := MulDiv(includedFeeAmount, tradeFeeNumerator, feeDenominator, shared.RoundingUp)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Sub(includedFeeAmount, tradingFee), tradingFee, nil
}

// GetIncludedFeeAmount grosses up: ceil(excluded * FeeDenominator / (FeeDenominator - numerator)).
func GetIncludedFeeAmount(tradeFeeNumerator, excludedFeeAmount *big.Int) (*big.Int, *big.Int, error) {
	denominator := new(big.Int).Sub(feeDenominator, tradeFeeNumerator)
	if denominator.Sign() <= 0 {
		return nil, nil, fmt.Errorf("fee numerator %s: %w", tradeFeeNumerator.String(), shared.ErrInvalidFeeConfiguration)
	}
	included, err := MulDiv(excludedFeeAmount, feeDenominator, denominator, shared.RoundingUp)
	if err != nil {
		return nil, nil, err
	}
	return included, new(big.Int).Sub(included, excludedFeeAmount), nil
}
