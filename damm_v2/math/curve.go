package math

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// GetNextSqrtPriceFromAmountInBRoundingDown computes sqrtPrice + (amount << 128) / liquidity.
func GetNextSqrtPriceFromAmountInBRoundingDown(sqrtPrice, liquidity, amount *big.Int) (*big.Int, error) {
	quotient, err := safe_math.ShlDiv(amount, liquidity, shared.ScaleOffset*2, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU128(new(big.Int).Add(sqrtPrice, quotient))
}

func GetNextSqrtPriceFromAmountOutBRoundingDown(sqrtPrice, liquidity, amount *big.Int) (*big.Int, error) {
	quotient, err := safe_math.ShlDiv(amount, liquidity, shared.ScaleOffset*2, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	result := new(big.Int).Sub(sqrtPrice, quotient)
	if result.Sign() <= 0 {
		return nil, fmt.Errorf("amount out %s exceeds reserve: %w", amount.String(), shared.ErrInsufficientLiquidity)
	}
	return result, nil
}

// GetNextSqrtPriceFromAmountInARoundingUp computes liquidity * sqrtPrice / (liquidity + amount * sqrtPrice).
func GetNextSqrtPriceFromAmountInARoundingUp(sqrtPrice, liquidity, amount *big.Int) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	product := new(big.Int).Mul(amount, sqrtPrice)
	denominator := new(big.Int).Add(liquidity, product)
	next, err := safe_math.MulDiv(liquidity, sqrtPrice, denominator, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU128(next)
}

func GetNextSqrtPriceFromAmountOutARoundingUp(sqrtPrice, liquidity, amount *big.Int) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	product := new(big.Int).Mul(amount, sqrtPrice)
	denominator := new(big.Int).Sub(liquidity, product)
	if denominator.Sign() <= 0 {
		return nil, fmt.Errorf("amount out %s exceeds reserve: %w", amount.String(), shared.ErrInsufficientLiquidity)
	}
	next, err := safe_math.MulDiv(liquidity, sqrtPrice, denominator, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU128(next)
}

func GetNextSqrtPriceFromOutput(sqrtPrice, liquidity, amountOut *big.Int, aForB bool) (*big.Int, error) {
	if sqrtPrice.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price must be greater than 0: %w", shared.ErrInvalidParameters)
	}
	if liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("pool has no liquidity: %w", shared.ErrInsufficientLiquidity)
	}
	if aForB {
		return GetNextSqrtPriceFromAmountOutBRoundingDown(sqrtPrice, liquidity, amountOut)
	}
	return GetNextSqrtPriceFromAmountOutARoundingUp(sqrtPrice, liquidity, amountOut)
}

func GetNextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn *big.Int, aForB bool) (*big.Int, error) {
	if sqrtPrice.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price must be greater than 0: %w", shared.ErrInvalidParameters)
	}
	if liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("pool has no liquidity: %w", shared.ErrInsufficientLiquidity)
	}
	if aForB {
		return GetNextSqrtPriceFromAmountInARoundingUp(sqrtPrice, liquidity, amountIn)
	}
	return GetNextSqrtPriceFromAmountInBRoundingDown(sqrtPrice, liquidity, amountIn)
}

// GetAmountBFromLiquidityDelta returns liquidity * (upper - lower) >> 128 narrowed to u64.
func GetAmountBFromLiquidityDelta(lowerSqrtPrice, upperSqrtPrice, liquidity *big.Int, rounding shared.Rounding) (*big.Int, error) {
	return safe_math.CheckedU64(GetAmountBFromLiquidityDeltaUnchecked(lowerSqrtPrice, upperSqrtPrice, liquidity, rounding))
}

func GetAmountBFromLiquidityDeltaUnchecked(lowerSqrtPrice, upperSqrtPrice, liquidity *big.Int, rounding shared.Rounding) *big.Int {
	deltaSqrtPrice := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice)
	return safe_math.MulShr(liquidity, deltaSqrtPrice, shared.ScaleOffset*2, rounding)
}

// GetAmountAFromLiquidityDelta returns liquidity * (upper - lower) / (lower * upper) narrowed to u64.
func GetAmountAFromLiquidityDelta(lowerSqrtPrice, upperSqrtPrice, liquidity *big.Int, rounding shared.Rounding) (*big.Int, error) {
	amount, err := GetAmountAFromLiquidityDeltaUnchecked(lowerSqrtPrice, upperSqrtPrice, liquidity, rounding)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU64(amount)
}

func GetAmountAFromLiquidityDeltaUnchecked(lowerSqrtPrice, upperSqrtPrice, liquidity *big.Int, rounding shared.Rounding) (*big.Int, error) {
	numerator := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice)
	denominator := new(big.Int).Mul(lowerSqrtPrice, upperSqrtPrice)
	if denominator.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price bound is zero: %w", shared.ErrArithmeticOverflow)
	}
	return safe_math.MulDiv(liquidity, numerator, denominator, rounding)
}

// GetLiquidityDeltaFromAmountA computes amountA * lower * upper / (upper - lower).
func GetLiquidityDeltaFromAmountA(amountA, lowerSqrtPrice, upperSqrtPrice *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(amountA, lowerSqrtPrice)
	denominator := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice)
	if denominator.Sign() <= 0 {
		return nil, fmt.Errorf("empty price range: %w", shared.ErrInvalidPriceRange)
	}
	liquidity, err := safe_math.MulDiv(product, upperSqrtPrice, denominator, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU128(liquidity)
}

// GetLiquidityDeltaFromAmountB computes (amountB << 128) / (upper - lower).
func GetLiquidityDeltaFromAmountB(amountB, lowerSqrtPrice, upperSqrtPrice *big.Int) (*big.Int, error) {
	denominator := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice)
	if denominator.Sign() <= 0 {
		return nil, fmt.Errorf("empty price range: %w", shared.ErrInvalidPriceRange)
	}
	liquidity, err := safe_math.ShlDiv(amountB, denominator, shared.LiquidityScale, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	return safe_math.CheckedU128(liquidity)
}
