package math

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// AmountsFromLiquidity returns the token amounts backing liquidity over
// [sqrtLower, sqrtUpper] at sqrtCurrent. Token A covers [current, upper],
// token B covers [lower, current]. Round up when the caller pays in and
// down when the caller receives.
func AmountsFromLiquidity(liquidity, sqrtLower, sqrtUpper, sqrtCurrent *big.Int, rounding shared.Rounding) (shared.ModifyLiquidityResult, error) {
	if sqrtCurrent.Cmp(sqrtLower) < 0 || sqrtCurrent.Cmp(sqrtUpper) > 0 {
		return shared.ModifyLiquidityResult{}, fmt.Errorf("current sqrt price outside range: %w", shared.ErrPriceOutOfRange)
	}
	amountA, err := GetAmountAFromLiquidityDelta(sqrtCurrent, sqrtUpper, liquidity, rounding)
	if err != nil {
		return shared.ModifyLiquidityResult{}, err
	}
	amountB, err := GetAmountBFromLiquidityDelta(sqrtLower, sqrtCurrent, liquidity, rounding)
	if err != nil {
		return shared.ModifyLiquidityResult{}, err
	}
	return shared.ModifyLiquidityResult{TokenAAmount: amountA, TokenBAmount: amountB}, nil
}

// GetLiquidityDeltaFromAmounts picks the smaller of the two liquidity values
// obtainable from the provided amounts at the current price.
func GetLiquidityDeltaFromAmounts(amountA, amountB, sqrtPrice, sqrtMinPrice, sqrtMaxPrice *big.Int) (*big.Int, error) {
	if sqrtPrice.Cmp(sqrtMinPrice) < 0 || sqrtPrice.Cmp(sqrtMaxPrice) > 0 {
		return nil, fmt.Errorf("sqrt price outside range: %w", shared.ErrPriceOutOfRange)
	}
	var candidates []*big.Int
	if sqrtPrice.Cmp(sqrtMaxPrice) < 0 {
		liquidityA, err := GetLiquidityDeltaFromAmountA(amountA, sqrtPrice, sqrtMaxPrice)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, liquidityA)
	}
	if sqrtPrice.Cmp(sqrtMinPrice) > 0 {
		liquidityB, err := GetLiquidityDeltaFromAmountB(amountB, sqrtMinPrice, sqrtPrice)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, liquidityB)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty price range: %w", shared.ErrInvalidPriceRange)
	}
	out := candidates[0]
	for _, c := range candidates[1:] {
		out = safe_math.MinBig(out, c)
	}
	return out, nil
}

// ValidatePriceRange checks the immutable bounds of a pool.
func ValidatePriceRange(sqrtPrice, sqrtMinPrice, sqrtMaxPrice *big.Int) error {
	if sqrtMinPrice.Cmp(shared.MinSqrtPrice) < 0 || sqrtMaxPrice.Cmp(shared.MaxSqrtPrice) > 0 {
		return fmt.Errorf("bounds outside protocol limits: %w", shared.ErrInvalidPriceRange)
	}
	if sqrtMinPrice.Cmp(sqrtMaxPrice) >= 0 {
		return fmt.Errorf("min sqrt price must be below max: %w", shared.ErrInvalidPriceRange)
	}
	if sqrtPrice.Cmp(sqrtMinPrice) < 0 || sqrtPrice.Cmp(sqrtMaxPrice) > 0 {
		return fmt.Errorf("sqrt price outside range: %w", shared.ErrPriceOutOfRange)
	}
	return nil
}
