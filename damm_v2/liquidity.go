package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// AddLiquidity deposits LiquidityDelta into the position's unlocked bucket
// and returns the token amounts the owner pays, rounded up.
func AddLiquidity(pool *state.Pool, position *state.Position, params AddLiquidityParams, clock Clock) (ModifyLiquidityResult, error) {
	delta := params.LiquidityDelta
	if delta == nil || delta.Sign() <= 0 {
		return ModifyLiquidityResult{}, fmt.Errorf("liquidity delta: %w", shared.ErrAmountIsZero)
	}
	p, pos := *pool, *position
	if err := accrue(&p, &pos, clock); err != nil {
		return ModifyLiquidityResult{}, err
	}

	amounts, err := liquidityAmounts(&p, delta, RoundingUp)
	if err != nil {
		return ModifyLiquidityResult{}, err
	}
	if amounts.TokenAAmount.Sign() == 0 && amounts.TokenBAmount.Sign() == 0 {
		return ModifyLiquidityResult{}, fmt.Errorf("deposit rounds to zero: %w", shared.ErrAmountIsZero)
	}
	if exceeds(amounts.TokenAAmount, params.TokenAAmountThreshold) || exceeds(amounts.TokenBAmount, params.TokenBAmountThreshold) {
		return ModifyLiquidityResult{}, fmt.Errorf("deposit %s/%s above maximum: %w", amounts.TokenAAmount.String(), amounts.TokenBAmount.String(), shared.ErrSlippageExceeded)
	}

	if pos.UnlockedLiquidity, err = addU128(pos.UnlockedLiquidity, delta); err != nil {
		return ModifyLiquidityResult{}, err
	}
	if p.Liquidity, err = addU128(p.Liquidity, delta); err != nil {
		return ModifyLiquidityResult{}, err
	}

	*pool, *position = p, pos
	return amounts, nil
}

// RemoveLiquidity withdraws unlocked liquidity and returns the token amounts
// paid out, rounded down. Vesting is refreshed first.
func RemoveLiquidity(pool *state.Pool, position *state.Position, params RemoveLiquidityParams, clock Clock) (ModifyLiquidityResult, error) {
	delta := params.LiquidityDelta
	if delta == nil || delta.Sign() <= 0 {
		return ModifyLiquidityResult{}, fmt.Errorf("liquidity delta: %w", shared.ErrAmountIsZero)
	}
	p, pos := *pool, *position
	if _, err := RefreshVesting(&pos, clock.CurrentPoint(p.ActivationType)); err != nil {
		return ModifyLiquidityResult{}, err
	}
	if delta.Cmp(pos.UnlockedLiquidity.BigInt()) > 0 {
		if delta.Cmp(helpers.TotalPositionLiquidity(&pos)) <= 0 {
			return ModifyLiquidityResult{}, fmt.Errorf("remove %s with %s unlocked: %w", delta.String(), pos.UnlockedLiquidity.BigInt().String(), shared.ErrPositionLocked)
		}
		return ModifyLiquidityResult{}, fmt.Errorf("remove %s: %w", delta.String(), shared.ErrInsufficientLiquidity)
	}
	if err := accrue(&p, &pos, clock); err != nil {
		return ModifyLiquidityResult{}, err
	}

	amounts, err := liquidityAmounts(&p, delta, RoundingDown)
	if err != nil {
		return ModifyLiquidityResult{}, err
	}
	if below(amounts.TokenAAmount, params.TokenAAmountThreshold) || below(amounts.TokenBAmount, params.TokenBAmountThreshold) {
		return ModifyLiquidityResult{}, fmt.Errorf("withdrawal %s/%s below minimum: %w", amounts.TokenAAmount.String(), amounts.TokenBAmount.String(), shared.ErrSlippageExceeded)
	}

	if pos.UnlockedLiquidity, err = subU128(pos.UnlockedLiquidity, delta); err != nil {
		return ModifyLiquidityResult{}, err
	}
	if p.Liquidity, err = subU128(p.Liquidity, delta); err != nil {
		return ModifyLiquidityResult{}, fmt.Errorf("pool liquidity: %w", shared.ErrInsufficientLiquidity)
	}
	if p.Liquidity.BigInt().Cmp(p.PermanentLockLiquidity.BigInt()) < 0 {
		return ModifyLiquidityResult{}, fmt.Errorf("pool liquidity below permanently locked: %w", shared.ErrInsufficientLiquidity)
	}

	*pool, *position = p, pos
	return amounts, nil
}

// RemoveAllLiquidity refreshes vesting and withdraws everything unlocked.
func RemoveAllLiquidity(pool *state.Pool, position *state.Position, tokenAAmountThreshold, tokenBAmountThreshold *big.Int, clock Clock) (ModifyLiquidityResult, error) {
	pos := *position
	if _, err := RefreshVesting(&pos, clock.CurrentPoint(pool.ActivationType)); err != nil {
		return ModifyLiquidityResult{}, err
	}
	if state.IsZeroU128(pos.UnlockedLiquidity) {
		return ModifyLiquidityResult{}, fmt.Errorf("no unlocked liquidity: %w", shared.ErrAmountIsZero)
	}
	result, err := RemoveLiquidity(pool, &pos, RemoveLiquidityParams{
		LiquidityDelta:        pos.UnlockedLiquidity.BigInt(),
		TokenAAmountThreshold: tokenAAmountThreshold,
		TokenBAmountThreshold: tokenBAmountThreshold,
	}, clock)
	if err != nil {
		return ModifyLiquidityResult{}, err
	}
	*position = pos
	return result, nil
}

// accrue advances pool rewards to the clock and settles the position.
func accrue(pool *state.Pool, position *state.Position, clock Clock) error {
	if err := updatePoolRewards(pool, clock.UnixTimestamp); err != nil {
		return err
	}
	return settlePosition(pool, position)
}

func liquidityAmounts(pool *state.Pool, delta *big.Int, rounding Rounding) (ModifyLiquidityResult, error) {
	amounts, err := math.AmountsFromLiquidity(delta, pool.SqrtMinPrice.BigInt(), pool.SqrtMaxPrice.BigInt(), pool.SqrtPrice.BigInt(), rounding)
	if err != nil {
		return ModifyLiquidityResult{}, err
	}
	if !fitsU64(amounts.TokenAAmount) || !fitsU64(amounts.TokenBAmount) {
		return ModifyLiquidityResult{}, fmt.Errorf("token amount: %w", shared.ErrArithmeticOverflow)
	}
	return amounts, nil
}

func exceeds(amount, maximum *big.Int) bool {
	return maximum != nil && amount.Cmp(maximum) > 0
}

func below(amount, minimum *big.Int) bool {
	return minimum != nil && amount.Cmp(minimum) < 0
}
