package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

type LiquidityDeltaParams struct {
	MaxAmountTokenA *big.Int
	MaxAmountTokenB *big.Int
	SqrtPrice       *big.Int
	SqrtMinPrice    *big.Int
	SqrtMaxPrice    *big.Int
}

// GetLiquidityDelta computes the liquidity both maximum amounts can back.
func GetLiquidityDelta(params LiquidityDeltaParams) (*big.Int, error) {
	return math.GetLiquidityDeltaFromAmounts(params.MaxAmountTokenA, params.MaxAmountTokenB, params.SqrtPrice, params.SqrtMinPrice, params.SqrtMaxPrice)
}

type DepositQuote struct {
	LiquidityDelta *big.Int
	// OutputAmount is the other token the deposit requires.
	OutputAmount *big.Int
}

// GetDepositQuote sizes a deposit from one side of the pool.
func GetDepositQuote(pool *state.Pool, inAmount *big.Int, isTokenA bool) (DepositQuote, error) {
	if inAmount == nil || inAmount.Sign() <= 0 {
		return DepositQuote{}, fmt.Errorf("deposit amount: %w", shared.ErrAmountIsZero)
	}
	sqrtPrice, sqrtMin, sqrtMax := pool.SqrtPrice.BigInt(), pool.SqrtMinPrice.BigInt(), pool.SqrtMaxPrice.BigInt()
	var (
		liquidityDelta, outputAmount *big.Int
		err                          error
	)
	if isTokenA {
		if liquidityDelta, err = math.GetLiquidityDeltaFromAmountA(inAmount, sqrtPrice, sqrtMax); err != nil {
			return DepositQuote{}, err
		}
		outputAmount, err = math.GetAmountBFromLiquidityDelta(sqrtMin, sqrtPrice, liquidityDelta, RoundingUp)
	} else {
		if liquidityDelta, err = math.GetLiquidityDeltaFromAmountB(inAmount, sqrtMin, sqrtPrice); err != nil {
			return DepositQuote{}, err
		}
		outputAmount, err = math.GetAmountAFromLiquidityDelta(sqrtPrice, sqrtMax, liquidityDelta, RoundingUp)
	}
	if err != nil {
		return DepositQuote{}, err
	}
	return DepositQuote{LiquidityDelta: liquidityDelta, OutputAmount: outputAmount}, nil
}

// GetWithdrawQuote is what RemoveLiquidity pays for liquidityDelta at the current price.
func GetWithdrawQuote(pool *state.Pool, liquidityDelta *big.Int) (ModifyLiquidityResult, error) {
	return math.AmountsFromLiquidity(liquidityDelta, pool.SqrtMinPrice.BigInt(), pool.SqrtMaxPrice.BigInt(), pool.SqrtPrice.BigInt(), RoundingDown)
}

// PreparePoolCreationSingleSide computes the liquidity of a pool seeded with
// token A only, which requires the initial price at the lower bound.
func PreparePoolCreationSingleSide(tokenAAmount, sqrtMinPrice, sqrtMaxPrice, initSqrtPrice *big.Int) (*big.Int, error) {
	if initSqrtPrice.Cmp(sqrtMinPrice) != 0 {
		return nil, fmt.Errorf("single sided pool must start at the min price: %w", shared.ErrInvalidPriceRange)
	}
	return math.GetLiquidityDeltaFromAmountA(tokenAAmount, initSqrtPrice, sqrtMaxPrice)
}

type PreparedPoolCreation struct {
	InitSqrtPrice  *big.Int
	LiquidityDelta *big.Int
}

// PreparePoolCreationParams finds the initial price and liquidity for a
// two sided deposit.
func PreparePoolCreationParams(tokenAAmount, tokenBAmount, sqrtMinPrice, sqrtMaxPrice *big.Int) (PreparedPoolCreation, error) {
	if tokenAAmount.Sign() == 0 && tokenBAmount.Sign() == 0 {
		return PreparedPoolCreation{}, fmt.Errorf("pool deposit: %w", shared.ErrAmountIsZero)
	}
	initSqrtPrice, err := math.CalculateInitSqrtPrice(tokenAAmount, tokenBAmount, sqrtMinPrice, sqrtMaxPrice)
	if err != nil {
		return PreparedPoolCreation{}, err
	}
	liquidityDelta, err := math.GetLiquidityDeltaFromAmounts(tokenAAmount, tokenBAmount, initSqrtPrice, sqrtMinPrice, sqrtMaxPrice)
	if err != nil {
		return PreparedPoolCreation{}, err
	}
	return PreparedPoolCreation{InitSqrtPrice: initSqrtPrice, LiquidityDelta: liquidityDelta}, nil
}
