package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math"
	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// Swap executes one trade against the pool. The pool is left untouched
// when an error is returned.
func Swap(pool *state.Pool, params SwapParams, clock Clock) (SwapResult, error) {
	currentPoint := clock.currentPointBig(pool.ActivationType)
	if !math.IsSwapEnabled(pool, currentPoint) {
		return SwapResult{}, shared.ErrSwapDisabled
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("swap amount: %w", shared.ErrAmountIsZero)
	}
	if !fitsU64(params.Amount) {
		return SwapResult{}, fmt.Errorf("swap amount: %w", shared.ErrArithmeticOverflow)
	}
	if params.TradeDirection > TradeDirectionBtoA {
		return SwapResult{}, fmt.Errorf("trade direction %d: %w", params.TradeDirection, shared.ErrInvalidParameters)
	}
	if state.IsZeroU128(pool.Liquidity) {
		return SwapResult{}, fmt.Errorf("pool has no liquidity: %w", shared.ErrInsufficientLiquidity)
	}

	p := *pool
	if pool_fees.IsDynamicFeeEnabled(p.PoolFees.DynamicFee) {
		if err := pool_fees.UpdateReferences(&p.PoolFees.DynamicFee, p.SqrtPrice.BigInt(), clock.UnixTimestamp); err != nil {
			return SwapResult{}, err
		}
	}

	feeMode := math.GetFeeMode(p.CollectFeeMode, params.TradeDirection, params.HasReferral)
	result, err := math.GetSwapResult(&p, params.Amount, params.SwapMode, feeMode, params.TradeDirection, currentPoint)
	if err != nil {
		return SwapResult{}, err
	}
	if result.OutputAmount.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("swap output is zero: %w", shared.ErrAmountIsZero)
	}
	if err := checkSwapThreshold(params, result); err != nil {
		return SwapResult{}, err
	}

	feeContext := math.NewFeeContext(&p, currentPoint, params.TradeDirection)
	oldSqrtPrice := p.SqrtPrice.BigInt()
	if err := applySwapResult(&p, result, feeMode); err != nil {
		return SwapResult{}, err
	}
	if err := updateReachedPeriod(&p, feeContext, result.NextSqrtPrice); err != nil {
		return SwapResult{}, err
	}
	if pool_fees.IsDynamicFeeEnabled(p.PoolFees.DynamicFee) {
		if err := updateDynamicFeeAfterSwap(&p.PoolFees.DynamicFee, oldSqrtPrice, result.NextSqrtPrice, clock.UnixTimestamp); err != nil {
			return SwapResult{}, err
		}
	}

	*pool = p
	return result, nil
}

func checkSwapThreshold(params SwapParams, result SwapResult) error {
	if params.Threshold == nil {
		return nil
	}
	if params.SwapMode == SwapModeExactOut {
		if result.IncludedFeeInputAmount.Cmp(params.Threshold) > 0 {
			return fmt.Errorf("input %s above maximum %s: %w", result.IncludedFeeInputAmount.String(), params.Threshold.String(), shared.ErrSlippageExceeded)
		}
		return nil
	}
	if result.OutputAmount.Cmp(params.Threshold) < 0 {
		return fmt.Errorf("output %s below minimum %s: %w", result.OutputAmount.String(), params.Threshold.String(), shared.ErrSlippageExceeded)
	}
	return nil
}

// applySwapResult moves the price and books the fee split on the fee token.
func applySwapResult(pool *state.Pool, result SwapResult, feeMode shared.FeeMode) error {
	nextSqrtPrice := result.NextSqrtPrice
	if nextSqrtPrice.Cmp(pool.SqrtMinPrice.BigInt()) < 0 || nextSqrtPrice.Cmp(pool.SqrtMaxPrice.BigInt()) > 0 {
		return fmt.Errorf("next sqrt price %s: %w", nextSqrtPrice.String(), shared.ErrPriceOutOfRange)
	}

	feePerLiquidity := new(big.Int).Lsh(result.TradingFee, LiquidityScale)
	feePerLiquidity.Div(feePerLiquidity, pool.Liquidity.BigInt())

	var err error
	if feeMode.FeesOnTokenA {
		if pool.ProtocolAFee, err = addU64(pool.ProtocolAFee, result.ProtocolFee); err != nil {
			return err
		}
		if pool.PartnerAFee, err = addU64(pool.PartnerAFee, result.PartnerFee); err != nil {
			return err
		}
		if pool.FeeAPerLiquidity, err = addU256(pool.FeeAPerLiquidity, feePerLiquidity); err != nil {
			return err
		}
		if pool.Metrics.TotalLpAFee, err = addU128(pool.Metrics.TotalLpAFee, result.TradingFee); err != nil {
			return err
		}
		if pool.Metrics.TotalProtocolAFee, err = addU64(pool.Metrics.TotalProtocolAFee, result.ProtocolFee); err != nil {
			return err
		}
		if pool.Metrics.TotalPartnerAFee, err = addU64(pool.Metrics.TotalPartnerAFee, result.PartnerFee); err != nil {
			return err
		}
	} else {
		if pool.ProtocolBFee, err = addU64(pool.ProtocolBFee, result.ProtocolFee); err != nil {
			return err
		}
		if pool.PartnerBFee, err = addU64(pool.PartnerBFee, result.PartnerFee); err != nil {
			return err
		}
		if pool.FeeBPerLiquidity, err = addU256(pool.FeeBPerLiquidity, feePerLiquidity); err != nil {
			return err
		}
		if pool.Metrics.TotalLpBFee, err = addU128(pool.Metrics.TotalLpBFee, result.TradingFee); err != nil {
			return err
		}
		if pool.Metrics.TotalProtocolBFee, err = addU64(pool.Metrics.TotalProtocolBFee, result.ProtocolFee); err != nil {
			return err
		}
		if pool.Metrics.TotalPartnerBFee, err = addU64(pool.Metrics.TotalPartnerBFee, result.PartnerFee); err != nil {
			return err
		}
	}
	pool.SqrtPrice = state.U128(nextSqrtPrice)
	return nil
}

// updateReachedPeriod records the market cap period at the post swap price
// while the scheduler window is open.
func updateReachedPeriod(pool *state.Pool, ctx shared.FeeContext, nextSqrtPrice *big.Int) error {
	handler, err := pool_fees.GetBaseFeeHandler(pool.PoolFees.BaseFee.Data[:])
	if err != nil {
		return err
	}
	if scheduler, ok := handler.(pool_fees.FeeMarketCapScheduler); ok {
		pool.PoolFees.ReachedPeriod = scheduler.NextReachedPeriod(ctx, nextSqrtPrice)
	}
	return nil
}

func updateDynamicFeeAfterSwap(dynamicFee *state.DynamicFeeStruct, oldSqrtPrice, newSqrtPrice *big.Int, currentTimestamp uint64) error {
	if err := pool_fees.UpdateVolatilityAccumulator(dynamicFee, newSqrtPrice); err != nil {
		return err
	}
	deltaBins, err := pool_fees.GetDeltaBinId(dynamicFee.BinStepU128.BigInt(), oldSqrtPrice, newSqrtPrice)
	if err != nil {
		return err
	}
	if deltaBins.Sign() > 0 {
		dynamicFee.LastUpdateTimestamp = currentTimestamp
	}
	return nil
}

// QuoteSwap prices a trade against the pool as it would execute at clock,
// including the surcharge refresh a real swap performs first.
func QuoteSwap(pool *state.Pool, params SwapParams, clock Clock, slippageBps uint16, tokenADecimal, tokenBDecimal uint8) (QuoteResult, error) {
	if params.Amount == nil {
		return QuoteResult{}, fmt.Errorf("quote amount: %w", shared.ErrAmountIsZero)
	}
	p := *pool
	if pool_fees.IsDynamicFeeEnabled(p.PoolFees.DynamicFee) {
		if err := pool_fees.UpdateReferences(&p.PoolFees.DynamicFee, p.SqrtPrice.BigInt(), clock.UnixTimestamp); err != nil {
			return QuoteResult{}, err
		}
	}
	aToB := params.TradeDirection == TradeDirectionAtoB
	return math.SwapQuote(&p, clock.currentPointBig(p.ActivationType), params.Amount, params.SwapMode, slippageBps, aToB, params.HasReferral, tokenADecimal, tokenBDecimal)
}
