package math

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

type poolPrices struct {
	sqrtPrice, sqrtMin, sqrtMax, liquidity *big.Int
}

func getPoolBig(pool *state.Pool) poolPrices {
	return poolPrices{
		sqrtPrice: pool.SqrtPrice.BigInt(),
		sqrtMin:   pool.SqrtMinPrice.BigInt(),
		sqrtMax:   pool.SqrtMaxPrice.BigInt(),
		liquidity: pool.Liquidity.BigInt(),
	}
}

type feeAccumulator struct {
	numerator   *big.Int
	tradingFee  *big.Int
	protocolFee *big.Int
	referralFee *big.Int
	partnerFee  *big.Int
}

func newFeeAccumulator() *feeAccumulator {
	return &feeAccumulator{
		numerator:   big.NewInt(0),
		tradingFee:  big.NewInt(0),
		protocolFee: big.NewInt(0),
		referralFee: big.NewInt(0),
		partnerFee:  big.NewInt(0),
	}
}

func (f *feeAccumulator) set(split shared.SplitFees) {
	f.tradingFee = split.TradingFee
	f.protocolFee = split.ProtocolFee
	f.referralFee = split.ReferralFee
	f.partnerFee = split.PartnerFee
}

func (f *feeAccumulator) result(r shared.SwapResult) shared.SwapResult {
	r.FeeNumerator = f.numerator
	r.TradingFee = f.tradingFee
	r.ProtocolFee = f.protocolFee
	r.ReferralFee = f.referralFee
	r.PartnerFee = f.partnerFee
	return r
}

// GetSwapResult dispatches on the swap mode.
func GetSwapResult(pool *state.Pool, amount *big.Int, swapMode shared.SwapMode, feeMode shared.FeeMode, tradeDirection shared.TradeDirection, currentPoint *big.Int) (shared.SwapResult, error) {
	switch swapMode {
	case shared.SwapModeExactIn:
		return GetSwapResultFromExactInput(pool, amount, feeMode, tradeDirection, currentPoint)
	case shared.SwapModePartialFill:
		return GetSwapResultFromPartialInput(pool, amount, feeMode, tradeDirection, currentPoint)
	case shared.SwapModeExactOut:
		return GetSwapResultFromExactOutput(pool, amount, feeMode, tradeDirection, currentPoint)
	default:
		return shared.SwapResult{}, fmt.Errorf("swap mode %d: %w", swapMode, shared.ErrInvalidParameters)
	}
}

func GetSwapResultFromExactInput(pool *state.Pool, amountIn *big.Int, feeMode shared.FeeMode, tradeDirection shared.TradeDirection, currentPoint *big.Int) (shared.SwapResult, error) {
	fees := newFeeAccumulator()
	maxFeeNumerator := GetMaxFeeNumerator(shared.PoolVersion(pool.Version))
	ctx := NewFeeContext(pool, currentPoint, tradeDirection)

	tradeFeeNumerator, err := GetTotalTradingFeeFromIncludedFeeAmount(pool.PoolFees, ctx, amountIn, maxFeeNumerator)
	if err != nil {
		return shared.SwapResult{}, err
	}
	fees.numerator = tradeFeeNumerator

	actualAmountIn := new(big.Int).Set(amountIn)
	if feeMode.FeesOnInput {
		feeResult, err := GetFeeOnAmount(pool.PoolFees, amountIn, tradeFeeNumerator, feeMode.HasReferral, pool.HasPartner())
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(shared.SplitFees{TradingFee: feeResult.TradingFee, ProtocolFee: feeResult.ProtocolFee, ReferralFee: feeResult.ReferralFee, PartnerFee: feeResult.PartnerFee})
		actualAmountIn = feeResult.AmountAfterFee
	}

	var outputAmount, nextSqrtPrice *big.Int
	if tradeDirection == shared.TradeDirectionAtoB {
		outputAmount, nextSqrtPrice, err = calculateAtoBFromAmountIn(pool, actualAmountIn)
	} else {
		outputAmount, nextSqrtPrice, err = calculateBtoAFromAmountIn(pool, actualAmountIn)
	}
	if err != nil {
		return shared.SwapResult{}, err
	}

	actualAmountOut := outputAmount
	if !feeMode.FeesOnInput {
		feeResult, err := GetFeeOnAmount(pool.PoolFees, outputAmount, tradeFeeNumerator, feeMode.HasReferral, pool.HasPartner())
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(shared.SplitFees{TradingFee: feeResult.TradingFee, ProtocolFee: feeResult.ProtocolFee, ReferralFee: feeResult.ReferralFee, PartnerFee: feeResult.PartnerFee})
		actualAmountOut = feeResult.AmountAfterFee
	}

	return fees.result(shared.SwapResult{
		IncludedFeeInputAmount: new(big.Int).Set(amountIn),
		ExcludedFeeInputAmount: actualAmountIn,
		AmountLeft:             big.NewInt(0),
		OutputAmount:           actualAmountOut,
		NextSqrtPrice:          nextSqrtPrice,
	}), nil
}

func calculateAtoBFromAmountIn(pool *state.Pool, amountIn *big.Int) (*big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	nextSqrtPrice, err := GetNextSqrtPriceFromInput(p.sqrtPrice, p.liquidity, amountIn, true)
	if err != nil {
		return nil, nil, err
	}
	if nextSqrtPrice.Cmp(p.sqrtMin) < 0 {
		return nil, nil, fmt.Errorf("next sqrt price %s below min: %w", nextSqrtPrice.String(), shared.ErrPriceOutOfRange)
	}
	outputAmount, err := GetAmountBFromLiquidityDelta(nextSqrtPrice, p.sqrtPrice, p.liquidity, shared.RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	return outputAmount, nextSqrtPrice, nil
}

func calculateBtoAFromAmountIn(pool *state.Pool, amountIn *big.Int) (*big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	nextSqrtPrice, err := GetNextSqrtPriceFromInput(p.sqrtPrice, p.liquidity, amountIn, false)
	if err != nil {
		return nil, nil, err
	}
	if nextSqrtPrice.Cmp(p.sqrtMax) > 0 {
		return nil, nil, fmt.Errorf("next sqrt price %s above max: %w", nextSqrtPrice.String(), shared.ErrPriceOutOfRange)
	}
	outputAmount, err := GetAmountAFromLiquidityDelta(p.sqrtPrice, nextSqrtPrice, p.liquidity, shared.RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	return outputAmount, nextSqrtPrice, nil
}

// GetSwapResultFromPartialInput fills as much of amountIn as the price range
// allows and reports the rest in AmountLeft.
func GetSwapResultFromPartialInput(pool *state.Pool, amountIn *big.Int, feeMode shared.FeeMode, tradeDirection shared.TradeDirection, currentPoint *big.Int) (shared.SwapResult, error) {
	fees := newFeeAccumulator()
	maxFeeNumerator := GetMaxFeeNumerator(shared.PoolVersion(pool.Version))
	ctx := NewFeeContext(pool, currentPoint, tradeDirection)

	tradeFeeNumerator, err := GetTotalTradingFeeFromIncludedFeeAmount(pool.PoolFees, ctx, amountIn, maxFeeNumerator)
	if err != nil {
		return shared.SwapResult{}, err
	}
	fees.numerator = tradeFeeNumerator

	actualAmountIn := new(big.Int).Set(amountIn)
	if feeMode.FeesOnInput {
		feeResult, err := GetFeeOnAmount(pool.PoolFees, amountIn, tradeFeeNumerator, feeMode.HasReferral, pool.HasPartner())
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(shared.SplitFees{TradingFee: feeResult.TradingFee, ProtocolFee: feeResult.ProtocolFee, ReferralFee: feeResult.ReferralFee, PartnerFee: feeResult.PartnerFee})
		actualAmountIn = feeResult.AmountAfterFee
	}

	var amountLeft, outputAmount, nextSqrtPrice *big.Int
	if tradeDirection == shared.TradeDirectionAtoB {
		outputAmount, nextSqrtPrice, amountLeft, err = calculateAtoBFromPartialAmountIn(pool, actualAmountIn)
	} else {
		outputAmount, nextSqrtPrice, amountLeft, err = calculateBtoAFromPartialAmountIn(pool, actualAmountIn)
	}
	if err != nil {
		return shared.SwapResult{}, err
	}

	includedFeeInputAmount := new(big.Int).Set(amountIn)
	if amountLeft.Sign() > 0 {
		actualAmountIn = new(big.Int).Sub(actualAmountIn, amountLeft)
		if feeMode.FeesOnInput {
			tradeFeeNumerator, err = GetTotalTradingFeeFromExcludedFeeAmount(pool.PoolFees, ctx, actualAmountIn, maxFeeNumerator)
			if err != nil {
				return shared.SwapResult{}, err
			}
			fees.numerator = tradeFeeNumerator
			includedFeeAmount, feeAmount, err := safe_math.GetIncludedFeeAmount(tradeFeeNumerator, actualAmountIn)
			if err != nil {
				return shared.SwapResult{}, err
			}
			fees.set(SplitFees(pool.PoolFees, feeAmount, feeMode.HasReferral, pool.HasPartner()))
			includedFeeInputAmount = includedFeeAmount
		} else {
			includedFeeInputAmount = actualAmountIn
		}
	}

	actualAmountOut := outputAmount
	if !feeMode.FeesOnInput {
		feeResult, err := GetFeeOnAmount(pool.PoolFees, outputAmount, tradeFeeNumerator, feeMode.HasReferral, pool.HasPartner())
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(shared.SplitFees{TradingFee: feeResult.TradingFee, ProtocolFee: feeResult.ProtocolFee, ReferralFee: feeResult.ReferralFee, PartnerFee: feeResult.PartnerFee})
		actualAmountOut = feeResult.AmountAfterFee
	}

	return fees.result(shared.SwapResult{
		IncludedFeeInputAmount: includedFeeInputAmount,
		ExcludedFeeInputAmount: actualAmountIn,
		AmountLeft:             amountLeft,
		OutputAmount:           actualAmountOut,
		NextSqrtPrice:          nextSqrtPrice,
	}), nil
}

func calculateAtoBFromPartialAmountIn(pool *state.Pool, amountIn *big.Int) (*big.Int, *big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	maxAmountIn, err := GetAmountAFromLiquidityDeltaUnchecked(p.sqrtMin, p.sqrtPrice, p.liquidity, shared.RoundingUp)
	if err != nil {
		return nil, nil, nil, err
	}
	consumedIn, nextSqrt := new(big.Int).Set(amountIn), p.sqrtMin
	if amountIn.Cmp(maxAmountIn) >= 0 {
		consumedIn.Set(maxAmountIn)
	} else {
		nextSqrt, err = GetNextSqrtPriceFromInput(p.sqrtPrice, p.liquidity, amountIn, true)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	outputAmount, err := GetAmountBFromLiquidityDelta(nextSqrt, p.sqrtPrice, p.liquidity, shared.RoundingDown)
	if err != nil {
		return nil, nil, nil, err
	}
	return outputAmount, nextSqrt, new(big.Int).Sub(amountIn, consumedIn), nil
}

func calculateBtoAFromPartialAmountIn(pool *state.Pool, amountIn *big.Int) (*big.Int, *big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	maxAmountIn := GetAmountBFromLiquidityDeltaUnchecked(p.sqrtPrice, p.sqrtMax, p.liquidity, shared.RoundingUp)
	consumedIn, nextSqrt := new(big.Int).Set(amountIn), p.sqrtMax
	if amountIn.Cmp(maxAmountIn) >= 0 {
		consumedIn.Set(maxAmountIn)
	} else {
		var err error
		nextSqrt, err = GetNextSqrtPriceFromInput(p.sqrtPrice, p.liquidity, amountIn, false)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	outputAmount, err := GetAmountAFromLiquidityDelta(p.sqrtPrice, nextSqrt, p.liquidity, shared.RoundingDown)
	if err != nil {
		return nil, nil, nil, err
	}
	return outputAmount, nextSqrt, new(big.Int).Sub(amountIn, consumedIn), nil
}

// GetSwapResultFromExactOutput works backwards from the amount the trader
// wants to receive and grosses the required input up by the fee.
func GetSwapResultFromExactOutput(pool *state.Pool, amountOut *big.Int, feeMode shared.FeeMode, tradeDirection shared.TradeDirection, currentPoint *big.Int) (shared.SwapResult, error) {
	fees := newFeeAccumulator()
	maxFeeNumerator := GetMaxFeeNumerator(shared.PoolVersion(pool.Version))
	ctx := NewFeeContext(pool, currentPoint, tradeDirection)

	includedFeeAmountOut := new(big.Int).Set(amountOut)
	if !feeMode.FeesOnInput {
		tradeFeeNumerator, err := GetTotalTradingFeeFromExcludedFeeAmount(pool.PoolFees, ctx, amountOut, maxFeeNumerator)
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.numerator = tradeFeeNumerator
		includedFeeAmount, feeAmount, err := safe_math.GetIncludedFeeAmount(tradeFeeNumerator, amountOut)
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(SplitFees(pool.PoolFees, feeAmount, feeMode.HasReferral, pool.HasPartner()))
		includedFeeAmountOut = includedFeeAmount
	}

	var (
		inputAmount, nextSqrtPrice *big.Int
		err                        error
	)
	if tradeDirection == shared.TradeDirectionAtoB {
		inputAmount, nextSqrtPrice, err = calculateAtoBFromAmountOut(pool, includedFeeAmountOut)
	} else {
		inputAmount, nextSqrtPrice, err = calculateBtoAFromAmountOut(pool, includedFeeAmountOut)
	}
	if err != nil {
		return shared.SwapResult{}, err
	}

	includedFeeInputAmount := new(big.Int).Set(inputAmount)
	if feeMode.FeesOnInput {
		tradeFeeNumerator, err := GetTotalTradingFeeFromExcludedFeeAmount(pool.PoolFees, ctx, inputAmount, maxFeeNumerator)
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.numerator = tradeFeeNumerator
		includedFeeAmount, feeAmount, err := safe_math.GetIncludedFeeAmount(tradeFeeNumerator, inputAmount)
		if err != nil {
			return shared.SwapResult{}, err
		}
		fees.set(SplitFees(pool.PoolFees, feeAmount, feeMode.HasReferral, pool.HasPartner()))
		includedFeeInputAmount = includedFeeAmount
	}
	if _, err := safe_math.CheckedU64(includedFeeInputAmount); err != nil {
		return shared.SwapResult{}, err
	}

	return fees.result(shared.SwapResult{
		IncludedFeeInputAmount: includedFeeInputAmount,
		ExcludedFeeInputAmount: inputAmount,
		AmountLeft:             big.NewInt(0),
		OutputAmount:           new(big.Int).Set(amountOut),
		NextSqrtPrice:          nextSqrtPrice,
	}), nil
}

func calculateAtoBFromAmountOut(pool *state.Pool, amountOut *big.Int) (*big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	nextSqrt, err := GetNextSqrtPriceFromOutput(p.sqrtPrice, p.liquidity, amountOut, true)
	if err != nil {
		return nil, nil, err
	}
	if nextSqrt.Cmp(p.sqrtMin) < 0 {
		return nil, nil, fmt.Errorf("next sqrt price %s below min: %w", nextSqrt.String(), shared.ErrPriceOutOfRange)
	}
	inputAmount, err := GetAmountAFromLiquidityDelta(nextSqrt, p.sqrtPrice, p.liquidity, shared.RoundingUp)
	if err != nil {
		return nil, nil, err
	}
	return inputAmount, nextSqrt, nil
}

func calculateBtoAFromAmountOut(pool *state.Pool, amountOut *big.Int) (*big.Int, *big.Int, error) {
	p := getPoolBig(pool)
	nextSqrt, err := GetNextSqrtPriceFromOutput(p.sqrtPrice, p.liquidity, amountOut, false)
	if err != nil {
		return nil, nil, err
	}
	if nextSqrt.Cmp(p.sqrtMax) > 0 {
		return nil, nil, fmt.Errorf("next sqrt price %s above max: %w", nextSqrt.String(), shared.ErrPriceOutOfRange)
	}
	inputAmount, err := GetAmountBFromLiquidityDelta(p.sqrtPrice, nextSqrt, p.liquidity, shared.RoundingUp)
	if err != nil {
		return nil, nil, err
	}
	return inputAmount, nextSqrt, nil
}

// GetMaxAmountIn is the input that moves the price to the range bound in
// the trade direction, capped at u64.
func GetMaxAmountIn(pool *state.Pool, tradeDirection shared.TradeDirection) (*big.Int, error) {
	p := getPoolBig(pool)
	var amount *big.Int
	if tradeDirection == shared.TradeDirectionAtoB {
		var err error
		amount, err = GetAmountAFromLiquidityDeltaUnchecked(p.sqrtMin, p.sqrtPrice, p.liquidity, shared.RoundingDown)
		if err != nil {
			return nil, err
		}
	} else {
		amount = GetAmountBFromLiquidityDeltaUnchecked(p.sqrtPrice, p.sqrtMax, p.liquidity, shared.RoundingDown)
	}
	return safe_math.MinBig(amount, shared.U64Max), nil
}

// SwapQuote prices a trade without touching the pool. amount is the input
// for ExactIn and PartialFill and the desired output for ExactOut.
func SwapQuote(pool *state.Pool, currentPoint, amount *big.Int, swapMode shared.SwapMode, slippageBps uint16, aToB bool, hasReferral bool, tokenADecimal, tokenBDecimal uint8) (shared.QuoteResult, error) {
	if amount.Sign() <= 0 {
		return shared.QuoteResult{}, fmt.Errorf("quote amount: %w", shared.ErrAmountIsZero)
	}
	if !IsSwapEnabled(pool, currentPoint) {
		return shared.QuoteResult{}, shared.ErrSwapDisabled
	}
	tradeDirection := shared.TradeDirectionAtoB
	if !aToB {
		tradeDirection = shared.TradeDirectionBtoA
	}
	feeMode := GetFeeMode(pool.CollectFeeMode, tradeDirection, hasReferral)
	swapResult, err := GetSwapResult(pool, amount, swapMode, feeMode, tradeDirection, currentPoint)
	if err != nil {
		return shared.QuoteResult{}, err
	}

	quote := shared.QuoteResult{SwapResult: swapResult}
	if quote.FillableAmountIn, err = GetMaxAmountIn(pool, tradeDirection); err != nil {
		return shared.QuoteResult{}, err
	}
	if swapMode == shared.SwapModeExactOut {
		quote.MaximumAmountIn = GetAmountWithSlippage(swapResult.IncludedFeeInputAmount, slippageBps, swapMode)
	} else {
		quote.MinimumAmountOut = GetAmountWithSlippage(swapResult.OutputAmount, slippageBps, swapMode)
	}
	if swapResult.OutputAmount.Sign() > 0 {
		quote.PriceImpact, err = GetPriceImpact(swapResult.IncludedFeeInputAmount, swapResult.OutputAmount, pool.SqrtPrice.BigInt(), aToB, tokenADecimal, tokenBDecimal)
		if err != nil {
			return shared.QuoteResult{}, err
		}
	}
	return quote, nil
}

// IsSwapEnabled is true for an enabled pool at or after its activation point.
func IsSwapEnabled(pool *state.Pool, currentPoint *big.Int) bool {
	return pool.PoolStatus == uint8(shared.PoolStatusEnable) && currentPoint.Cmp(state.U64(pool.ActivationPoint)) >= 0
}

// GetAmountWithSlippage widens ExactOut inputs and narrows outputs by slippageBps.
func GetAmountWithSlippage(amount *big.Int, slippageBps uint16, swapMode shared.SwapMode) *big.Int {
	if slippageBps == 0 {
		return new(big.Int).Set(amount)
	}
	basisPointMax := big.NewInt(shared.BasisPointMax)
	var factor *big.Int
	if swapMode == shared.SwapModeExactOut {
		factor = new(big.Int).Add(basisPointMax, big.NewInt(int64(slippageBps)))
	} else {
		factor = new(big.Int).Sub(basisPointMax, big.NewInt(int64(slippageBps)))
	}
	return new(big.Int).Div(new(big.Int).Mul(amount, factor), basisPointMax)
}
