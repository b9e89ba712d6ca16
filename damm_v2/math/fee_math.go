package math

import (
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/math/safe_math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// GetFeeMode decides which token a trade is taxed in.
//
//	BothToken: fees on the output token in both directions
//	OnlyA:     A to B on input, B to A on output
//	OnlyB:     A to B on output, B to A on input
func GetFeeMode(collectFeeMode shared.CollectFeeMode, tradeDirection shared.TradeDirection, hasReferral bool) shared.FeeMode {
	var feesOnInput, feesOnTokenA bool
	switch collectFeeMode {
	case shared.CollectFeeModeOnlyA:
		feesOnInput = tradeDirection == shared.TradeDirectionAtoB
		feesOnTokenA = true
	case shared.CollectFeeModeOnlyB:
		feesOnInput = tradeDirection == shared.TradeDirectionBtoA
		feesOnTokenA = false
	default:
		feesOnInput = false
		feesOnTokenA = tradeDirection == shared.TradeDirectionBtoA
	}
	return shared.FeeMode{FeesOnInput: feesOnInput, FeesOnTokenA: feesOnTokenA, HasReferral: hasReferral}
}

// NewFeeContext snapshots what the base fee handlers read from a pool.
func NewFeeContext(pool *state.Pool, currentPoint *big.Int, tradeDirection shared.TradeDirection) shared.FeeContext {
	return shared.FeeContext{
		CurrentPoint:     currentPoint,
		ActivationPoint:  state.U64(pool.ActivationPoint),
		TradeDirection:   tradeDirection,
		InitSqrtPrice:    pool.PoolFees.InitSqrtPrice.BigInt(),
		CurrentSqrtPrice: pool.SqrtPrice.BigInt(),
		ReachedPeriod:    pool.PoolFees.ReachedPeriod,
	}
}

// GetTotalFeeNumerator returns min(base + dynamic, maxFeeNumerator).
func GetTotalFeeNumerator(poolFees state.PoolFeesStruct, baseFeeNumerator, maxFeeNumerator *big.Int) *big.Int {
	totalFee := new(big.Int).Add(pool_fees.DynamicFeeNumerator(poolFees.DynamicFee), baseFeeNumerator)
	if totalFee.Cmp(maxFeeNumerator) > 0 {
		return new(big.Int).Set(maxFeeNumerator)
	}
	return totalFee
}

func GetTotalTradingFeeFromIncludedFeeAmount(poolFees state.PoolFeesStruct, ctx shared.FeeContext, includedFeeAmount, maxFeeNumerator *big.Int) (*big.Int, error) {
	baseFeeHandler, err := pool_fees.GetBaseFeeHandler(poolFees.BaseFee.Data[:])
	if err != nil {
		return nil, err
	}
	baseFeeNumerator, err := baseFeeHandler.GetBaseFeeNumeratorFromIncludedFeeAmount(ctx, includedFeeAmount)
	if err != nil {
		return nil, err
	}
	return GetTotalFeeNumerator(poolFees, baseFeeNumerator, maxFeeNumerator), nil
}

func GetTotalTradingFeeFromExcludedFeeAmount(poolFees state.PoolFeesStruct, ctx shared.FeeContext, excludedFeeAmount, maxFeeNumerator *big.Int) (*big.Int, error) {
	baseFeeHandler, err := pool_fees.GetBaseFeeHandler(poolFees.BaseFee.Data[:])
	if err != nil {
		return nil, err
	}
	baseFeeNumerator, err := baseFeeHandler.GetBaseFeeNumeratorFromExcludedFeeAmount(ctx, excludedFeeAmount)
	if err != nil {
		return nil, err
	}
	return GetTotalFeeNumerator(poolFees, baseFeeNumerator, maxFeeNumerator), nil
}

// SplitFees divides a charged fee between LPs, protocol, referral and partner.
func SplitFees(poolFees state.PoolFeesStruct, feeAmount *big.Int, hasReferral bool, hasPartner bool) shared.SplitFees {
	hundred := big.NewInt(100)
	protocolFee := new(big.Int).Mul(feeAmount, big.NewInt(int64(poolFees.ProtocolFeePercent)))
	protocolFee.Div(protocolFee, hundred)
	tradingFee := new(big.Int).Sub(feeAmount, protocolFee)
	referralFee := big.NewInt(0)
	if hasReferral {
		referralFee = new(big.Int).Mul(protocolFee, big.NewInt(int64(poolFees.ReferralFeePercent)))
		referralFee.Div(referralFee, hundred)
	}
	protocolFeeAfterReferral := new(big.Int).Sub(protocolFee, referralFee)
	partnerFee := big.NewInt(0)
	if hasPartner && poolFees.PartnerFeePercent > 0 {
		partnerFee = new(big.Int).Mul(protocolFeeAfterReferral, big.NewInt(int64(poolFees.PartnerFeePercent)))
		partnerFee.Div(partnerFee, hundred)
	}
	finalProtocolFee := new(big.Int).Sub(protocolFeeAfterReferral, partnerFee)
	return shared.SplitFees{TradingFee: tradingFee, ProtocolFee: finalProtocolFee, ReferralFee: referralFee, PartnerFee: partnerFee}
}

func GetFeeOnAmount(poolFees state.PoolFeesStruct, amount, tradeFeeNumerator *big.Int, hasReferral, hasPartner bool) (shared.FeeOnAmountResult, error) {
	excludedFeeAmount, tradingFee, err := safe_math.GetExcludedFeeAmount(tradeFeeNumerator, amount)
	if err != nil {
		return shared.FeeOnAmountResult{}, err
	}
	split := SplitFees(poolFees, tradingFee, hasReferral, hasPartner)
	return shared.FeeOnAmountResult{
		FeeNumerator:   tradeFeeNumerator,
		FeeAmount:      tradingFee,
		AmountAfterFee: excludedFeeAmount,
		TradingFee:     split.TradingFee,
		ProtocolFee:    split.ProtocolFee,
		ReferralFee:    split.ReferralFee,
		PartnerFee:     split.PartnerFee,
	}, nil
}

func GetMaxFeeNumerator(poolVersion shared.PoolVersion) *big.Int {
	return pool_fees.GetMaxFeeNumerator(poolVersion)
}

func GetMaxFeeBps(poolVersion shared.PoolVersion) uint64 {
	return pool_fees.GetMaxFeeBps(poolVersion)
}
