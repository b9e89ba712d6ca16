package dammv2

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// InitializePool creates a pool and its first position holding the initial
// liquidity. The returned amounts are what the creator must deposit.
func InitializePool(params InitializePoolParams, clock Clock) (*state.Pool, *state.Position, InitializePoolResult, error) {
	if params.TokenAMint.Equals(params.TokenBMint) {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("token mints are identical: %w", shared.ErrInvalidParameters)
	}
	if params.SqrtMinPrice == nil || params.SqrtMaxPrice == nil || params.SqrtPrice == nil {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("missing sqrt price: %w", shared.ErrInvalidPriceRange)
	}
	if params.Liquidity == nil || params.Liquidity.Sign() <= 0 {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("initial liquidity: %w", shared.ErrAmountIsZero)
	}
	if !fitsU128(params.Liquidity) {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("initial liquidity: %w", shared.ErrArithmeticOverflow)
	}
	if err := ValidateActivationType(params.ActivationType); err != nil {
		return nil, nil, InitializePoolResult{}, err
	}
	if err := ValidateCollectFeeMode(params.CollectFeeMode); err != nil {
		return nil, nil, InitializePoolResult{}, err
	}
	if params.PoolVersion > CurrentPoolVersion {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("pool version %d: %w", params.PoolVersion, shared.ErrInvalidParameters)
	}
	if err := ValidatePoolFees(params.PoolFees, params.CollectFeeMode, params.ActivationType, params.PoolVersion); err != nil {
		return nil, nil, InitializePoolResult{}, err
	}
	if err := math.ValidatePriceRange(params.SqrtPrice, params.SqrtMinPrice, params.SqrtMaxPrice); err != nil {
		return nil, nil, InitializePoolResult{}, err
	}

	currentPoint := clock.CurrentPoint(params.ActivationType)
	activationPoint := currentPoint
	if params.ActivationPoint != nil {
		activationPoint = *params.ActivationPoint
	}

	amounts, err := GetInitialPoolAmounts(params.Liquidity, params.SqrtMinPrice, params.SqrtMaxPrice, params.SqrtPrice)
	if err != nil {
		return nil, nil, InitializePoolResult{}, err
	}
	if !fitsU64(amounts.TokenAAmount) || !fitsU64(amounts.TokenBAmount) {
		return nil, nil, InitializePoolResult{}, fmt.Errorf("initial deposit: %w", shared.ErrArithmeticOverflow)
	}

	baseFee, err := helpers.ToPodAlignedBaseFee(params.PoolFees.BaseFee)
	if err != nil {
		return nil, nil, InitializePoolResult{}, err
	}

	poolKey := DerivePoolAddress(params.Config, params.TokenAMint, params.TokenBMint)
	pool := &state.Pool{
		PoolFees: state.PoolFeesStruct{
			BaseFee:            state.BaseFeeStruct{Data: baseFee},
			ProtocolFeePercent: params.PoolFees.ProtocolFeePercent,
			PartnerFeePercent:  params.PoolFees.PartnerFeePercent,
			ReferralFeePercent: params.PoolFees.ReferralFeePercent,
			InitSqrtPrice:      state.U128(params.SqrtPrice),
		},
		TokenAMint:      params.TokenAMint,
		TokenBMint:      params.TokenBMint,
		TokenAVault:     DeriveTokenVaultAddress(params.TokenAMint, poolKey),
		TokenBVault:     DeriveTokenVaultAddress(params.TokenBMint, poolKey),
		Partner:         params.Partner,
		Creator:         params.Creator,
		SqrtMinPrice:    state.U128(params.SqrtMinPrice),
		SqrtMaxPrice:    state.U128(params.SqrtMaxPrice),
		SqrtPrice:       state.U128(params.SqrtPrice),
		ActivationPoint: activationPoint,
		ActivationType:  params.ActivationType,
		PoolStatus:      uint8(PoolStatusEnable),
		CollectFeeMode:  params.CollectFeeMode,
		Version:         uint8(params.PoolVersion),
	}
	if params.PoolFees.DynamicFee != nil {
		pool.PoolFees.DynamicFee = newDynamicFeeStruct(*params.PoolFees.DynamicFee)
	}

	position := newPosition(pool, poolKey, params.Creator, params.PositionNftMint)
	position.UnlockedLiquidity = state.U128(params.Liquidity)
	pool.Liquidity = state.U128(params.Liquidity)
	pool.Metrics.TotalPosition = 1

	return pool, position, InitializePoolResult{
		Pool:         poolKey,
		Position:     DerivePositionAddress(params.PositionNftMint),
		TokenAAmount: amounts.TokenAAmount,
		TokenBAmount: amounts.TokenBAmount,
	}, nil
}

// GetInitialPoolAmounts is the deposit InitializePool will ask for.
func GetInitialPoolAmounts(liquidity, sqrtMinPrice, sqrtMaxPrice, sqrtPrice *big.Int) (ModifyLiquidityResult, error) {
	return math.AmountsFromLiquidity(liquidity, sqrtMinPrice, sqrtMaxPrice, sqrtPrice, RoundingUp)
}

// newDynamicFeeStruct builds an enabled surcharge with zeroed mutable state.
func newDynamicFeeStruct(params DynamicFee) state.DynamicFeeStruct {
	return state.DynamicFeeStruct{
		Initialized:              1,
		MaxVolatilityAccumulator: params.MaxVolatilityAccumulator,
		VariableFeeControl:       params.VariableFeeControl,
		BinStep:                  params.BinStep,
		FilterPeriod:             params.FilterPeriod,
		DecayPeriod:              params.DecayPeriod,
		ReductionFactor:          params.ReductionFactor,
		BinStepU128:              params.BinStepU128,
	}
}

// IsPoolActive reports whether swaps are accepted at currentPoint.
func IsPoolActive(pool *state.Pool, clock Clock) bool {
	return math.IsSwapEnabled(pool, clock.currentPointBig(pool.ActivationType))
}
