package dammv2

import (
	"math/big"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// Enums.
type Rounding = shared.Rounding

const (
	RoundingUp   = shared.RoundingUp
	RoundingDown = shared.RoundingDown
)

type BaseFeeMode = shared.BaseFeeMode

const (
	BaseFeeModeFeeTimeSchedulerLinear      = shared.BaseFeeModeFeeTimeSchedulerLinear
	BaseFeeModeFeeTimeSchedulerExponential = shared.BaseFeeModeFeeTimeSchedulerExponential
	BaseFeeModeRateLimiter                 = shared.BaseFeeModeRateLimiter
	BaseFeeModeFeeMarketCapSchedulerLinear = shared.BaseFeeModeFeeMarketCapSchedulerLinear
	BaseFeeModeFeeMarketCapSchedulerExp    = shared.BaseFeeModeFeeMarketCapSchedulerExp
)

type CollectFeeMode = shared.CollectFeeMode

const (
	CollectFeeModeBothToken = shared.CollectFeeModeBothToken
	CollectFeeModeOnlyA     = shared.CollectFeeModeOnlyA
	CollectFeeModeOnlyB     = shared.CollectFeeModeOnlyB
)

type TradeDirection = shared.TradeDirection

const (
	TradeDirectionAtoB = shared.TradeDirectionAtoB
	TradeDirectionBtoA = shared.TradeDirectionBtoA
)

type ActivationType = shared.ActivationType

const (
	ActivationTypeSlot      = shared.ActivationTypeSlot
	ActivationTypeTimestamp = shared.ActivationTypeTimestamp
)

type PoolVersion = shared.PoolVersion

const (
	PoolVersionV0 = shared.PoolVersionV0
	PoolVersionV1 = shared.PoolVersionV1
)

type PoolStatus = shared.PoolStatus

const (
	PoolStatusEnable  = shared.PoolStatusEnable
	PoolStatusDisable = shared.PoolStatusDisable
)

type SwapMode = shared.SwapMode

const (
	SwapModeExactIn     = shared.SwapModeExactIn
	SwapModePartialFill = shared.SwapModePartialFill
	SwapModeExactOut    = shared.SwapModeExactOut
)

// Record aliases.
type PoolState = state.Pool

type PositionState = state.Position

type InnerVesting = state.InnerVesting

type RewardInfo = state.RewardInfo

type BaseFee = helpers.BaseFeeParameters

type DynamicFee = helpers.DynamicFeeParameters

// Results.
type SwapResult = shared.SwapResult

type QuoteResult = shared.QuoteResult

type ModifyLiquidityResult = shared.ModifyLiquidityResult

// PoolFeeParameters configures the fees of a new pool. A nil DynamicFee
// leaves the surcharge disabled.
type PoolFeeParameters struct {
	BaseFee            BaseFee
	ProtocolFeePercent uint8
	PartnerFeePercent  uint8
	ReferralFeePercent uint8
	DynamicFee         *DynamicFee
}

type InitializePoolParams struct {
	Config          solanago.PublicKey
	Creator         solanago.PublicKey
	Partner         solanago.PublicKey
	TokenAMint      solanago.PublicKey
	TokenBMint      solanago.PublicKey
	PositionNftMint solanago.PublicKey
	PoolFees        PoolFeeParameters
	SqrtMinPrice    *big.Int
	SqrtMaxPrice    *big.Int
	SqrtPrice       *big.Int
	Liquidity       *big.Int
	ActivationType  ActivationType
	// ActivationPoint defaults to the current point.
	ActivationPoint *uint64
	CollectFeeMode  CollectFeeMode
	PoolVersion     PoolVersion
}

type InitializePoolResult struct {
	Pool         solanago.PublicKey
	Position     solanago.PublicKey
	TokenAAmount *big.Int
	TokenBAmount *big.Int
}

// SwapParams describes one trade. Amount is the input for ExactIn and
// PartialFill and the desired output for ExactOut. Threshold is the minimum
// output, or the maximum input for ExactOut; nil disables the check.
type SwapParams struct {
	Amount         *big.Int
	SwapMode       SwapMode
	TradeDirection TradeDirection
	Threshold      *big.Int
	HasReferral    bool
}

type AddLiquidityParams struct {
	LiquidityDelta *big.Int
	// Maximum token amounts the caller is willing to deposit; nil means unbounded.
	TokenAAmountThreshold *big.Int
	TokenBAmountThreshold *big.Int
}

type RemoveLiquidityParams struct {
	LiquidityDelta *big.Int
	// Minimum token amounts the caller expects back; nil means zero.
	TokenAAmountThreshold *big.Int
	TokenBAmountThreshold *big.Int
}

// LockPositionParams locks liquidity under a vesting schedule. A nil
// CliffPoint means the current point. CliffPoint = state.PermanentCliffPoint
// with NumberOfPeriod = 0 is a permanent lock.
type LockPositionParams struct {
	CliffPoint           *uint64
	PeriodFrequency      uint64
	CliffUnlockLiquidity *big.Int
	LiquidityPerPeriod   *big.Int
	NumberOfPeriod       uint16
}

// SplitPositionParameters is the legacy form with whole percentages.
type SplitPositionParameters struct {
	UnlockedLiquidityPercentage        uint8
	PermanentLockedLiquidityPercentage uint8
	FeeAPercentage                     uint8
	FeeBPercentage                     uint8
	Reward0Percentage                  uint8
	Reward1Percentage                  uint8
	InnerVestingLiquidityPercentage    uint8
}

// SplitPositionParameters2 carries numerators over SplitPositionDenominator.
type SplitPositionParameters2 struct {
	UnlockedLiquidityNumerator        uint32
	PermanentLockedLiquidityNumerator uint32
	FeeANumerator                     uint32
	FeeBNumerator                     uint32
	Reward0Numerator                  uint32
	Reward1Numerator                  uint32
	InnerVestingLiquidityNumerator    uint32
}

// SplitAmountInfo reports what moved from the first position to the second.
type SplitAmountInfo struct {
	UnlockedLiquidity        *big.Int
	PermanentLockedLiquidity *big.Int
	VestedLiquidity          *big.Int
	FeeA                     uint64
	FeeB                     uint64
	Rewards                  [NumRewards]uint64
}

type ClaimFeeResult struct {
	FeeA uint64
	FeeB uint64
}

type InitializeRewardParams struct {
	Pool           solanago.PublicKey
	RewardIndex    uint8
	Mint           solanago.PublicKey
	Funder         solanago.PublicKey
	RewardDuration uint64
}

type FundRewardParams struct {
	RewardIndex uint8
	Amount      uint64
	// CarryForward adds rewards that accrued while the pool was empty.
	CarryForward bool
}

// UpdatePoolFeesParams changes the cliff fee numerator, the dynamic fee, or
// both. A zero DynamicFee disables the surcharge.
type UpdatePoolFeesParams struct {
	CliffFeeNumerator *uint64
	DynamicFee        *DynamicFee
}
