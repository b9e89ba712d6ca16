package shared

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Enums and common types shared by math, math/pool_fees and dammv2.
type Rounding uint8

const (
	RoundingUp   Rounding = 0
	RoundingDown Rounding = 1
)

type BaseFeeMode uint8

const (
	BaseFeeModeFeeTimeSchedulerLinear      BaseFeeMode = 0
	BaseFeeModeFeeTimeSchedulerExponential BaseFeeMode = 1
	BaseFeeModeRateLimiter                 BaseFeeMode = 2
	BaseFeeModeFeeMarketCapSchedulerLinear BaseFeeMode = 3
	BaseFeeModeFeeMarketCapSchedulerExp    BaseFeeMode = 4
)

func (m BaseFeeMode) IsTimeScheduler() bool {
	return m == BaseFeeModeFeeTimeSchedulerLinear || m == BaseFeeModeFeeTimeSchedulerExponential
}

func (m BaseFeeMode) IsMarketCapScheduler() bool {
	return m == BaseFeeModeFeeMarketCapSchedulerLinear || m == BaseFeeModeFeeMarketCapSchedulerExp
}

func (m BaseFeeMode) IsExponential() bool {
	return m == BaseFeeModeFeeTimeSchedulerExponential || m == BaseFeeModeFeeMarketCapSchedulerExp
}

func (m BaseFeeMode) String() string {
	switch m {
	case BaseFeeModeFeeTimeSchedulerLinear:
		return "time-linear"
	case BaseFeeModeFeeTimeSchedulerExponential:
		return "time-exponential"
	case BaseFeeModeRateLimiter:
		return "rate-limiter"
	case BaseFeeModeFeeMarketCapSchedulerLinear:
		return "market-cap-linear"
	case BaseFeeModeFeeMarketCapSchedulerExp:
		return "market-cap-exponential"
	default:
		return "unknown"
	}
}

type CollectFeeMode = uint8

const (
	CollectFeeModeBothToken CollectFeeMode = 0
	CollectFeeModeOnlyA     CollectFeeMode = 1
	CollectFeeModeOnlyB     CollectFeeMode = 2
)

type TradeDirection uint8

const (
	TradeDirectionAtoB TradeDirection = 0
	TradeDirectionBtoA TradeDirection = 1
)

type ActivationType = uint8

const (
	ActivationTypeSlot      ActivationType = 0
	ActivationTypeTimestamp ActivationType = 1
)

type PoolVersion uint8

const (
	PoolVersionV0 PoolVersion = 0
	PoolVersionV1 PoolVersion = 1
)

type PoolStatus uint8

const (
	PoolStatusEnable  PoolStatus = 0
	PoolStatusDisable PoolStatus = 1
)

type SwapMode uint8

const (
	SwapModeExactIn     SwapMode = 0
	SwapModePartialFill SwapMode = 1
	SwapModeExactOut    SwapMode = 2
)

// Fee mode helpers.
type FeeMode struct {
	FeesOnInput  bool
	FeesOnTokenA bool
	HasReferral  bool
}

type FeeOnAmountResult struct {
	FeeNumerator   *big.Int
	FeeAmount      *big.Int
	AmountAfterFee *big.Int
	TradingFee     *big.Int
	ProtocolFee    *big.Int
	PartnerFee     *big.Int
	ReferralFee    *big.Int
}

type SplitFees struct {
	TradingFee  *big.Int
	ProtocolFee *big.Int
	ReferralFee *big.Int
	PartnerFee  *big.Int
}

type SwapResult struct {
	IncludedFeeInputAmount *big.Int
	ExcludedFeeInputAmount *big.Int
	AmountLeft             *big.Int
	OutputAmount           *big.Int
	NextSqrtPrice          *big.Int
	FeeNumerator           *big.Int
	TradingFee             *big.Int
	ProtocolFee            *big.Int
	PartnerFee             *big.Int
	ReferralFee            *big.Int
}

// TotalFee is the fee charged to the trader before it is split.
func (r SwapResult) TotalFee() *big.Int {
	total := new(big.Int).Add(r.TradingFee, r.ProtocolFee)
	total.Add(total, r.PartnerFee)
	return total.Add(total, r.ReferralFee)
}

type QuoteResult struct {
	SwapResult
	MinimumAmountOut *big.Int
	MaximumAmountIn  *big.Int
	// FillableAmountIn is the curve input, before fees, that moves the price
	// to the range bound in the trade direction, capped at u64.
	FillableAmountIn *big.Int
	PriceImpact      decimal.Decimal
}

type ModifyLiquidityResult struct {
	TokenAAmount *big.Int
	TokenBAmount *big.Int
}

// FeeContext is everything a base fee handler may look at besides the trade amount.
type FeeContext struct {
	CurrentPoint     *big.Int
	ActivationPoint  *big.Int
	TradeDirection   TradeDirection
	InitSqrtPrice    *big.Int
	CurrentSqrtPrice *big.Int
	// ReachedPeriod is the last market cap period recorded on the pool.
	ReachedPeriod uint16
}

type BaseFeeHandler interface {
	Mode() BaseFeeMode
	Validate(collectFeeMode CollectFeeMode, activationType ActivationType, poolVersion PoolVersion) error
	GetBaseFeeNumeratorFromIncludedFeeAmount(ctx FeeContext, includedFeeAmount *big.Int) (*big.Int, error)
	GetBaseFeeNumeratorFromExcludedFeeAmount(ctx FeeContext, excludedFeeAmount *big.Int) (*big.Int, error)
	ValidateBaseFeeIsStatic(currentPoint, activationPoint *big.Int) bool
	GetMinFeeNumerator() (*big.Int, error)
	GetMaxFeeNumerator() (*big.Int, error)
}

const (
	BasisPointMax  = 10_000
	FeeDenominator = 1_000_000_000

	MinFeeBps       = 1
	MinFeeNumerator = 100_000

	MaxFeeBpsV0       = 5000
	MaxFeeNumeratorV0 = 500_000_000

	MaxFeeBpsV1       = 9900
	MaxFeeNumeratorV1 = 990_000_000

	ScaleOffset     = 64
	LiquidityScale  = 128
	RewardRateScale = 64
	U16Max          = 65535

	MaxRateLimiterDurationInSeconds = 43_200
	MaxRateLimiterDurationInSlots   = 108_000

	SplitPositionDenominator = 1_000_000_000

	NumRewards = 2

	DynamicFeeFilterPeriodDefault    = 10
	DynamicFeeDecayPeriodDefault     = 120
	DynamicFeeReductionFactorDefault = 5000
	BinStepBpsDefault                = 1
	MaxPriceChangeBpsDefault         = 1500

	MaxProtocolFeePercent = 50
	MaxPartnerFeePercent  = 50
	MaxReferralFeePercent = 50

	MaxRewardDuration = 31_536_000
	MinRewardDuration = 86_400
)

var (
	OneQ64         = new(big.Int).Lsh(big.NewInt(1), ScaleOffset)
	MaxExponential = big.NewInt(0x80000)
	MaxU128        = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	U128Max        = MaxU128
	U64Max         = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	U256Max        = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	MinSqrtPrice = bigIntFromString("4295048016")
	MaxSqrtPrice = bigIntFromString("79226673521066979257578248091")

	DynamicFeeScalingFactor  = big.NewInt(100000000000)
	DynamicFeeRoundingOffset = big.NewInt(99999999999)

	BinStepBpsU128Default = bigIntFromString("1844674407370955")
)

func bigIntFromString(v string) *big.Int {
	out, ok := new(big.Int).SetString(v, 10)
	if !ok {
		panic("invalid big integer literal")
	}
	return out
}
