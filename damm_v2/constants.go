package dammv2

import (
	"math/big"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

const (
	LiquidityScale = shared.LiquidityScale
	ScaleOffset    = shared.ScaleOffset

	BasisPointMax  = shared.BasisPointMax
	FeeDenominator = shared.FeeDenominator

	MinFeeBps       = shared.MinFeeBps       // 0.01%
	MinFeeNumerator = shared.MinFeeNumerator // 0.01%

	MaxFeeBpsV0       = shared.MaxFeeBpsV0       // 50%
	MaxFeeNumeratorV0 = shared.MaxFeeNumeratorV0 // 50%

	MaxFeeBpsV1       = shared.MaxFeeBpsV1       // 99%
	MaxFeeNumeratorV1 = shared.MaxFeeNumeratorV1 // 99%

	SplitPositionDenominator = shared.SplitPositionDenominator

	NumRewards        = shared.NumRewards
	MinRewardDuration = shared.MinRewardDuration
	MaxRewardDuration = shared.MaxRewardDuration

	// legacy split parameters are whole percentages
	splitPercentMax = 100
)

const (
	seedPool        = "pool"
	seedPosition    = "position"
	seedTokenVault  = "token_vault"
	seedRewardVault = "reward_vault"
	seedConfig      = "config"
)

var (
	// CpAmmProgramID namespaces every derived record key.
	CpAmmProgramID = solanago.MustPublicKeyFromBase58("cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG")

	CurrentPoolVersion = shared.PoolVersionV1

	MinSqrtPrice = shared.MinSqrtPrice
	MaxSqrtPrice = shared.MaxSqrtPrice
	U64Max       = shared.U64Max
	U128Max      = shared.U128Max
)

// Clock is the environment's view of time for one invocation.
type Clock struct {
	Slot          uint64
	UnixTimestamp uint64
}

// CurrentPoint picks the slot or the timestamp according to the pool's activation type.
func (c Clock) CurrentPoint(activationType shared.ActivationType) uint64 {
	if activationType == shared.ActivationTypeSlot {
		return c.Slot
	}
	return c.UnixTimestamp
}

func (c Clock) currentPointBig(activationType shared.ActivationType) *big.Int {
	return new(big.Int).SetUint64(c.CurrentPoint(activationType))
}
