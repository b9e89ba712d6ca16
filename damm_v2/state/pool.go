package state

import (
	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// BaseFeeStruct holds the pod-aligned base fee blob. Byte 8 is the mode.
type BaseFeeStruct struct {
	Data [32]uint8
}

type DynamicFeeStruct struct {
	Initialized              uint8
	Padding                  [7]uint8
	MaxVolatilityAccumulator uint32
	VariableFeeControl       uint32
	BinStep                  uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	LastUpdateTimestamp      uint64
	BinStepU128              binary.Uint128
	SqrtPriceReference       binary.Uint128
	VolatilityAccumulator    binary.Uint128
	VolatilityReference      binary.Uint128
}

type PoolFeesStruct struct {
	BaseFee            BaseFeeStruct
	ProtocolFeePercent uint8
	PartnerFeePercent  uint8
	ReferralFeePercent uint8
	Padding0           [5]uint8
	DynamicFee         DynamicFeeStruct
	InitSqrtPrice      binary.Uint128
	ReachedPeriod      uint16
	Padding1           [14]uint8
}

type PoolMetrics struct {
	TotalLpAFee       binary.Uint128
	TotalLpBFee       binary.Uint128
	TotalProtocolAFee uint64
	TotalProtocolBFee uint64
	TotalPartnerAFee  uint64
	TotalPartnerBFee  uint64
	TotalPosition     uint64
	Padding           uint64
}

type RewardInfo struct {
	Initialized                               uint8
	RewardTokenFlag                           uint8
	Padding0                                  [6]uint8
	Padding1                                  [8]uint8
	Mint                                      solanago.PublicKey
	Vault                                     solanago.PublicKey
	Funder                                    solanago.PublicKey
	RewardDuration                            uint64
	RewardDurationEnd                         uint64
	RewardRate                                binary.Uint128
	RewardPerTokenStored                      [32]uint8
	LastUpdateTime                            uint64
	CumulativeSecondsWithEmptyLiquidityReward uint64
}

type Pool struct {
	PoolFees               PoolFeesStruct
	TokenAMint             solanago.PublicKey
	TokenBMint             solanago.PublicKey
	TokenAVault            solanago.PublicKey
	TokenBVault            solanago.PublicKey
	WhitelistedVault       solanago.PublicKey
	Partner                solanago.PublicKey
	Liquidity              binary.Uint128
	Padding                binary.Uint128
	ProtocolAFee           uint64
	ProtocolBFee           uint64
	PartnerAFee            uint64
	PartnerBFee            uint64
	SqrtMinPrice           binary.Uint128
	SqrtMaxPrice           binary.Uint128
	SqrtPrice              binary.Uint128
	ActivationPoint        uint64
	ActivationType         uint8
	PoolStatus             uint8
	TokenAFlag             uint8
	TokenBFlag             uint8
	CollectFeeMode         uint8
	PoolType               uint8
	Version                uint8
	Padding0               uint8
	FeeAPerLiquidity       [32]uint8
	FeeBPerLiquidity       [32]uint8
	PermanentLockLiquidity binary.Uint128
	Metrics                PoolMetrics
	Creator                solanago.PublicKey
	Padding1               [6]uint64
	RewardInfos            [2]RewardInfo
}

// HasPartner reports whether partner fees are split out of the protocol share.
func (p *Pool) HasPartner() bool {
	return !p.Partner.IsZero()
}

func (r *RewardInfo) IsInitialized() bool {
	return r.Initialized != 0
}

func (d *DynamicFeeStruct) IsInitialized() bool {
	return d.Initialized != 0
}
