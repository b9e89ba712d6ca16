package helpers

import (
	binary "github.com/gagliardetto/binary"
)

// DynamicFeeParameters configures the volatility surcharge of a pool.
type DynamicFeeParameters struct {
	BinStep                  uint16
	BinStepU128              binary.Uint128
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	MaxVolatilityAccumulator uint32
	VariableFeeControl       uint32
}

// PendingFees is what a position could claim right now.
type PendingFees struct {
	FeeA    uint64
	FeeB    uint64
	Rewards [2]uint64
}
