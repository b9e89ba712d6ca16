package helpers

const (
	// AccountKeyPool is the account key for liquidity pool records
	AccountKeyPool = "Pool"
	// AccountKeyPosition is the account key for position records
	AccountKeyPosition = "Position"

	// RewardPerTokenShift scales reward per token accumulators (Q64 rate over Q128 liquidity share).
	RewardPerTokenShift = 192

	MaxSlippageBps = 10_000
)

type TokenDecimal = uint8

const (
	TokenDecimalSix   TokenDecimal = 6
	TokenDecimalSeven TokenDecimal = 7
	TokenDecimalEight TokenDecimal = 8
	TokenDecimalNine  TokenDecimal = 9
)
