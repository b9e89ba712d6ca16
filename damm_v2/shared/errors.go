package shared

import "errors"

var (
	ErrArithmeticOverflow      = errors.New("arithmetic overflow")
	ErrInvalidFeeConfiguration = errors.New("invalid fee configuration")
	ErrPriceOutOfRange         = errors.New("price range is violated")
	ErrPositionLocked          = errors.New("position liquidity is locked")
	ErrSamePosition            = errors.New("source and destination positions are the same")
	ErrCannotUpdateBaseFee     = errors.New("cannot update base fee while the scheduler is active")
	ErrInsufficientLiquidity   = errors.New("insufficient liquidity")
	ErrSlippageExceeded        = errors.New("exceeded slippage tolerance")

	ErrInvalidBaseFeeMode             = errors.New("invalid base fee mode")
	ErrInvalidVestingInfo             = errors.New("invalid vesting information")
	ErrInvalidSplitPositionParameters = errors.New("invalid split position parameters")
	ErrPositionNotEmpty               = errors.New("position is not empty")
	ErrSwapDisabled                   = errors.New("swap is disabled")
	ErrInvalidRewardIndex             = errors.New("invalid reward index")
	ErrRewardUninitialized            = errors.New("reward is not initialized")
	ErrRewardInitialized              = errors.New("reward is already initialized")
	ErrInvalidRewardDuration          = errors.New("invalid reward duration")
	ErrAmountIsZero                   = errors.New("amount is zero")
	ErrInvalidPriceRange              = errors.New("invalid price range")
	ErrInvalidParameters              = errors.New("invalid parameters")
	ErrDynamicFeeAlreadyInState       = errors.New("dynamic fee is already in the requested state")
	ErrRewardNotEnded                 = errors.New("reward duration has not ended")
	ErrPartnerNotSet                  = errors.New("pool has no partner")
	ErrPositionPoolMismatch           = errors.New("position belongs to another pool")
)

var ErrRecordNotFound = errors.New("record not found")
