package dammv2

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// RecordStore persists pool and position records. Lookups of missing keys
// return an error wrapping shared.ErrRecordNotFound.
type RecordStore interface {
	GetPool(ctx context.Context, key solanago.PublicKey) (*state.Pool, error)
	GetPosition(ctx context.Context, key solanago.PublicKey) (*state.Position, error)
	ListPositionsByPool(ctx context.Context, pool solanago.PublicKey) (map[solanago.PublicKey]*state.Position, error)
	// UpdatePoolAndPositions writes the pool and every position atomically.
	// A nil position deletes the record.
	UpdatePoolAndPositions(ctx context.Context, poolKey solanago.PublicKey, pool *state.Pool, positions map[solanago.PublicKey]*state.Position) error
}

// CpAmm runs engine operations against a RecordStore, one at a time.
type CpAmm struct {
	store RecordStore
	mu    sync.Mutex
}

func NewCpAmm(store RecordStore) *CpAmm {
	return &CpAmm{store: store}
}

func (c *CpAmm) FetchPoolState(ctx context.Context, pool solanago.PublicKey) (*PoolState, error) {
	return c.store.GetPool(ctx, pool)
}

func (c *CpAmm) FetchPositionState(ctx context.Context, position solanago.PublicKey) (*PositionState, error) {
	return c.store.GetPosition(ctx, position)
}

func (c *CpAmm) GetAllPositionsByPool(ctx context.Context, pool solanago.PublicKey) (map[solanago.PublicKey]*PositionState, error) {
	return c.store.ListPositionsByPool(ctx, pool)
}

// IsPoolExist reports whether a pool record is stored under key.
func (c *CpAmm) IsPoolExist(ctx context.Context, pool solanago.PublicKey) (bool, error) {
	_, err := c.store.GetPool(ctx, pool)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// loadPosition fetches a position and the pool it belongs to.
func (c *CpAmm) loadPosition(ctx context.Context, positionKey solanago.PublicKey) (*state.Pool, *state.Position, error) {
	position, err := c.store.GetPosition(ctx, positionKey)
	if err != nil {
		return nil, nil, err
	}
	pool, err := c.store.GetPool(ctx, position.Pool)
	if err != nil {
		return nil, nil, err
	}
	return pool, position, nil
}

// withPool loads a pool, applies fn and persists the result when fn succeeds.
func (c *CpAmm) withPool(ctx context.Context, poolKey solanago.PublicKey, fn func(pool *state.Pool) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.store.GetPool(ctx, poolKey)
	if err != nil {
		return err
	}
	if err := fn(pool); err != nil {
		return err
	}
	return c.store.UpdatePoolAndPositions(ctx, poolKey, pool, nil)
}

// withPosition loads a position and its pool, applies fn and persists both
// when fn succeeds.
func (c *CpAmm) withPosition(ctx context.Context, positionKey solanago.PublicKey, fn func(pool *state.Pool, position *state.Position) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, position, err := c.loadPosition(ctx, positionKey)
	if err != nil {
		return err
	}
	if err := fn(pool, position); err != nil {
		return err
	}
	return c.store.UpdatePoolAndPositions(ctx, position.Pool, pool, map[solanago.PublicKey]*state.Position{positionKey: position})
}

// CreatePool initializes a pool and its first position and stores both.
func (c *CpAmm) CreatePool(ctx context.Context, params InitializePoolParams, clock Clock) (InitializePoolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, position, result, err := InitializePool(params, clock)
	if err != nil {
		return InitializePoolResult{}, err
	}
	if _, err := c.store.GetPool(ctx, result.Pool); err == nil {
		return InitializePoolResult{}, fmt.Errorf("pool %s already exists: %w", result.Pool, shared.ErrInvalidParameters)
	} else if !errors.Is(err, shared.ErrRecordNotFound) {
		return InitializePoolResult{}, err
	}
	positions := map[solanago.PublicKey]*state.Position{result.Position: position}
	if err := c.store.UpdatePoolAndPositions(ctx, result.Pool, pool, positions); err != nil {
		return InitializePoolResult{}, err
	}
	return result, nil
}

func (c *CpAmm) Swap(ctx context.Context, poolKey solanago.PublicKey, params SwapParams, clock Clock) (SwapResult, error) {
	var result SwapResult
	err := c.withPool(ctx, poolKey, func(pool *state.Pool) (err error) {
		result, err = Swap(pool, params, clock)
		return err
	})
	return result, err
}

// GetQuote prices a swap without persisting anything.
func (c *CpAmm) GetQuote(ctx context.Context, poolKey solanago.PublicKey, params SwapParams, clock Clock, slippageBps uint16, tokenADecimal, tokenBDecimal uint8) (QuoteResult, error) {
	pool, err := c.store.GetPool(ctx, poolKey)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteSwap(pool, params, clock, slippageBps, tokenADecimal, tokenBDecimal)
}

// CreatePosition opens an empty position and returns its key.
func (c *CpAmm) CreatePosition(ctx context.Context, poolKey, owner, nftMint solanago.PublicKey, clock Clock) (solanago.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.store.GetPool(ctx, poolKey)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	position, positionKey, err := CreatePosition(pool, poolKey, owner, nftMint, clock)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	if _, err := c.store.GetPosition(ctx, positionKey); err == nil {
		return solanago.PublicKey{}, fmt.Errorf("position %s already exists: %w", positionKey, shared.ErrInvalidParameters)
	} else if !errors.Is(err, shared.ErrRecordNotFound) {
		return solanago.PublicKey{}, err
	}
	positions := map[solanago.PublicKey]*state.Position{positionKey: position}
	if err := c.store.UpdatePoolAndPositions(ctx, poolKey, pool, positions); err != nil {
		return solanago.PublicKey{}, err
	}
	return positionKey, nil
}

func (c *CpAmm) AddLiquidity(ctx context.Context, positionKey solanago.PublicKey, params AddLiquidityParams, clock Clock) (ModifyLiquidityResult, error) {
	var result ModifyLiquidityResult
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		result, err = AddLiquidity(pool, position, params, clock)
		return err
	})
	return result, err
}

func (c *CpAmm) RemoveLiquidity(ctx context.Context, positionKey solanago.PublicKey, params RemoveLiquidityParams, clock Clock) (ModifyLiquidityResult, error) {
	var result ModifyLiquidityResult
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		result, err = RemoveLiquidity(pool, position, params, clock)
		return err
	})
	return result, err
}

func (c *CpAmm) RemoveAllLiquidity(ctx context.Context, positionKey solanago.PublicKey, tokenAAmountThreshold, tokenBAmountThreshold *big.Int, clock Clock) (ModifyLiquidityResult, error) {
	var result ModifyLiquidityResult
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		result, err = RemoveAllLiquidity(pool, position, tokenAAmountThreshold, tokenBAmountThreshold, clock)
		return err
	})
	return result, err
}

// ClosePosition deletes a drained position.
func (c *CpAmm) ClosePosition(ctx context.Context, positionKey solanago.PublicKey, clock Clock) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, position, err := c.loadPosition(ctx, positionKey)
	if err != nil {
		return err
	}
	if err := ClosePosition(pool, position, clock); err != nil {
		return err
	}
	return c.store.UpdatePoolAndPositions(ctx, position.Pool, pool, map[solanago.PublicKey]*state.Position{positionKey: nil})
}

func (c *CpAmm) RefreshVesting(ctx context.Context, positionKey solanago.PublicKey, clock Clock) (*big.Int, error) {
	var released *big.Int
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		released, err = RefreshVesting(position, clock.CurrentPoint(pool.ActivationType))
		return err
	})
	return released, err
}

func (c *CpAmm) LockPosition(ctx context.Context, positionKey solanago.PublicKey, params LockPositionParams, clock Clock) error {
	return c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) error {
		return LockPosition(pool, position, params, clock)
	})
}

func (c *CpAmm) PermanentLockPosition(ctx context.Context, positionKey solanago.PublicKey, amount *big.Int, clock Clock) error {
	return c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) error {
		return PermanentLockPosition(pool, position, amount, clock)
	})
}

func (c *CpAmm) PermanentUnlockPosition(ctx context.Context, positionKey solanago.PublicKey, amount *big.Int) error {
	return c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) error {
		return PermanentUnlockPosition(pool, position, amount)
	})
}

// ReleasePermanentVesting unlocks a schedule whose cliff never arrives.
func (c *CpAmm) ReleasePermanentVesting(ctx context.Context, positionKey solanago.PublicKey) (*big.Int, error) {
	var released *big.Int
	err := c.withPosition(ctx, positionKey, func(_ *state.Pool, position *state.Position) (err error) {
		released, err = ReleasePermanentVesting(position)
		return err
	})
	return released, err
}

// splitPair loads two positions of the same pool and persists all three
// records when fn succeeds.
func (c *CpAmm) splitPair(ctx context.Context, firstKey, secondKey solanago.PublicKey, fn func(pool *state.Pool, first, second *state.Position) error) error {
	if firstKey.Equals(secondKey) {
		return shared.ErrSamePosition
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, first, err := c.loadPosition(ctx, firstKey)
	if err != nil {
		return err
	}
	second, err := c.store.GetPosition(ctx, secondKey)
	if err != nil {
		return err
	}
	if !second.Pool.Equals(first.Pool) {
		return shared.ErrPositionPoolMismatch
	}
	if err := fn(pool, first, second); err != nil {
		return err
	}
	return c.store.UpdatePoolAndPositions(ctx, first.Pool, pool, map[solanago.PublicKey]*state.Position{
		firstKey:  first,
		secondKey: second,
	})
}

func (c *CpAmm) SplitPosition2(ctx context.Context, firstKey, secondKey solanago.PublicKey, params SplitPositionParameters2, clock Clock) (SplitAmountInfo, error) {
	var info SplitAmountInfo
	err := c.splitPair(ctx, firstKey, secondKey, func(pool *state.Pool, first, second *state.Position) (err error) {
		info, err = SplitPosition2(pool, first, second, params, clock)
		return err
	})
	return info, err
}

func (c *CpAmm) SplitPosition(ctx context.Context, firstKey, secondKey solanago.PublicKey, params SplitPositionParameters, clock Clock) (SplitAmountInfo, error) {
	numerators, err := params.ToNumerators()
	if err != nil {
		return SplitAmountInfo{}, err
	}
	return c.SplitPosition2(ctx, firstKey, secondKey, numerators, clock)
}

func (c *CpAmm) MergePosition(ctx context.Context, sourceKey, destinationKey solanago.PublicKey, clock Clock) (SplitAmountInfo, error) {
	var info SplitAmountInfo
	err := c.splitPair(ctx, sourceKey, destinationKey, func(pool *state.Pool, source, destination *state.Position) (err error) {
		info, err = MergePosition(pool, source, destination, clock)
		return err
	})
	return info, err
}

func (c *CpAmm) ClaimPositionFee(ctx context.Context, positionKey solanago.PublicKey, clock Clock) (ClaimFeeResult, error) {
	var result ClaimFeeResult
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		result, err = ClaimPositionFee(pool, position, clock)
		return err
	})
	return result, err
}

func (c *CpAmm) ClaimReward(ctx context.Context, positionKey solanago.PublicKey, rewardIndex uint8, clock Clock) (uint64, error) {
	var amount uint64
	err := c.withPosition(ctx, positionKey, func(pool *state.Pool, position *state.Position) (err error) {
		amount, err = ClaimReward(pool, position, rewardIndex, clock)
		return err
	})
	return amount, err
}

// GetPendingFees reports the claimable fees and rewards of a position.
func (c *CpAmm) GetPendingFees(ctx context.Context, positionKey solanago.PublicKey, clock Clock) (helpers.PendingFees, error) {
	pool, position, err := c.loadPosition(ctx, positionKey)
	if err != nil {
		return helpers.PendingFees{}, err
	}
	return GetPendingFees(pool, position, clock.UnixTimestamp)
}

func (c *CpAmm) InitializeReward(ctx context.Context, params InitializeRewardParams) error {
	return c.withPool(ctx, params.Pool, func(pool *state.Pool) error {
		return InitializeReward(pool, params)
	})
}

func (c *CpAmm) FundReward(ctx context.Context, poolKey solanago.PublicKey, params FundRewardParams, clock Clock) (uint64, error) {
	var amount uint64
	err := c.withPool(ctx, poolKey, func(pool *state.Pool) (err error) {
		amount, err = FundReward(pool, params, clock)
		return err
	})
	return amount, err
}

func (c *CpAmm) UpdateRewardDuration(ctx context.Context, poolKey solanago.PublicKey, rewardIndex uint8, newDuration uint64, clock Clock) error {
	return c.withPool(ctx, poolKey, func(pool *state.Pool) error {
		return UpdateRewardDuration(pool, rewardIndex, newDuration, clock)
	})
}

func (c *CpAmm) UpdateRewardFunder(ctx context.Context, poolKey solanago.PublicKey, rewardIndex uint8, newFunder solanago.PublicKey) error {
	return c.withPool(ctx, poolKey, func(pool *state.Pool) error {
		return UpdateRewardFunder(pool, rewardIndex, newFunder)
	})
}

func (c *CpAmm) ClaimIneligibleReward(ctx context.Context, poolKey solanago.PublicKey, rewardIndex uint8, clock Clock) (uint64, error) {
	var amount uint64
	err := c.withPool(ctx, poolKey, func(pool *state.Pool) (err error) {
		amount, err = ClaimIneligibleReward(pool, rewardIndex, clock)
		return err
	})
	return amount, err
}

func (c *CpAmm) ClaimProtocolFee(ctx context.Context, poolKey solanago.PublicKey, maxAmountA, maxAmountB uint64) (ClaimFeeResult, error) {
	var result ClaimFeeResult
	err := c.withPool(ctx, poolKey, func(pool *state.Pool) error {
		result = ClaimProtocolFee(pool, maxAmountA, maxAmountB)
		return nil
	})
	return result, err
}

func (c *CpAmm) ClaimPartnerFee(ctx context.Context, poolKey solanago.PublicKey, maxAmountA, maxAmountB uint64) (ClaimFeeResult, error) {
	var result ClaimFeeResult
	err := c.withPool(ctx, poolKey, func(pool *state.Pool) (err error) {
		result, err = ClaimPartnerFee(pool, maxAmountA, maxAmountB)
		return err
	})
	return result, err
}

func (c *CpAmm) UpdatePoolFees(ctx context.Context, poolKey solanago.PublicKey, params UpdatePoolFeesParams, clock Clock) error {
	return c.withPool(ctx, poolKey, func(pool *state.Pool) error {
		return UpdatePoolFees(pool, params, clock)
	})
}

func (c *CpAmm) SetPoolStatus(ctx context.Context, poolKey solanago.PublicKey, status PoolStatus) error {
	return c.withPool(ctx, poolKey, func(pool *state.Pool) error {
		return SetPoolStatus(pool, status)
	})
}
