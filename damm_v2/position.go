package dammv2

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// newPosition returns an empty position whose checkpoints start at the
// pool's current accumulators, so it earns nothing from the past.
func newPosition(pool *state.Pool, poolKey, owner, nftMint solanago.PublicKey) *state.Position {
	position := &state.Position{
		Pool:                   poolKey,
		NftMint:                nftMint,
		Owner:                  owner,
		FeeAPerTokenCheckpoint: pool.FeeAPerLiquidity,
		FeeBPerTokenCheckpoint: pool.FeeBPerLiquidity,
	}
	for i := range pool.RewardInfos {
		position.RewardInfos[i].RewardPerTokenCheckpoint = pool.RewardInfos[i].RewardPerTokenStored
	}
	return position
}

// CreatePosition opens an empty position on the pool identified by poolKey.
// The returned key is derived from nftMint.
func CreatePosition(pool *state.Pool, poolKey, owner, nftMint solanago.PublicKey, clock Clock) (*state.Position, solanago.PublicKey, error) {
	if nftMint.IsZero() {
		return nil, solanago.PublicKey{}, fmt.Errorf("position nft mint: %w", shared.ErrInvalidParameters)
	}
	p := *pool
	if err := updatePoolRewards(&p, clock.UnixTimestamp); err != nil {
		return nil, solanago.PublicKey{}, err
	}
	position := newPosition(&p, poolKey, owner, nftMint)
	p.Metrics.TotalPosition++

	*pool = p
	return position, DerivePositionAddress(nftMint), nil
}

// IsPositionEmpty reports whether every bucket, pending fee and pending
// reward of the position is zero.
func IsPositionEmpty(position *state.Position) bool {
	if !state.IsZeroU128(position.UnlockedLiquidity) ||
		!state.IsZeroU128(position.VestedLiquidity) ||
		!state.IsZeroU128(position.PermanentLockedLiquidity) {
		return false
	}
	if position.FeeAPending != 0 || position.FeeBPending != 0 {
		return false
	}
	for _, reward := range position.RewardInfos {
		if reward.RewardPendings != 0 {
			return false
		}
	}
	return position.InnerVesting.IsZero()
}

// ClosePosition retires a drained position.
func ClosePosition(pool *state.Pool, position *state.Position, clock Clock) error {
	p, pos := *pool, *position
	if err := accrue(&p, &pos, clock); err != nil {
		return err
	}
	if !IsPositionEmpty(&pos) {
		return shared.ErrPositionNotEmpty
	}
	if p.Metrics.TotalPosition == 0 {
		return fmt.Errorf("pool position count: %w", shared.ErrArithmeticOverflow)
	}
	p.Metrics.TotalPosition--

	*pool, *position = p, pos
	return nil
}

// IsLockedPosition reports whether any liquidity is vesting or permanently locked.
func IsLockedPosition(position *state.Position) bool {
	return !state.IsZeroU128(position.VestedLiquidity) || !state.IsZeroU128(position.PermanentLockedLiquidity)
}

// IsPermanentLockedPosition reports whether the position holds permanently locked liquidity.
func IsPermanentLockedPosition(position *state.Position) bool {
	return !state.IsZeroU128(position.PermanentLockedLiquidity)
}
