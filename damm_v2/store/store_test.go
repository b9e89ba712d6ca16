package store

import (
	"context"
	"math/big"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: "cpamm", CacheSize: 16, FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newKey() solanago.PublicKey {
	return solanago.NewWallet().PublicKey()
}

func TestMissingRecords(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	_, err := s.GetPool(ctx, newKey())
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	_, err = s.GetPosition(ctx, newKey())
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)

	positions, err := s.ListPositionsByPool(ctx, newKey())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestUpdateAndList(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()

	poolKey, otherPool := newKey(), newKey()
	pool := &state.Pool{
		Liquidity: state.U128(big.NewInt(1_000)),
		SqrtPrice: state.U128(new(big.Int).Lsh(big.NewInt(1), 64)),
	}
	first, second, foreign := newKey(), newKey(), newKey()
	positions := map[solanago.PublicKey]*state.Position{
		first:   {Pool: poolKey, UnlockedLiquidity: state.U128(big.NewInt(600))},
		second:  {Pool: poolKey, UnlockedLiquidity: state.U128(big.NewInt(400))},
		foreign: {Pool: otherPool},
	}
	require.NoError(t, s.UpdatePoolAndPositions(ctx, poolKey, pool, positions))

	got, err := s.GetPool(ctx, poolKey)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Liquidity.BigInt().Cmp(big.NewInt(1_000)))

	// callers get copies, so mutating one leaves the cache intact
	got.Liquidity = state.U128(big.NewInt(1))
	again, err := s.GetPool(ctx, poolKey)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Liquidity.BigInt().Cmp(big.NewInt(1_000)))

	listed, err := s.ListPositionsByPool(ctx, poolKey)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Contains(t, listed, first)
	assert.Contains(t, listed, second)

	// nil deletes the record
	require.NoError(t, s.UpdatePoolAndPositions(ctx, poolKey, pool, map[solanago.PublicKey]*state.Position{first: nil}))
	_, err = s.GetPosition(ctx, first)
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	listed, err = s.ListPositionsByPool(ctx, poolKey)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRecordsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	poolKey, positionKey := newKey(), newKey()

	s, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.UpdatePoolAndPositions(ctx, poolKey, &state.Pool{ActivationPoint: 42}, map[solanago.PublicKey]*state.Position{
		positionKey: {Pool: poolKey, FeeAPending: 7},
	}))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	pool, err := s.GetPool(ctx, poolKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), pool.ActivationPoint)
	position, err := s.GetPosition(ctx, positionKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), position.FeeAPending)
	assert.True(t, position.Pool.Equals(poolKey))
}

func TestCanceledContext(t *testing.T) {
	s := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetPool(ctx, newKey())
	assert.ErrorIs(t, err, context.Canceled)
	err = s.UpdatePoolAndPositions(ctx, newKey(), &state.Pool{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCpAmmOverStore(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()
	amm := dammv2.NewCpAmm(s)
	clock := dammv2.Clock{Slot: 1_000, UnixTimestamp: 1_700_000_000}

	baseFee, err := helpers.GetStaticFeeParams(100)
	require.NoError(t, err)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	created, err := amm.CreatePool(ctx, dammv2.InitializePoolParams{
		Config:          newKey(),
		Creator:         newKey(),
		TokenAMint:      newKey(),
		TokenBMint:      newKey(),
		PositionNftMint: newKey(),
		PoolFees:        dammv2.PoolFeeParameters{BaseFee: baseFee, ProtocolFeePercent: 20},
		SqrtMinPrice:    dammv2.MinSqrtPrice,
		SqrtMaxPrice:    dammv2.MaxSqrtPrice,
		SqrtPrice:       sqrtPrice,
		Liquidity:       new(big.Int).Lsh(big.NewInt(1_000_000_000_000), 64),
		ActivationType:  dammv2.ActivationTypeTimestamp,
		CollectFeeMode:  dammv2.CollectFeeModeBothToken,
		PoolVersion:     dammv2.PoolVersionV1,
	}, clock)
	require.NoError(t, err)

	exists, err := amm.IsPoolExist(ctx, created.Pool)
	require.NoError(t, err)
	assert.True(t, exists)

	before, err := amm.FetchPoolState(ctx, created.Pool)
	require.NoError(t, err)

	_, err = amm.Swap(ctx, created.Pool, dammv2.SwapParams{
		Amount:         big.NewInt(1_000_000),
		TradeDirection: dammv2.TradeDirectionAtoB,
		Threshold:      big.NewInt(1_000_000),
	}, clock)
	require.Error(t, err, "a 1% fee cannot deliver the full input as output")

	after, err := amm.FetchPoolState(ctx, created.Pool)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed swap must not persist")

	clock.UnixTimestamp++
	_, err = amm.Swap(ctx, created.Pool, dammv2.SwapParams{
		Amount:         big.NewInt(1_000_000),
		TradeDirection: dammv2.TradeDirectionAtoB,
	}, clock)
	require.NoError(t, err)

	pending, err := amm.GetPendingFees(ctx, created.Position, clock)
	require.NoError(t, err)
	assert.NotZero(t, pending.FeeB)

	positions, err := amm.GetAllPositionsByPool(ctx, created.Pool)
	require.NoError(t, err)
	assert.Len(t, positions, 1)
	assert.Contains(t, positions, created.Position)
}
