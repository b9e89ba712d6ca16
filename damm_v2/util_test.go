package dammv2

import (
	"math/big"
	"testing"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

const testStartTime = 1_700_000_000

var (
	// price 1 in Q64
	testSqrtPrice = new(big.Int).Lsh(big.NewInt(1), 64)
	// roughly 1e12 of each token at price 1
	testLiquidity = new(big.Int).Lsh(big.NewInt(1_000_000_000_000), 64)
)

func testClock(offset uint64) Clock {
	return Clock{Slot: 1_000 + offset, UnixTimestamp: testStartTime + offset}
}

func newKey() solanago.PublicKey {
	return solanago.NewWallet().PublicKey()
}

type testPool struct {
	key      solanago.PublicKey
	pool     *state.Pool
	position *state.Position
}

func newTestPool(t *testing.T, baseFee BaseFee, collectFeeMode CollectFeeMode) testPool {
	t.Helper()
	config := newKey()
	tokenA, tokenB := newKey(), newKey()
	pool, position, result, err := InitializePool(InitializePoolParams{
		Config:          config,
		Creator:         newKey(),
		TokenAMint:      tokenA,
		TokenBMint:      tokenB,
		PositionNftMint: newKey(),
		PoolFees: PoolFeeParameters{
			BaseFee:            baseFee,
			ProtocolFeePercent: 20,
		},
		SqrtMinPrice:   MinSqrtPrice,
		SqrtMaxPrice:   MaxSqrtPrice,
		SqrtPrice:      testSqrtPrice,
		Liquidity:      testLiquidity,
		ActivationType: ActivationTypeTimestamp,
		CollectFeeMode: collectFeeMode,
		PoolVersion:    PoolVersionV1,
	}, testClock(0))
	if err != nil {
		t.Fatal("InitializePool() fail", err)
	}
	return testPool{key: result.Pool, pool: pool, position: position}
}

func newStaticPool(t *testing.T, feeBps uint16, collectFeeMode CollectFeeMode) testPool {
	t.Helper()
	baseFee, err := helpers.GetStaticFeeParams(feeBps)
	if err != nil {
		t.Fatal("GetStaticFeeParams() fail", err)
	}
	return newTestPool(t, baseFee, collectFeeMode)
}

func (tp testPool) newPosition(t *testing.T, clock Clock) *state.Position {
	t.Helper()
	position, _, err := CreatePosition(tp.pool, tp.key, newKey(), newKey(), clock)
	if err != nil {
		t.Fatal("CreatePosition() fail", err)
	}
	return position
}

func totalLiquidity(position *state.Position) *big.Int {
	return helpers.TotalPositionLiquidity(position)
}
