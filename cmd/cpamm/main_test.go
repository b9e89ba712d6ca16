package main

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

const snapshotJSON = `{
  "pool": {
    "sqrtPrice": "1<<64",
    "liquidity": "1000000000000<<64",
    "activationPoint": 100,
    "activationType": 1,
    "collectFeeMode": 0,
    "version": 1,
    "poolFees": {
      "baseFee": {"feeBps": 100},
      "protocolFeePercent": 20,
      "referralFeePercent": 20
    }
  }
}`

func TestParsePoolSnapshot(t *testing.T) {
	pool, err := parsePoolSnapshot([]byte(snapshotJSON))
	require.NoError(t, err)
	assert.Equal(t, 0, pool.SqrtPrice.BigInt().Cmp(q64One))
	assert.Equal(t, 0, pool.SqrtMinPrice.BigInt().Cmp(shared.MinSqrtPrice))
	assert.Equal(t, uint8(20), pool.PoolFees.ProtocolFeePercent)

	quote, err := dammv2.QuoteSwap(pool, dammv2.SwapParams{
		Amount:         big.NewInt(1_000_000),
		TradeDirection: dammv2.TradeDirectionAtoB,
	}, dammv2.Clock{UnixTimestamp: 200}, 50, 9, 9)
	require.NoError(t, err)
	// 1% fee on the output at price 1
	assert.InDelta(t, 10_000, quote.TotalFee().Int64(), 1)
	assert.InDelta(t, 990_000, quote.OutputAmount.Int64(), 2)
}

func TestParsePoolSnapshotErrors(t *testing.T) {
	_, err := parsePoolSnapshot([]byte(`{"sqrtPrice": "1"`))
	assert.ErrorIs(t, err, shared.ErrInvalidParameters)

	_, err = parsePoolSnapshot([]byte(`{"sqrtPrice": "-1", "poolFees": {"baseFee": {"data": [1, 2]}}}`))
	require.ErrorIs(t, err, shared.ErrInvalidParameters)
	for _, want := range []string{"sqrtPrice", "liquidity is required", "baseFee.data has 2 bytes"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFeeCurveTimeScheduler(t *testing.T) {
	params, err := helpers.GetFeeTimeSchedulerParams(5000, 100, shared.BaseFeeModeFeeTimeSchedulerLinear, 10, 1_000)
	require.NoError(t, err)
	step, err := defaultStep(params, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), step)

	curve, err := feeCurve(params, step, 11)
	require.NoError(t, err)
	require.Len(t, curve, 11)
	assert.Equal(t, int64(500_000_000), curve[0].Numerator.Int64())
	assert.Equal(t, int64(10_000_000), curve[10].Numerator.Int64())
	for i := 1; i < len(curve); i++ {
		assert.LessOrEqual(t, curve[i].Numerator.Cmp(curve[i-1].Numerator), 0, "fee rose at sample %d", i)
	}
}

func TestFeeCurveRateLimiter(t *testing.T) {
	params, err := helpers.GetFeeRateLimiterParams(100, 10, 5000, 10, 1_000_000_000)
	require.NoError(t, err)
	step, err := defaultStep(params, 10)
	require.NoError(t, err)

	curve, err := feeCurve(params, step, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), curve[0].Numerator.Int64())
	for i := 1; i < len(curve); i++ {
		assert.GreaterOrEqual(t, curve[i].Numerator.Cmp(curve[i-1].Numerator), 0, "fee fell at sample %d", i)
	}
}

func TestPercentToNumerator(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"0", 0},
		{"37.5", 375_000_000},
		{"100", shared.SplitPositionDenominator},
	}
	for _, tt := range tests {
		got, err := percentToNumerator(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := percentToNumerator("100.1")
	assert.ErrorIs(t, err, shared.ErrInvalidSplitPositionParameters)
	_, err = percentToNumerator("half")
	assert.Error(t, err)
}

func TestVestingSchedule(t *testing.T) {
	vesting := &state.InnerVesting{
		CliffPoint:           1_000,
		PeriodFrequency:      10,
		NumberOfPeriod:       4,
		CliffUnlockLiquidity: state.U128(big.NewInt(100)),
		LiquidityPerPeriod:   state.U128(big.NewInt(50)),
	}
	rows := vestingSchedule(vesting)
	require.Len(t, rows, 5)
	assert.Equal(t, uint64(1_000), rows[0].Point)
	assert.Equal(t, int64(100), rows[0].Released.Int64())
	assert.Equal(t, int64(200), rows[0].Locked.Int64())
	assert.Equal(t, uint64(1_040), rows[4].Point)
	assert.Equal(t, int64(300), rows[4].Released.Int64())
	assert.Zero(t, rows[4].Locked.Sign())
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func field(t *testing.T, output, name string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if value, ok := strings.CutPrefix(line, name+":"); ok {
			return strings.TrimSpace(value)
		}
	}
	t.Fatalf("no %q in output:\n%s", name, output)
	return ""
}

func TestCommandsAgainstStore(t *testing.T) {
	common := []string{"--store-path", t.TempDir(), "--timestamp", "1700000000", "--log-level", "error"}
	run := func(args ...string) string {
		return execute(t, append(args, common...)...)
	}

	created := run("pool", "init",
		"--token-a-amount", "1_000_000_000",
		"--token-b-amount", "1_000_000_000",
		"--fee-bps", "100",
	)
	poolKey := field(t, created, "pool")
	positionKey := field(t, created, "position")

	quote := run("quote", "--pool", poolKey, "--amount", "1000000")
	assert.NotEmpty(t, field(t, quote, "minimum out"))
	assert.NotEqual(t, "0", field(t, quote, "fillable in"))

	swapped := run("swap", "--pool", poolKey, "--amount", "1000000", "--direction", "b2a")
	assert.NotEqual(t, "0", field(t, swapped, "output"))

	opened := run("position", "open", "--pool", poolKey)
	second := field(t, opened, "position")

	run("position", "split", "--from", positionKey, "--to", second, "--unlocked", "25", "--fee-a", "50")
	listed := run("position", "list", "--pool", poolKey)
	assert.Contains(t, listed, positionKey)
	assert.Contains(t, listed, second)

	merged := run("position", "merge", "--from", second, "--to", positionKey, "--close")
	assert.NotEmpty(t, field(t, merged, "unlocked liquidity"))
	listed = run("position", "list", "--pool", poolKey)
	assert.NotContains(t, listed, second)

	shown := run("pool", "show", "--pool", poolKey)
	assert.Equal(t, "1", field(t, shown, "positions"))
}

func TestAdminCommands(t *testing.T) {
	common := []string{"--store-path", t.TempDir(), "--timestamp", "1700000000", "--log-level", "error"}
	run := func(args ...string) string {
		return execute(t, append(args, common...)...)
	}

	created := run("pool", "init",
		"--token-a-amount", "1_000_000_000",
		"--token-b-amount", "1_000_000_000",
		"--fee-bps", "100",
	)
	poolKey := field(t, created, "pool")
	positionKey := field(t, created, "position")

	run("reward", "init", "--pool", poolKey, "--index", "1")
	funded := run("reward", "fund", "--pool", poolKey, "--index", "1", "--amount", "86400000")
	assert.Equal(t, "86400000", field(t, funded, "funded"))

	shown := run("reward", "show", "--pool", poolKey, "--index", "1", "--position", positionKey)
	assert.Equal(t, "3600000", field(t, shown, "reward per period"))
	assert.Equal(t, "86400000", field(t, shown, "balance"))
	assert.Equal(t, "0", field(t, shown, "distributed"))
	assert.NotEqual(t, "0", field(t, shown, "position per period"))
	assert.Equal(t, "0", field(t, shown, "position pending"))

	run("pool", "status", "--pool", poolKey, "--disable")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"swap", "--pool", poolKey, "--amount", "1000", "--threshold", "0"}, common...))
	assert.ErrorIs(t, root.Execute(), shared.ErrSwapDisabled)
	run("pool", "status", "--pool", poolKey)

	run("swap", "--pool", poolKey, "--amount", "1000000")
	claimed := run("pool", "claim", "--pool", poolKey)
	assert.NotEqual(t, "0", field(t, claimed, "fee b"))
	claimed = run("pool", "claim", "--pool", poolKey)
	assert.Equal(t, "0", field(t, claimed, "fee b"))
}

func TestVestingRelease(t *testing.T) {
	common := []string{"--store-path", t.TempDir(), "--timestamp", "1700000000", "--log-level", "error"}
	run := func(args ...string) string {
		return execute(t, append(args, common...)...)
	}

	created := run("pool", "init",
		"--token-a-amount", "1_000_000_000",
		"--token-b-amount", "1_000_000_000",
		"--fee-bps", "100",
	)
	positionKey := field(t, created, "position")

	run("position", "lock", "--position", positionKey,
		"--cliff-point", "18446744073709551615",
		"--cliff-liquidity", "1000000",
	)
	assert.Contains(t, run("vesting", "--position", positionKey), "permanent lock of 1000000")

	released := run("vesting", "release", "--position", positionKey)
	assert.Equal(t, "1000000", field(t, released, "released"))
	assert.Contains(t, run("vesting", "--position", positionKey), "no vesting schedule")
}
