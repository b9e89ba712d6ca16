package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.String("store-path", "./cpamm-data", "")
	fs.String("collect-fee-mode", "both", "")
	fs.Uint16("slippage-bps", 50, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./cpamm-data", cfg.StorePath)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, shared.ActivationTypeTimestamp, cfg.ActivationType)
	assert.Equal(t, shared.CollectFeeModeBothToken, cfg.CollectFeeMode)
	assert.Equal(t, shared.PoolVersionV1, cfg.PoolVersion)
	assert.Equal(t, uint16(50), cfg.SlippageBps)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cpamm.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: warn
store:
  path: /var/lib/cpamm
  cache_size: 64
pool:
  activation_type: slot
  collect_fee_mode: onlyb
`), 0o600))
	t.Setenv("CPAMM_STORE_CACHE_SIZE", "128")

	cfg, err := Load(file, testFlags(t, "--log-level", "debug"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "flag beats file")
	assert.Equal(t, "/var/lib/cpamm", cfg.StorePath)
	assert.Equal(t, 128, cfg.CacheSize, "env beats file")
	assert.Equal(t, shared.ActivationTypeSlot, cfg.ActivationType)
	assert.Equal(t, shared.CollectFeeModeOnlyB, cfg.CollectFeeMode)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CPAMM_LOG_LEVEL", "error")

	cfg, err := Load("", testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("", testFlags(t, "--collect-fee-mode", "neither"))
	assert.ErrorIs(t, err, shared.ErrInvalidParameters)

	_, err = Load("", testFlags(t, "--slippage-bps", "10001"))
	assert.ErrorIs(t, err, shared.ErrInvalidParameters)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestParseModes(t *testing.T) {
	tests := []struct {
		in   string
		want shared.CollectFeeMode
	}{
		{"both", shared.CollectFeeModeBothToken},
		{"OnlyA", shared.CollectFeeModeOnlyA},
		{" b ", shared.CollectFeeModeOnlyB},
	}
	for _, tt := range tests {
		got, err := ParseCollectFeeMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	at, err := ParseActivationType("slot")
	require.NoError(t, err)
	assert.Equal(t, shared.ActivationTypeSlot, at)
	_, err = ParseActivationType("epoch")
	assert.ErrorIs(t, err, shared.ErrInvalidParameters)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
