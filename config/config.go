package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel       string
	StorePath      string
	CacheSize      int
	ActivationType shared.ActivationType
	CollectFeeMode shared.CollectFeeMode
	PoolVersion    shared.PoolVersion
	SlippageBps    uint16
}

// flagKeys maps command line flags to their config keys.
var flagKeys = map[string]string{
	"log-level":        "log.level",
	"store-path":       "store.path",
	"cache-size":       "store.cache_size",
	"activation-type":  "pool.activation_type",
	"collect-fee-mode": "pool.collect_fee_mode",
	"pool-version":     "pool.version",
	"slippage-bps":     "quote.slippage_bps",
}

// Load merges config file, environment variables, and flags into Config.
// Environment variables use the CPAMM prefix, so store.path reads
// CPAMM_STORE_PATH.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CPAMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("store.path", "./cpamm-data")
	v.SetDefault("store.cache_size", 1024)
	v.SetDefault("pool.activation_type", "timestamp")
	v.SetDefault("pool.collect_fee_mode", "both")
	v.SetDefault("pool.version", 1)
	v.SetDefault("quote.slippage_bps", 50)

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	activationType, err := ParseActivationType(v.GetString("pool.activation_type"))
	if err != nil {
		return Config{}, err
	}
	collectFeeMode, err := ParseCollectFeeMode(v.GetString("pool.collect_fee_mode"))
	if err != nil {
		return Config{}, err
	}
	version := v.GetUint("pool.version")
	if version > uint(shared.PoolVersionV1) {
		return Config{}, fmt.Errorf("pool.version %d: %w", version, shared.ErrInvalidParameters)
	}
	slippage := v.GetUint("quote.slippage_bps")
	if slippage > 10_000 {
		return Config{}, fmt.Errorf("quote.slippage_bps %d: %w", slippage, shared.ErrInvalidParameters)
	}

	cfg := Config{
		LogLevel:       v.GetString("log.level"),
		StorePath:      v.GetString("store.path"),
		CacheSize:      v.GetInt("store.cache_size"),
		ActivationType: activationType,
		CollectFeeMode: collectFeeMode,
		PoolVersion:    shared.PoolVersion(version),
		SlippageBps:    uint16(slippage),
	}
	return cfg, nil
}

func ParseActivationType(s string) (shared.ActivationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slot":
		return shared.ActivationTypeSlot, nil
	case "timestamp", "time":
		return shared.ActivationTypeTimestamp, nil
	}
	return 0, fmt.Errorf("activation type %q: %w", s, shared.ErrInvalidParameters)
}

func ParseCollectFeeMode(s string) (shared.CollectFeeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "bothtoken":
		return shared.CollectFeeModeBothToken, nil
	case "a", "onlya":
		return shared.CollectFeeModeOnlyA, nil
	case "b", "onlyb":
		return shared.CollectFeeModeOnlyB, nil
	}
	return 0, fmt.Errorf("collect fee mode %q: %w", s, shared.ErrInvalidParameters)
}
