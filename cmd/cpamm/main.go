package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krazyTry/cpamm-go/config"
	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cpamm",
		Short:        "Constant product AMM with vesting, split positions and dynamic fees",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("store-path", "./cpamm-data", "pebble data directory")
	flags.Int("cache-size", store.DefaultCacheSize, "records kept in each read cache")
	flags.Uint64("slot", 0, "slot the operation runs at")
	flags.Int64("timestamp", 0, "unix timestamp the operation runs at, 0 means now")

	root.AddCommand(
		newPoolCmd(),
		newQuoteCmd(),
		newSwapCmd(),
		newPositionCmd(),
		newFeeCurveCmd(),
		newVestingCmd(),
		newRewardCmd(),
	)
	return root
}

// app is what a command needs once config is loaded and the store is open.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *store.Store
	amm    *dammv2.CpAmm
	ctx    context.Context
	stop   context.CancelFunc
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(store.Options{Path: cfg.StorePath, CacheSize: cfg.CacheSize, Logger: logger})
	if err != nil {
		logger.Sync()
		return nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  s,
		amm:    dammv2.NewCpAmm(s),
		ctx:    ctx,
		stop:   stop,
	}, nil
}

func (a *app) Close() {
	a.stop()
	if err := a.store.Close(); err != nil {
		a.logger.Error("close store", zap.Error(err))
	}
	a.logger.Sync()
}

// clockFromFlags reads --slot and --timestamp, defaulting the timestamp to now.
func clockFromFlags(cmd *cobra.Command) (dammv2.Clock, error) {
	slot, err := cmd.Flags().GetUint64("slot")
	if err != nil {
		return dammv2.Clock{}, err
	}
	timestamp, err := cmd.Flags().GetInt64("timestamp")
	if err != nil {
		return dammv2.Clock{}, err
	}
	if timestamp < 0 {
		return dammv2.Clock{}, fmt.Errorf("timestamp %d is negative", timestamp)
	}
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	return dammv2.Clock{Slot: slot, UnixTimestamp: uint64(timestamp)}, nil
}

// keyFlag parses a base58 flag. An empty value yields a fresh random key
// when generate is set.
func keyFlag(cmd *cobra.Command, name string, generate bool) (solanago.PublicKey, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	if value == "" {
		if generate {
			return solanago.NewWallet().PublicKey(), nil
		}
		return solanago.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solanago.PublicKeyFromBase58(value)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
