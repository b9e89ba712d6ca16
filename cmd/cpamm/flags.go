package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/u128"
)

// amountFlag parses an integer flag that may exceed 64 bits. An empty value
// returns nil unless the flag is required.
func amountFlag(cmd *cobra.Command, name string, required bool) (*big.Int, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	if value == "" {
		if required {
			return nil, fmt.Errorf("--%s is required", name)
		}
		return nil, nil
	}
	amount, err := u128.ParseBig(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

func parseDirection(s string) (dammv2.TradeDirection, error) {
	switch strings.ToLower(s) {
	case "a2b", "atob", "sell":
		return dammv2.TradeDirectionAtoB, nil
	case "b2a", "btoa", "buy":
		return dammv2.TradeDirectionBtoA, nil
	}
	return 0, fmt.Errorf("trade direction %q: %w", s, shared.ErrInvalidParameters)
}

func parseSwapMode(s string) (dammv2.SwapMode, error) {
	switch strings.ToLower(s) {
	case "exact-in", "in":
		return dammv2.SwapModeExactIn, nil
	case "partial", "partial-fill":
		return dammv2.SwapModePartialFill, nil
	case "exact-out", "out":
		return dammv2.SwapModeExactOut, nil
	}
	return 0, fmt.Errorf("swap mode %q: %w", s, shared.ErrInvalidParameters)
}

// addSwapFlags registers the flags quote and swap share.
func addSwapFlags(fs *pflag.FlagSet) {
	fs.String("pool", "", "pool address")
	fs.String("amount", "", "input amount, or output amount for exact-out")
	fs.String("direction", "a2b", "trade direction (a2b, b2a)")
	fs.String("mode", "exact-in", "swap mode (exact-in, partial, exact-out)")
	fs.Bool("referral", false, "route part of the protocol fee to a referrer")
	fs.Uint16("slippage-bps", 50, "slippage tolerance in basis points")
}

func swapParamsFromFlags(cmd *cobra.Command) (dammv2.SwapParams, error) {
	amount, err := amountFlag(cmd, "amount", true)
	if err != nil {
		return dammv2.SwapParams{}, err
	}
	directionFlag, _ := cmd.Flags().GetString("direction")
	direction, err := parseDirection(directionFlag)
	if err != nil {
		return dammv2.SwapParams{}, err
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := parseSwapMode(modeFlag)
	if err != nil {
		return dammv2.SwapParams{}, err
	}
	referral, _ := cmd.Flags().GetBool("referral")
	return dammv2.SwapParams{
		Amount:         amount,
		SwapMode:       mode,
		TradeDirection: direction,
		HasReferral:    referral,
	}, nil
}

var baseFeeModes = map[string]shared.BaseFeeMode{
	"linear":           shared.BaseFeeModeFeeTimeSchedulerLinear,
	"exponential":      shared.BaseFeeModeFeeTimeSchedulerExponential,
	"rate-limiter":     shared.BaseFeeModeRateLimiter,
	"marketcap-linear": shared.BaseFeeModeFeeMarketCapSchedulerLinear,
	"marketcap-exp":    shared.BaseFeeModeFeeMarketCapSchedulerExp,
}

// addBaseFeeFlags registers the flags that describe one base fee variant.
func addBaseFeeFlags(fs *pflag.FlagSet) {
	fs.String("fee-mode", "static", "base fee mode (static, linear, exponential, rate-limiter, marketcap-linear, marketcap-exp)")
	fs.Uint16("fee-bps", 25, "base fee, or starting fee for schedulers, in basis points")
	fs.Uint16("end-fee-bps", 0, "fee a scheduler decays to, in basis points")
	fs.Uint16("periods", 0, "number of scheduler periods")
	fs.Uint64("duration", 0, "time scheduler length in points")
	fs.Uint32("price-step-bps", 0, "sqrt price move per market cap period, in basis points")
	fs.Uint32("expiration", 0, "market cap scheduler lifetime in points")
	fs.Uint16("fee-increment-bps", 0, "rate limiter fee step per reference amount, in basis points")
	fs.Uint32("max-fee-bps", 0, "rate limiter fee ceiling in basis points")
	fs.Uint32("max-limiter-duration", 0, "rate limiter window after activation in points")
	fs.Uint64("reference-amount", 0, "rate limiter reference amount")
}

func baseFeeFromFlags(fs *pflag.FlagSet) (helpers.BaseFeeParameters, error) {
	modeName, _ := fs.GetString("fee-mode")
	feeBps, _ := fs.GetUint16("fee-bps")
	if strings.EqualFold(modeName, "static") {
		return helpers.GetStaticFeeParams(feeBps)
	}
	mode, ok := baseFeeModes[strings.ToLower(modeName)]
	if !ok {
		return helpers.BaseFeeParameters{}, fmt.Errorf("fee mode %q: %w", modeName, shared.ErrInvalidBaseFeeMode)
	}

	cfg := helpers.BaseFeeConfig{Mode: mode, StartingBaseFeeBps: feeBps}
	cfg.EndingBaseFeeBps, _ = fs.GetUint16("end-fee-bps")
	cfg.NumberOfPeriod, _ = fs.GetUint16("periods")
	cfg.TotalDuration, _ = fs.GetUint64("duration")
	cfg.SqrtPriceStepBps, _ = fs.GetUint32("price-step-bps")
	cfg.SchedulerExpirationDuration, _ = fs.GetUint32("expiration")
	cfg.FeeIncrementBps, _ = fs.GetUint16("fee-increment-bps")
	cfg.MaxFeeBps, _ = fs.GetUint32("max-fee-bps")
	cfg.MaxLimiterDuration, _ = fs.GetUint32("max-limiter-duration")
	cfg.ReferenceAmount, _ = fs.GetUint64("reference-amount")
	return helpers.GetBaseFeeParams(cfg)
}

var percentScale = decimal.NewFromInt(shared.SplitPositionDenominator / 100)

// percentToNumerator converts a percentage such as "37.5" into a split
// numerator over SplitPositionDenominator.
func percentToNumerator(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("percentage %q: %w", s, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return 0, fmt.Errorf("percentage %q: %w", s, shared.ErrInvalidSplitPositionParameters)
	}
	return uint32(pct.Mul(percentScale).Floor().IntPart()), nil
}

func formatPercent(numerator *big.Int) string {
	return helpers.FeeNumeratorToPercent(numerator).StringFixed(4) + "%"
}
