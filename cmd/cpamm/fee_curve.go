package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func newFeeCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-curve",
		Short: "Print how a base fee evolves over time, price or trade size",
		Long: "Time schedulers are sampled every --step points after activation, market cap " +
			"schedulers every --step basis points of sqrt price growth and the rate limiter " +
			"every --step units of trade size.",
		RunE: runFeeCurve,
	}
	addBaseFeeFlags(cmd.Flags())
	cmd.Flags().Uint64("step", 0, "sample spacing, derived from the fee parameters when 0")
	cmd.Flags().Int("samples", 20, "number of samples")
	return cmd
}

type feeSample struct {
	// X is the point, the sqrt price move in bps or the trade size.
	X         *big.Int
	Numerator *big.Int
}

var q64One = new(big.Int).Lsh(big.NewInt(1), 64)

// feeCurve samples the base fee of params. Samples start at the activation
// point, the initial price and a zero trade size.
func feeCurve(params helpers.BaseFeeParameters, step uint64, samples int) ([]feeSample, error) {
	handler, err := pool_fees.GetBaseFeeHandlerFromParams(params)
	if err != nil {
		return nil, err
	}
	if step == 0 {
		step = 1
	}

	mode := handler.Mode()
	activation := big.NewInt(0)
	out := make([]feeSample, 0, samples)
	for i := 0; i < samples; i++ {
		x := new(big.Int).Mul(new(big.Int).SetUint64(step), big.NewInt(int64(i)))
		ctx := shared.FeeContext{
			CurrentPoint:     activation,
			ActivationPoint:  activation,
			TradeDirection:   shared.TradeDirectionBtoA,
			InitSqrtPrice:    q64One,
			CurrentSqrtPrice: q64One,
		}
		amount := big.NewInt(0)
		switch {
		case mode.IsMarketCapScheduler():
			price := new(big.Int).Add(big.NewInt(shared.BasisPointMax), x)
			price.Mul(price, q64One)
			ctx.CurrentSqrtPrice = price.Div(price, big.NewInt(shared.BasisPointMax))
		case mode == shared.BaseFeeModeRateLimiter:
			amount = x
		default:
			ctx.CurrentPoint = x
		}
		numerator, err := handler.GetBaseFeeNumeratorFromIncludedFeeAmount(ctx, amount)
		if err != nil {
			return nil, err
		}
		out = append(out, feeSample{X: x, Numerator: numerator})
	}
	return out, nil
}

// defaultStep spreads the samples over the interesting part of the curve.
func defaultStep(params helpers.BaseFeeParameters, samples int) (uint64, error) {
	if samples <= 1 {
		return 1, nil
	}
	mode := params.Mode()
	switch {
	case mode.IsTimeScheduler():
		p, err := helpers.DecodeFeeTimeSchedulerParams(params.Data[:])
		if err != nil {
			return 0, err
		}
		span := p.PeriodFrequency * uint64(p.NumberOfPeriod)
		return max(span/uint64(samples-1), 1), nil
	case mode.IsMarketCapScheduler():
		p, err := helpers.DecodeFeeMarketCapSchedulerParams(params.Data[:])
		if err != nil {
			return 0, err
		}
		span := uint64(p.SqrtPriceStepBps) * uint64(p.NumberOfPeriod)
		return max(span/uint64(samples-1), 1), nil
	case mode == shared.BaseFeeModeRateLimiter:
		p, err := helpers.DecodeFeeRateLimiterParams(params.Data[:])
		if err != nil {
			return 0, err
		}
		return max(p.ReferenceAmount, 1), nil
	}
	return 0, fmt.Errorf("mode %d: %w", mode, shared.ErrInvalidBaseFeeMode)
}

func runFeeCurve(cmd *cobra.Command, _ []string) error {
	params, err := baseFeeFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	samples, _ := cmd.Flags().GetInt("samples")
	if samples <= 0 {
		return fmt.Errorf("--samples must be positive")
	}
	step, _ := cmd.Flags().GetUint64("step")
	if step == 0 {
		if step, err = defaultStep(params, samples); err != nil {
			return err
		}
	}

	curve, err := feeCurve(params, step, samples)
	if err != nil {
		return err
	}
	axis := "point"
	switch mode := params.Mode(); {
	case mode.IsMarketCapScheduler():
		axis = "price bps"
	case mode == shared.BaseFeeModeRateLimiter:
		axis = "amount"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %-12s %s\n", axis, "fee bps", "fee")
	for _, sample := range curve {
		fmt.Fprintf(out, "%-20s %-12d %s\n", sample.X, helpers.FeeNumeratorToBps(sample.Numerator), formatPercent(sample.Numerator))
	}
	return nil
}
