package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap without changing the pool",
		RunE:  runQuote,
	}
	addSwapFlags(cmd.Flags())
	cmd.Flags().String("pool-json", "", "quote against a JSON pool snapshot instead of the store")
	cmd.Flags().Uint8("token-a-decimals", 9, "token a decimals")
	cmd.Flags().Uint8("token-b-decimals", 9, "token b decimals")
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Execute a swap against a stored pool",
		RunE:  runSwap,
	}
	addSwapFlags(cmd.Flags())
	cmd.Flags().String("threshold", "", "minimum output, or maximum input for exact-out; derived from the slippage when empty")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	params, err := swapParamsFromFlags(cmd)
	if err != nil {
		return err
	}
	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	decimalsA, _ := cmd.Flags().GetUint8("token-a-decimals")
	decimalsB, _ := cmd.Flags().GetUint8("token-b-decimals")

	if snapshot, _ := cmd.Flags().GetString("pool-json"); snapshot != "" {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		pool, err := loadPoolSnapshot(snapshot)
		if err != nil {
			return err
		}
		logger.Debug("quoting snapshot", zap.String("path", snapshot))
		quote, err := dammv2.QuoteSwap(pool, params, clock, cfg.SlippageBps, decimalsA, decimalsB)
		if err != nil {
			return err
		}
		printQuote(cmd.OutOrStdout(), quote)
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	quote, err := a.amm.GetQuote(a.ctx, poolKey, params, clock, a.cfg.SlippageBps, decimalsA, decimalsB)
	if err != nil {
		return err
	}
	printQuote(cmd.OutOrStdout(), quote)
	return nil
}

func runSwap(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := swapParamsFromFlags(cmd)
	if err != nil {
		return err
	}
	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}

	if params.Threshold, err = amountFlag(cmd, "threshold", false); err != nil {
		return err
	}
	if params.Threshold == nil {
		quote, err := a.amm.GetQuote(a.ctx, poolKey, params, clock, a.cfg.SlippageBps, 0, 0)
		if err != nil {
			return err
		}
		params.Threshold = quote.MinimumAmountOut
		if params.SwapMode == dammv2.SwapModeExactOut {
			params.Threshold = quote.MaximumAmountIn
		}
	}

	result, err := a.amm.Swap(a.ctx, poolKey, params, clock)
	if err != nil {
		a.logger.Warn("swap rejected", zap.String("pool", poolKey.String()), zap.Error(err))
		return err
	}
	a.logger.Info("swap executed",
		zap.String("pool", poolKey.String()),
		zap.String("input", result.IncludedFeeInputAmount.String()),
		zap.String("output", result.OutputAmount.String()),
		zap.String("fee", result.TotalFee().String()),
	)
	printSwapResult(cmd.OutOrStdout(), result)
	return nil
}

func printSwapResult(out io.Writer, result dammv2.SwapResult) {
	fmt.Fprintf(out, "input:           %s\n", result.IncludedFeeInputAmount)
	fmt.Fprintf(out, "output:          %s\n", result.OutputAmount)
	if result.AmountLeft != nil && result.AmountLeft.Sign() > 0 {
		fmt.Fprintf(out, "unfilled:        %s\n", result.AmountLeft)
	}
	fmt.Fprintf(out, "fee:             %s (%s)\n", result.TotalFee(), formatPercent(result.FeeNumerator))
	fmt.Fprintf(out, "  lp:            %s\n", result.TradingFee)
	fmt.Fprintf(out, "  protocol:      %s\n", result.ProtocolFee)
	fmt.Fprintf(out, "  partner:       %s\n", result.PartnerFee)
	fmt.Fprintf(out, "  referral:      %s\n", result.ReferralFee)
	fmt.Fprintf(out, "next sqrt price: %s\n", result.NextSqrtPrice)
}

func printQuote(out io.Writer, quote dammv2.QuoteResult) {
	printSwapResult(out, quote.SwapResult)
	if quote.MinimumAmountOut != nil {
		fmt.Fprintf(out, "minimum out:     %s\n", quote.MinimumAmountOut)
	}
	if quote.MaximumAmountIn != nil {
		fmt.Fprintf(out, "maximum in:      %s\n", quote.MaximumAmountIn)
	}
	if quote.FillableAmountIn != nil {
		fmt.Fprintf(out, "fillable in:     %s\n", quote.FillableAmountIn)
	}
	fmt.Fprintf(out, "price impact:    %s%%\n", quote.PriceImpact.StringFixed(4))
}
