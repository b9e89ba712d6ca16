package main

import (
	"fmt"
	"io"
	"math/big"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math"
	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and inspect pools",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool and its first position",
		RunE:  runPoolInit,
	}
	flags := initCmd.Flags()
	flags.Uint64("config-index", 0, "pool config index the pool address derives from")
	flags.String("token-a-mint", "", "token a mint, random when empty")
	flags.String("token-b-mint", "", "token b mint, random when empty")
	flags.String("creator", "", "creator and first position owner, random when empty")
	flags.String("partner", "", "partner receiving a share of protocol fees")
	flags.String("token-a-amount", "", "token a deposit")
	flags.String("token-b-amount", "", "token b deposit")
	flags.String("price", "", "initial price of a in b; required for a one sided deposit")
	flags.String("min-price", "", "lower price bound, full range when empty")
	flags.String("max-price", "", "upper price bound, full range when empty")
	flags.Uint8("token-a-decimals", 9, "token a decimals")
	flags.Uint8("token-b-decimals", 9, "token b decimals")
	flags.Uint8("protocol-fee-percent", 20, "share of the trading fee kept by the protocol")
	flags.Uint8("partner-fee-percent", 0, "share of the protocol fee paid to the partner")
	flags.Uint8("referral-fee-percent", 20, "share of the protocol fee paid to referrers")
	flags.Uint16("max-price-change-bps", 0, "enable the dynamic fee sized for this price move")
	flags.Uint64("activation-point", 0, "first point trading is allowed, 0 means now")
	flags.String("activation-type", "timestamp", "activation type (slot, timestamp)")
	flags.String("collect-fee-mode", "both", "collect fee mode (both, onlya, onlyb)")
	flags.Uint8("pool-version", 1, "pool version (0, 1)")
	addBaseFeeFlags(flags)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print pool state",
		RunE:  runPoolShow,
	}
	showCmd.Flags().String("pool", "", "pool address")
	showCmd.Flags().Uint8("token-a-decimals", 9, "token a decimals")
	showCmd.Flags().Uint8("token-b-decimals", 9, "token b decimals")

	poolCmd.AddCommand(initCmd, showCmd)
	poolCmd.AddCommand(newPoolAdminCmds()...)
	return poolCmd
}

func decimalFlag(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

// priceBound converts an optional human price flag to a sqrt price.
func priceBound(cmd *cobra.Command, name string, fallback *big.Int, decimalsA, decimalsB uint8) (*big.Int, error) {
	price, err := decimalFlag(cmd, name)
	if err != nil || price == nil {
		return fallback, err
	}
	return math.GetSqrtPriceFromPrice(*price, decimalsA, decimalsB)
}

func runPoolInit(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	decimalsA, _ := flags.GetUint8("token-a-decimals")
	decimalsB, _ := flags.GetUint8("token-b-decimals")

	params := dammv2.InitializePoolParams{
		ActivationType: a.cfg.ActivationType,
		CollectFeeMode: a.cfg.CollectFeeMode,
		PoolVersion:    a.cfg.PoolVersion,
	}
	configIndex, _ := flags.GetUint64("config-index")
	params.Config = dammv2.DeriveConfigAddress(configIndex)
	if params.TokenAMint, err = keyFlag(cmd, "token-a-mint", true); err != nil {
		return err
	}
	if params.TokenBMint, err = keyFlag(cmd, "token-b-mint", true); err != nil {
		return err
	}
	if params.Creator, err = keyFlag(cmd, "creator", true); err != nil {
		return err
	}
	if partner, _ := flags.GetString("partner"); partner != "" {
		if params.Partner, err = keyFlag(cmd, "partner", false); err != nil {
			return err
		}
	}
	params.PositionNftMint = solanago.NewWallet().PublicKey()

	if params.SqrtMinPrice, err = priceBound(cmd, "min-price", dammv2.MinSqrtPrice, decimalsA, decimalsB); err != nil {
		return err
	}
	if params.SqrtMaxPrice, err = priceBound(cmd, "max-price", dammv2.MaxSqrtPrice, decimalsA, decimalsB); err != nil {
		return err
	}

	if err := sizePool(cmd, &params, decimalsA, decimalsB); err != nil {
		return err
	}

	if params.PoolFees.BaseFee, err = baseFeeFromFlags(flags); err != nil {
		return err
	}
	params.PoolFees.ProtocolFeePercent, _ = flags.GetUint8("protocol-fee-percent")
	params.PoolFees.PartnerFeePercent, _ = flags.GetUint8("partner-fee-percent")
	params.PoolFees.ReferralFeePercent, _ = flags.GetUint8("referral-fee-percent")
	if maxChange, _ := flags.GetUint16("max-price-change-bps"); maxChange > 0 {
		feeBps, _ := flags.GetUint16("fee-bps")
		dynamicFee, err := helpers.GetDynamicFeeParams(feeBps, maxChange)
		if err != nil {
			return err
		}
		params.PoolFees.DynamicFee = &dynamicFee
	}
	if point, _ := flags.GetUint64("activation-point"); point > 0 {
		params.ActivationPoint = &point
	}

	result, err := a.amm.CreatePool(a.ctx, params, clock)
	if err != nil {
		a.logger.Error("create pool", zap.Error(err))
		return err
	}
	a.logger.Info("pool created",
		zap.String("pool", result.Pool.String()),
		zap.String("position", result.Position.String()),
		zap.String("token_a_amount", result.TokenAAmount.String()),
		zap.String("token_b_amount", result.TokenBAmount.String()),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pool:           %s\n", result.Pool)
	fmt.Fprintf(out, "position:       %s\n", result.Position)
	fmt.Fprintf(out, "position nft:   %s\n", params.PositionNftMint)
	fmt.Fprintf(out, "token a amount: %s\n", result.TokenAAmount)
	fmt.Fprintf(out, "token b amount: %s\n", result.TokenBAmount)
	return nil
}

// sizePool fills the initial sqrt price and liquidity from the deposit flags.
// Two amounts without a price place the price where both are used in full.
func sizePool(cmd *cobra.Command, params *dammv2.InitializePoolParams, decimalsA, decimalsB uint8) error {
	amountA, err := amountFlag(cmd, "token-a-amount", false)
	if err != nil {
		return err
	}
	amountB, err := amountFlag(cmd, "token-b-amount", false)
	if err != nil {
		return err
	}
	if amountA == nil {
		amountA = big.NewInt(0)
	}
	if amountB == nil {
		amountB = big.NewInt(0)
	}
	price, err := decimalFlag(cmd, "price")
	if err != nil {
		return err
	}

	if price == nil {
		prepared, err := dammv2.PreparePoolCreationParams(amountA, amountB, params.SqrtMinPrice, params.SqrtMaxPrice)
		if err != nil {
			return err
		}
		params.SqrtPrice = prepared.InitSqrtPrice
		params.Liquidity = prepared.LiquidityDelta
		return nil
	}

	if params.SqrtPrice, err = math.GetSqrtPriceFromPrice(*price, decimalsA, decimalsB); err != nil {
		return err
	}
	if amountB.Sign() == 0 {
		params.Liquidity, err = dammv2.PreparePoolCreationSingleSide(amountA, params.SqrtMinPrice, params.SqrtMaxPrice, params.SqrtPrice)
		return err
	}
	params.Liquidity, err = dammv2.GetLiquidityDelta(dammv2.LiquidityDeltaParams{
		MaxAmountTokenA: amountA,
		MaxAmountTokenB: amountB,
		SqrtPrice:       params.SqrtPrice,
		SqrtMinPrice:    params.SqrtMinPrice,
		SqrtMaxPrice:    params.SqrtMaxPrice,
	})
	return err
}

func runPoolShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	pool, err := a.amm.FetchPoolState(a.ctx, poolKey)
	if err != nil {
		return err
	}
	decimalsA, _ := cmd.Flags().GetUint8("token-a-decimals")
	decimalsB, _ := cmd.Flags().GetUint8("token-b-decimals")
	return printPool(cmd.OutOrStdout(), pool, clock, decimalsA, decimalsB)
}

func baseFeeHandler(pool *state.Pool) (shared.BaseFeeHandler, error) {
	return pool_fees.GetBaseFeeHandler(pool.PoolFees.BaseFee.Data[:])
}

func printPool(out io.Writer, pool *state.Pool, clock dammv2.Clock, decimalsA, decimalsB uint8) error {
	handler, err := baseFeeHandler(pool)
	if err != nil {
		return err
	}
	ctx := math.NewFeeContext(pool, new(big.Int).SetUint64(clock.CurrentPoint(pool.ActivationType)), dammv2.TradeDirectionAtoB)
	baseFee, err := handler.GetBaseFeeNumeratorFromIncludedFeeAmount(ctx, big.NewInt(0))
	if err != nil {
		return err
	}
	totalFee := math.GetTotalFeeNumerator(pool.PoolFees, baseFee, math.GetMaxFeeNumerator(dammv2.PoolVersion(pool.Version)))

	fmt.Fprintf(out, "price:            %s\n", math.GetPriceFromSqrtPrice(pool.SqrtPrice.BigInt(), decimalsA, decimalsB))
	fmt.Fprintf(out, "sqrt price:       %s\n", pool.SqrtPrice.BigInt())
	fmt.Fprintf(out, "sqrt range:       [%s, %s]\n", pool.SqrtMinPrice.BigInt(), pool.SqrtMaxPrice.BigInt())
	fmt.Fprintf(out, "liquidity:        %s\n", pool.Liquidity.BigInt())
	fmt.Fprintf(out, "permanent lock:   %s\n", pool.PermanentLockLiquidity.BigInt())
	fmt.Fprintf(out, "base fee:         %s (%s)\n", formatPercent(baseFee), handler.Mode())
	fmt.Fprintf(out, "total fee:        %s\n", formatPercent(totalFee))
	fmt.Fprintf(out, "dynamic fee:      %t\n", pool_fees.IsDynamicFeeEnabled(pool.PoolFees.DynamicFee))
	fmt.Fprintf(out, "active:           %t\n", dammv2.IsPoolActive(pool, clock))
	fmt.Fprintf(out, "protocol fees:    a=%d b=%d\n", pool.ProtocolAFee, pool.ProtocolBFee)
	fmt.Fprintf(out, "partner fees:     a=%d b=%d\n", pool.PartnerAFee, pool.PartnerBFee)
	fmt.Fprintf(out, "positions:        %d\n", pool.Metrics.TotalPosition)
	return nil
}
