package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
)

// newPoolAdminCmds returns the pool subcommands that change fees, status and
// pool level fee balances.
func newPoolAdminCmds() []*cobra.Command {
	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Update the cliff fee or the dynamic fee of a pool",
		RunE:  runPoolFees,
	}
	feesCmd.Flags().String("pool", "", "pool address")
	feesCmd.Flags().Uint16("fee-bps", 0, "new cliff fee in basis points, unchanged when 0")
	feesCmd.Flags().Uint16("max-price-change-bps", 0, "enable the dynamic fee sized for this price move")
	feesCmd.Flags().Bool("disable-dynamic-fee", false, "turn the dynamic fee off")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Enable or disable trading on a pool",
		RunE:  runPoolStatus,
	}
	statusCmd.Flags().String("pool", "", "pool address")
	statusCmd.Flags().Bool("disable", false, "disable trading instead of enabling it")

	claimCmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim protocol or partner fees",
		RunE:  runPoolClaim,
	}
	claimCmd.Flags().String("pool", "", "pool address")
	claimCmd.Flags().Bool("partner", false, "claim the partner share instead of the protocol share")
	claimCmd.Flags().Uint64("max-a", ^uint64(0), "maximum token a to claim")
	claimCmd.Flags().Uint64("max-b", ^uint64(0), "maximum token b to claim")

	return []*cobra.Command{feesCmd, statusCmd, claimCmd}
}

func runPoolFees(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var params dammv2.UpdatePoolFeesParams
	feeBps, _ := flags.GetUint16("fee-bps")
	if feeBps > 0 {
		numerator := helpers.BpsToFeeNumerator(feeBps).Uint64()
		params.CliffFeeNumerator = &numerator
	}
	if disable, _ := flags.GetBool("disable-dynamic-fee"); disable {
		params.DynamicFee = &dammv2.DynamicFee{}
	} else if maxChange, _ := flags.GetUint16("max-price-change-bps"); maxChange > 0 {
		base := feeBps
		if base == 0 {
			pool, err := a.amm.FetchPoolState(a.ctx, poolKey)
			if err != nil {
				return err
			}
			handler, err := baseFeeHandler(pool)
			if err != nil {
				return err
			}
			minFee, err := handler.GetMinFeeNumerator()
			if err != nil {
				return err
			}
			base = helpers.FeeNumeratorToBps(minFee)
		}
		dynamicFee, err := helpers.GetDynamicFeeParams(base, maxChange)
		if err != nil {
			return err
		}
		params.DynamicFee = &dynamicFee
	}

	if err := a.amm.UpdatePoolFees(a.ctx, poolKey, params, clock); err != nil {
		a.logger.Warn("fee update rejected", zap.String("pool", poolKey.String()), zap.Error(err))
		return err
	}
	a.logger.Info("pool fees updated", zap.String("pool", poolKey.String()))
	return nil
}

func runPoolStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	status := dammv2.PoolStatusEnable
	if disable, _ := cmd.Flags().GetBool("disable"); disable {
		status = dammv2.PoolStatusDisable
	}
	if err := a.amm.SetPoolStatus(a.ctx, poolKey, status); err != nil {
		return err
	}
	a.logger.Info("pool status set", zap.String("pool", poolKey.String()), zap.Uint8("status", uint8(status)))
	return nil
}

func runPoolClaim(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	maxA, _ := cmd.Flags().GetUint64("max-a")
	maxB, _ := cmd.Flags().GetUint64("max-b")

	var result dammv2.ClaimFeeResult
	if partner, _ := cmd.Flags().GetBool("partner"); partner {
		result, err = a.amm.ClaimPartnerFee(a.ctx, poolKey, maxA, maxB)
	} else {
		result, err = a.amm.ClaimProtocolFee(a.ctx, poolKey, maxA, maxB)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "fee a: %d\nfee b: %d\n", result.FeeA, result.FeeB)
	return nil
}

func newRewardCmd() *cobra.Command {
	rewardCmd := &cobra.Command{
		Use:   "reward",
		Short: "Manage the two liquidity mining slots of a pool",
	}
	addCommon := func(c *cobra.Command) *cobra.Command {
		c.Flags().String("pool", "", "pool address")
		c.Flags().Uint8("index", 0, "reward slot")
		return c
	}

	initCmd := addCommon(&cobra.Command{Use: "init", Short: "Initialize a reward slot", RunE: runRewardInit})
	initCmd.Flags().String("mint", "", "reward mint, random when empty")
	initCmd.Flags().String("funder", "", "account allowed to fund, random when empty")
	initCmd.Flags().Uint64("duration", dammv2.MinRewardDuration, "emission window in seconds")

	fundCmd := addCommon(&cobra.Command{Use: "fund", Short: "Fund a reward slot and restart its window", RunE: runRewardFund})
	fundCmd.Flags().Uint64("amount", 0, "reward amount")
	fundCmd.Flags().Bool("carry-forward", false, "also emit what accrued while the pool was empty")

	durationCmd := addCommon(&cobra.Command{Use: "duration", Short: "Change the window of a finished reward", RunE: runRewardDuration})
	durationCmd.Flags().Uint64("duration", 0, "new emission window in seconds")

	funderCmd := addCommon(&cobra.Command{Use: "funder", Short: "Hand a reward slot to another funder", RunE: runRewardFunder})
	funderCmd.Flags().String("funder", "", "new funder")

	ineligibleCmd := addCommon(&cobra.Command{
		Use:   "claim-ineligible",
		Short: "Return rewards emitted while the pool had no liquidity",
		RunE:  runRewardClaimIneligible,
	})

	showCmd := addCommon(&cobra.Command{Use: "show", Short: "Print the emission outlook of a reward slot", RunE: runRewardShow})
	showCmd.Flags().String("position", "", "also print this position's share")
	showCmd.Flags().Uint64("period", 3_600, "outlook window in seconds")

	rewardCmd.AddCommand(initCmd, fundCmd, durationCmd, funderCmd, ineligibleCmd, showCmd)
	return rewardCmd
}

// rewardTarget reads the pool and slot flags every reward command shares.
func rewardTarget(cmd *cobra.Command) (*app, dammv2.Clock, uint8, error) {
	clock, err := clockFromFlags(cmd)
	if err != nil {
		return nil, dammv2.Clock{}, 0, err
	}
	index, _ := cmd.Flags().GetUint8("index")
	a, err := openApp(cmd)
	if err != nil {
		return nil, dammv2.Clock{}, 0, err
	}
	return a, clock, index, nil
}

func runRewardInit(cmd *cobra.Command, _ []string) error {
	a, _, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	params := dammv2.InitializeRewardParams{RewardIndex: index}
	if params.Pool, err = keyFlag(cmd, "pool", false); err != nil {
		return err
	}
	if params.Mint, err = keyFlag(cmd, "mint", true); err != nil {
		return err
	}
	if params.Funder, err = keyFlag(cmd, "funder", true); err != nil {
		return err
	}
	params.RewardDuration, _ = cmd.Flags().GetUint64("duration")

	if err := a.amm.InitializeReward(a.ctx, params); err != nil {
		return err
	}
	a.logger.Info("reward initialized", zap.String("pool", params.Pool.String()), zap.Uint8("index", index))
	fmt.Fprintf(cmd.OutOrStdout(), "mint:   %s\nfunder: %s\n", params.Mint, params.Funder)
	return nil
}

func runRewardFund(cmd *cobra.Command, _ []string) error {
	a, clock, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	params := dammv2.FundRewardParams{RewardIndex: index}
	params.Amount, _ = cmd.Flags().GetUint64("amount")
	params.CarryForward, _ = cmd.Flags().GetBool("carry-forward")

	funded, err := a.amm.FundReward(a.ctx, poolKey, params, clock)
	if err != nil {
		return err
	}
	a.logger.Info("reward funded", zap.String("pool", poolKey.String()), zap.Uint8("index", index), zap.Uint64("amount", funded))
	fmt.Fprintf(cmd.OutOrStdout(), "funded: %d\n", funded)
	return nil
}

func runRewardDuration(cmd *cobra.Command, _ []string) error {
	a, clock, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetUint64("duration")
	return a.amm.UpdateRewardDuration(a.ctx, poolKey, index, duration, clock)
}

func runRewardFunder(cmd *cobra.Command, _ []string) error {
	a, _, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	funder, err := keyFlag(cmd, "funder", false)
	if err != nil {
		return err
	}
	return a.amm.UpdateRewardFunder(a.ctx, poolKey, index, funder)
}

func runRewardClaimIneligible(cmd *cobra.Command, _ []string) error {
	a, clock, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	amount, err := a.amm.ClaimIneligibleReward(a.ctx, poolKey, index, clock)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "returned: %d\n", amount)
	return nil
}

func runRewardShow(cmd *cobra.Command, _ []string) error {
	a, clock, index, err := rewardTarget(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	period, _ := cmd.Flags().GetUint64("period")
	pool, err := a.amm.FetchPoolState(a.ctx, poolKey)
	if err != nil {
		return err
	}
	perPeriod, balance, distributed, err := helpers.GetRewardInfo(pool, int(index), period, clock.UnixTimestamp)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "reward per period: %s\n", perPeriod)
	fmt.Fprintf(out, "balance: %s\n", balance)
	fmt.Fprintf(out, "distributed: %s\n", distributed)

	if positionFlag, _ := cmd.Flags().GetString("position"); positionFlag == "" {
		return nil
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}
	position, err := a.amm.FetchPositionState(a.ctx, positionKey)
	if err != nil {
		return err
	}
	if !position.Pool.Equals(poolKey) {
		return fmt.Errorf("position %s belongs to pool %s", positionKey, position.Pool)
	}
	userPerPeriod, pending, err := helpers.GetUserRewardPending(pool, position, int(index), clock.UnixTimestamp, period)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "position per period: %s\n", userPerPeriod)
	fmt.Fprintf(out, "position pending: %s\n", pending)
	return nil
}
