package main

import (
	"fmt"
	"io"
	"math/big"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dammv2 "github.com/krazyTry/cpamm-go/damm_v2"
	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func newPositionCmd() *cobra.Command {
	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Manage liquidity positions",
	}

	openCmd := &cobra.Command{Use: "open", Short: "Open an empty position", RunE: runPositionOpen}
	openCmd.Flags().String("pool", "", "pool address")
	openCmd.Flags().String("owner", "", "position owner, random when empty")

	addCmd := &cobra.Command{Use: "add", Short: "Deposit liquidity", RunE: runPositionAdd}
	addCmd.Flags().String("position", "", "position address")
	addCmd.Flags().String("liquidity", "", "liquidity to add")
	addCmd.Flags().String("token-a-amount", "", "size the deposit from a token a amount instead")
	addCmd.Flags().String("token-b-amount", "", "size the deposit from a token b amount instead")
	addCmd.Flags().String("max-a", "", "maximum token a to deposit")
	addCmd.Flags().String("max-b", "", "maximum token b to deposit")

	removeCmd := &cobra.Command{Use: "remove", Short: "Withdraw unlocked liquidity", RunE: runPositionRemove}
	removeCmd.Flags().String("position", "", "position address")
	removeCmd.Flags().String("liquidity", "", "liquidity to remove")
	removeCmd.Flags().Bool("all", false, "remove all unlocked liquidity after releasing vested liquidity")
	removeCmd.Flags().String("min-a", "", "minimum token a to receive")
	removeCmd.Flags().String("min-b", "", "minimum token b to receive")

	lockCmd := &cobra.Command{Use: "lock", Short: "Lock liquidity under a vesting schedule or permanently", RunE: runPositionLock}
	lockCmd.Flags().String("position", "", "position address")
	lockCmd.Flags().Uint64("cliff-point", 0, "point the cliff releases, 0 means now")
	lockCmd.Flags().Uint64("period-frequency", 0, "points between releases")
	lockCmd.Flags().String("cliff-liquidity", "", "liquidity released at the cliff")
	lockCmd.Flags().String("liquidity-per-period", "", "liquidity released each period")
	lockCmd.Flags().Uint16("periods", 0, "number of release periods")
	lockCmd.Flags().String("permanent", "", "lock this much liquidity forever instead")

	splitCmd := &cobra.Command{Use: "split", Short: "Move a share of one position into another", RunE: runPositionSplit}
	splitCmd.Flags().String("from", "", "source position")
	splitCmd.Flags().String("to", "", "destination position")
	for _, name := range []string{"unlocked", "permanent", "vesting", "fee-a", "fee-b", "reward-0", "reward-1"} {
		splitCmd.Flags().String(name, "", "percentage of "+name+" to move, e.g. 37.5")
	}

	mergeCmd := &cobra.Command{Use: "merge", Short: "Move everything from one position into another", RunE: runPositionMerge}
	mergeCmd.Flags().String("from", "", "source position")
	mergeCmd.Flags().String("to", "", "destination position")
	mergeCmd.Flags().Bool("close", false, "close the emptied source position")

	claimCmd := &cobra.Command{Use: "claim", Short: "Claim trading fees or a reward", RunE: runPositionClaim}
	claimCmd.Flags().String("position", "", "position address")
	claimCmd.Flags().Int("reward", -1, "claim this reward index instead of trading fees")

	showCmd := &cobra.Command{Use: "show", Short: "Print a position and what it can claim", RunE: runPositionShow}
	showCmd.Flags().String("position", "", "position address")

	listCmd := &cobra.Command{Use: "list", Short: "List the positions of a pool", RunE: runPositionList}
	listCmd.Flags().String("pool", "", "pool address")

	positionCmd.AddCommand(openCmd, addCmd, removeCmd, lockCmd, splitCmd, mergeCmd, claimCmd, showCmd, listCmd)
	return positionCmd
}

func runPositionOpen(cmd *cobra.Command, _ []string) error {
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
	owner, err := keyFlag(cmd, "owner", true)
	if err != nil {
		return err
	}
	nftMint := solanago.NewWallet().PublicKey()

	positionKey, err := a.amm.CreatePosition(a.ctx, poolKey, owner, nftMint, clock)
	if err != nil {
		return err
	}
	a.logger.Info("position opened", zap.String("pool", poolKey.String()), zap.String("position", positionKey.String()))
	fmt.Fprintf(cmd.OutOrStdout(), "position:     %s\nowner:        %s\nposition nft: %s\n", positionKey, owner, nftMint)
	return nil
}

// depositLiquidity resolves --liquidity or sizes it from a one sided amount.
func depositLiquidity(cmd *cobra.Command, a *app, positionKey solanago.PublicKey) (*big.Int, error) {
	liquidity, err := amountFlag(cmd, "liquidity", false)
	if err != nil || liquidity != nil {
		return liquidity, err
	}
	amountA, err := amountFlag(cmd, "token-a-amount", false)
	if err != nil {
		return nil, err
	}
	amountB, err := amountFlag(cmd, "token-b-amount", false)
	if err != nil {
		return nil, err
	}
	if amountA == nil && amountB == nil {
		return nil, fmt.Errorf("one of --liquidity, --token-a-amount or --token-b-amount is required")
	}

	position, err := a.amm.FetchPositionState(a.ctx, positionKey)
	if err != nil {
		return nil, err
	}
	pool, err := a.amm.FetchPoolState(a.ctx, position.Pool)
	if err != nil {
		return nil, err
	}
	amount, isTokenA := amountA, true
	if amountA == nil {
		amount, isTokenA = amountB, false
	}
	quote, err := dammv2.GetDepositQuote(pool, amount, isTokenA)
	if err != nil {
		return nil, err
	}
	return quote.LiquidityDelta, nil
}

func runPositionAdd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}
	params := dammv2.AddLiquidityParams{}
	if params.LiquidityDelta, err = depositLiquidity(cmd, a, positionKey); err != nil {
		return err
	}
	if params.TokenAAmountThreshold, err = amountFlag(cmd, "max-a", false); err != nil {
		return err
	}
	if params.TokenBAmountThreshold, err = amountFlag(cmd, "max-b", false); err != nil {
		return err
	}

	result, err := a.amm.AddLiquidity(a.ctx, positionKey, params, clock)
	if err != nil {
		return err
	}
	a.logger.Info("liquidity added", zap.String("position", positionKey.String()), zap.String("liquidity", params.LiquidityDelta.String()))
	printAmounts(cmd.OutOrStdout(), params.LiquidityDelta, result)
	return nil
}

func runPositionRemove(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}
	minA, err := amountFlag(cmd, "min-a", false)
	if err != nil {
		return err
	}
	minB, err := amountFlag(cmd, "min-b", false)
	if err != nil {
		return err
	}

	var (
		result    dammv2.ModifyLiquidityResult
		liquidity *big.Int
	)
	if all, _ := cmd.Flags().GetBool("all"); all {
		result, err = a.amm.RemoveAllLiquidity(a.ctx, positionKey, minA, minB, clock)
	} else {
		if liquidity, err = amountFlag(cmd, "liquidity", true); err != nil {
			return err
		}
		result, err = a.amm.RemoveLiquidity(a.ctx, positionKey, dammv2.RemoveLiquidityParams{
			LiquidityDelta:        liquidity,
			TokenAAmountThreshold: minA,
			TokenBAmountThreshold: minB,
		}, clock)
	}
	if err != nil {
		a.logger.Warn("remove liquidity rejected", zap.String("position", positionKey.String()), zap.Error(err))
		return err
	}
	printAmounts(cmd.OutOrStdout(), liquidity, result)
	return nil
}

func printAmounts(out io.Writer, liquidity *big.Int, result dammv2.ModifyLiquidityResult) {
	if liquidity != nil {
		fmt.Fprintf(out, "liquidity:      %s\n", liquidity)
	}
	fmt.Fprintf(out, "token a amount: %s\n", result.TokenAAmount)
	fmt.Fprintf(out, "token b amount: %s\n", result.TokenBAmount)
}

func runPositionLock(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}

	permanent, err := amountFlag(cmd, "permanent", false)
	if err != nil {
		return err
	}
	if permanent != nil {
		if err := a.amm.PermanentLockPosition(a.ctx, positionKey, permanent, clock); err != nil {
			return err
		}
		a.logger.Info("liquidity locked permanently", zap.String("position", positionKey.String()), zap.String("liquidity", permanent.String()))
		return nil
	}

	flags := cmd.Flags()
	params := dammv2.LockPositionParams{}
	if cliffPoint, _ := flags.GetUint64("cliff-point"); cliffPoint > 0 {
		params.CliffPoint = &cliffPoint
	}
	params.PeriodFrequency, _ = flags.GetUint64("period-frequency")
	params.NumberOfPeriod, _ = flags.GetUint16("periods")
	if params.CliffUnlockLiquidity, err = amountFlag(cmd, "cliff-liquidity", false); err != nil {
		return err
	}
	if params.LiquidityPerPeriod, err = amountFlag(cmd, "liquidity-per-period", false); err != nil {
		return err
	}
	if err := a.amm.LockPosition(a.ctx, positionKey, params, clock); err != nil {
		return err
	}
	a.logger.Info("liquidity vesting", zap.String("position", positionKey.String()), zap.Uint16("periods", params.NumberOfPeriod))
	return nil
}

func splitParamsFromFlags(cmd *cobra.Command) (dammv2.SplitPositionParameters2, error) {
	var params dammv2.SplitPositionParameters2
	targets := []struct {
		flag string
		dst  *uint32
	}{
		{"unlocked", &params.UnlockedLiquidityNumerator},
		{"permanent", &params.PermanentLockedLiquidityNumerator},
		{"vesting", &params.InnerVestingLiquidityNumerator},
		{"fee-a", &params.FeeANumerator},
		{"fee-b", &params.FeeBNumerator},
		{"reward-0", &params.Reward0Numerator},
		{"reward-1", &params.Reward1Numerator},
	}
	for _, target := range targets {
		value, _ := cmd.Flags().GetString(target.flag)
		numerator, err := percentToNumerator(value)
		if err != nil {
			return params, fmt.Errorf("--%s: %w", target.flag, err)
		}
		*target.dst = numerator
	}
	return params, nil
}

func runPositionSplit(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	from, err := keyFlag(cmd, "from", false)
	if err != nil {
		return err
	}
	to, err := keyFlag(cmd, "to", false)
	if err != nil {
		return err
	}
	params, err := splitParamsFromFlags(cmd)
	if err != nil {
		return err
	}

	info, err := a.amm.SplitPosition2(a.ctx, from, to, params, clock)
	if err != nil {
		return err
	}
	a.logger.Info("position split", zap.String("from", from.String()), zap.String("to", to.String()))
	printSplit(cmd.OutOrStdout(), info)
	return nil
}

func runPositionMerge(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	from, err := keyFlag(cmd, "from", false)
	if err != nil {
		return err
	}
	to, err := keyFlag(cmd, "to", false)
	if err != nil {
		return err
	}

	info, err := a.amm.MergePosition(a.ctx, from, to, clock)
	if err != nil {
		return err
	}
	printSplit(cmd.OutOrStdout(), info)

	if closeSource, _ := cmd.Flags().GetBool("close"); closeSource {
		if err := a.amm.ClosePosition(a.ctx, from, clock); err != nil {
			return err
		}
		a.logger.Info("position closed", zap.String("position", from.String()))
	}
	return nil
}

func printSplit(out io.Writer, info dammv2.SplitAmountInfo) {
	fmt.Fprintf(out, "unlocked liquidity:  %s\n", info.UnlockedLiquidity)
	fmt.Fprintf(out, "permanent liquidity: %s\n", info.PermanentLockedLiquidity)
	fmt.Fprintf(out, "vested liquidity:    %s\n", info.VestedLiquidity)
	fmt.Fprintf(out, "fees:                a=%d b=%d\n", info.FeeA, info.FeeB)
	fmt.Fprintf(out, "rewards:             %v\n", info.Rewards)
}

func runPositionClaim(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if index, _ := cmd.Flags().GetInt("reward"); index >= 0 {
		if index >= dammv2.NumRewards {
			return fmt.Errorf("--reward %d: at most %d reward slots", index, dammv2.NumRewards)
		}
		amount, err := a.amm.ClaimReward(a.ctx, positionKey, uint8(index), clock)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reward %d: %d\n", index, amount)
		return nil
	}

	fees, err := a.amm.ClaimPositionFee(a.ctx, positionKey, clock)
	if err != nil {
		return err
	}
	a.logger.Info("fees claimed", zap.String("position", positionKey.String()), zap.Uint64("fee_a", fees.FeeA), zap.Uint64("fee_b", fees.FeeB))
	fmt.Fprintf(out, "fee a: %d\nfee b: %d\n", fees.FeeA, fees.FeeB)
	return nil
}

func runPositionShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}
	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}
	position, err := a.amm.FetchPositionState(a.ctx, positionKey)
	if err != nil {
		return err
	}
	pending, err := a.amm.GetPendingFees(a.ctx, positionKey, clock)
	if err != nil {
		return err
	}
	printPosition(cmd.OutOrStdout(), position, pending)
	return nil
}

func printPosition(out io.Writer, position *state.Position, pending helpers.PendingFees) {
	fmt.Fprintf(out, "pool:                %s\n", position.Pool)
	fmt.Fprintf(out, "owner:               %s\n", position.Owner)
	fmt.Fprintf(out, "unlocked liquidity:  %s\n", position.UnlockedLiquidity.BigInt())
	fmt.Fprintf(out, "vested liquidity:    %s\n", position.VestedLiquidity.BigInt())
	fmt.Fprintf(out, "permanent liquidity: %s\n", position.PermanentLockedLiquidity.BigInt())
	fmt.Fprintf(out, "pending fees:        a=%d b=%d\n", pending.FeeA, pending.FeeB)
	fmt.Fprintf(out, "pending rewards:     %v\n", pending.Rewards)
}

func runPositionList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	poolKey, err := keyFlag(cmd, "pool", false)
	if err != nil {
		return err
	}
	positions, err := a.amm.GetAllPositionsByPool(a.ctx, poolKey)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for key, position := range positions {
		fmt.Fprintf(out, "%s owner=%s liquidity=%s\n", key, position.Owner, helpers.TotalPositionLiquidity(position))
	}
	return nil
}
