package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func newVestingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vesting",
		Short: "Print the release schedule of a position or of a proposed lock",
		RunE:  runVesting,
	}
	cmd.Flags().String("position", "", "read the schedule of this stored position")
	cmd.Flags().Uint64("cliff-point", 0, "point the cliff releases")
	cmd.Flags().Uint64("period-frequency", 0, "points between releases")
	cmd.Flags().String("cliff-liquidity", "0", "liquidity released at the cliff")
	cmd.Flags().String("liquidity-per-period", "0", "liquidity released each period")
	cmd.Flags().Uint16("periods", 0, "number of release periods")

	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Unlock a vesting schedule locked with the permanent cliff",
		RunE:  runVestingRelease,
	}
	releaseCmd.Flags().String("position", "", "position address")
	cmd.AddCommand(releaseCmd)
	return cmd
}

func runVestingRelease(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	positionKey, err := keyFlag(cmd, "position", false)
	if err != nil {
		return err
	}
	released, err := a.amm.ReleasePermanentVesting(a.ctx, positionKey)
	if err != nil {
		return err
	}
	a.logger.Info("permanent vesting released", zap.String("position", positionKey.String()), zap.String("liquidity", released.String()))
	fmt.Fprintf(cmd.OutOrStdout(), "released: %s\n", released)
	return nil
}

type vestingRow struct {
	Point    uint64
	Released *big.Int
	Locked   *big.Int
}

// vestingSchedule lists the cumulative release at the cliff and at the end
// of every period.
func vestingSchedule(vesting *state.InnerVesting) []vestingRow {
	total := helpers.GetTotalLockedLiquidity(vesting)
	rows := make([]vestingRow, 0, int(vesting.NumberOfPeriod)+1)
	for i := uint64(0); i <= uint64(vesting.NumberOfPeriod); i++ {
		point := vesting.CliffPoint + i*vesting.PeriodFrequency
		released := helpers.GetMaxUnlockedLiquidity(vesting, new(big.Int).SetUint64(point))
		rows = append(rows, vestingRow{
			Point:    point,
			Released: released,
			Locked:   new(big.Int).Sub(total, released),
		})
		if vesting.PeriodFrequency == 0 {
			break
		}
	}
	return rows
}

func vestingFromFlags(cmd *cobra.Command) (*state.InnerVesting, error) {
	flags := cmd.Flags()
	vesting := &state.InnerVesting{}
	vesting.CliffPoint, _ = flags.GetUint64("cliff-point")
	vesting.PeriodFrequency, _ = flags.GetUint64("period-frequency")
	vesting.NumberOfPeriod, _ = flags.GetUint16("periods")

	cliff, err := amountFlag(cmd, "cliff-liquidity", true)
	if err != nil {
		return nil, err
	}
	perPeriod, err := amountFlag(cmd, "liquidity-per-period", true)
	if err != nil {
		return nil, err
	}
	vesting.CliffUnlockLiquidity = state.U128(cliff)
	vesting.LiquidityPerPeriod = state.U128(perPeriod)
	if vesting.NumberOfPeriod > 0 && vesting.PeriodFrequency == 0 {
		return nil, fmt.Errorf("--period-frequency is required with --periods")
	}
	return vesting, nil
}

func runVesting(cmd *cobra.Command, _ []string) error {
	clock, err := clockFromFlags(cmd)
	if err != nil {
		return err
	}

	var vesting *state.InnerVesting
	now := clock.UnixTimestamp
	if positionFlag, _ := cmd.Flags().GetString("position"); positionFlag != "" {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		positionKey, err := keyFlag(cmd, "position", false)
		if err != nil {
			return err
		}
		position, err := a.amm.FetchPositionState(a.ctx, positionKey)
		if err != nil {
			return err
		}
		pool, err := a.amm.FetchPoolState(a.ctx, position.Pool)
		if err != nil {
			return err
		}
		vesting = &position.InnerVesting
		now = clock.CurrentPoint(pool.ActivationType)
	} else if vesting, err = vestingFromFlags(cmd); err != nil {
		return err
	}

	printVesting(cmd.OutOrStdout(), vesting, now)
	return nil
}

func printVesting(out io.Writer, vesting *state.InnerVesting, now uint64) {
	switch {
	case vesting.IsZero():
		fmt.Fprintln(out, "no vesting schedule")
		return
	case vesting.IsPermanent():
		fmt.Fprintf(out, "permanent lock of %s\n", helpers.GetTotalLockedLiquidity(vesting))
		return
	}

	fmt.Fprintf(out, "%-20s %-40s %s\n", "point", "released", "locked")
	for _, row := range vestingSchedule(vesting) {
		fmt.Fprintf(out, "%-20d %-40s %s\n", row.Point, row.Released, row.Locked)
	}
	current := new(big.Int).SetUint64(now)
	fmt.Fprintf(out, "released so far:  %s\n", vesting.TotalReleasedLiquidity.BigInt())
	fmt.Fprintf(out, "available at %d: %s\n", now, helpers.GetAvailableVestingLiquidity(vesting, current))
	fmt.Fprintf(out, "complete:         %t\n", helpers.IsVestingComplete(vesting, current))
}
