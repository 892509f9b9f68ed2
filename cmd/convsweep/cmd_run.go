package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compare two functions over the shape grids",
		Example: `  convsweep run --lhs NaiveConv-CPU --rhs GemmConv-CPU
  convsweep run --lhs GemmConv-CPU --rhs DepthwiseConv-GPU --groups --mode forward`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			lhs, _ := cmd.Flags().GetString("lhs")
			rhs, _ := cmd.Flags().GetString("rhs")
			modeName, _ := cmd.Flags().GetString("mode")
			shapes, _ := cmd.Flags().GetString("shapes")
			useGroups, _ := cmd.Flags().GetBool("groups")
			algo, _ := cmd.Flags().GetString("algo")
			csvPath, _ := cmd.Flags().GetString("csv")

			mode, err := sweep.ParseMode(modeName)
			if err != nil {
				return err
			}

			var cases []sweep.Case
			switch shapes {
			case "square":
				cases = sweep.SquareCases(e.square, useGroups)
			case "rect":
				cases = sweep.RectCases(e.rect, useGroups)
			case "both":
				cases = append(sweep.SquareCases(e.square, useGroups), sweep.RectCases(e.rect, useGroups)...)
			default:
				return fmt.Errorf("invalid --shapes %q (valid: square, rect, both)", shapes)
			}

			sw := e.sweep(lhs, rhs, mode)
			if algo != "" {
				sw.Algo = algo
			}
			if cmd.Flags().Changed("keep-going") {
				sw.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
			}

			report, runErr := sw.Run(cmd.Context(), cases)
			if err := writeCSV(csvPath, report); err != nil {
				return err
			}
			if err := e.printReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().String("lhs", "NaiveConv-CPU", "Reference function (qualified name)")
	cmd.Flags().String("rhs", "GemmConv-CPU", "Function under test (qualified name)")
	cmd.Flags().String("mode", "forward", "Test mode: forward, backward-input, backward-filter")
	cmd.Flags().String("shapes", "both", "Shape grids: square, rect, both")
	cmd.Flags().Bool("groups", false, "Use one group per input channel")
	cmd.Flags().String("algo", "", "Algorithm option passed to both functions (default from config)")
	cmd.Flags().Bool("keep-going", false, "Run every case instead of stopping at the first failure")
	cmd.Flags().String("csv", "", "Write per-case results to this CSV file")
	return cmd
}
