package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
)

func newSuiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite [name...]",
		Short: "Run named suites (all when no name is given)",
		Example: `  convsweep suite
  convsweep suite Forward/GEMM DepthwiseConvForward/GEMM2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			suites := sweep.Suites()
			if len(args) > 0 {
				suites = suites[:0]
				for _, name := range args {
					s, err := sweep.LookupSuite(name)
					if err != nil {
						return err
					}
					suites = append(suites, s)
				}
			}
			csvPath, _ := cmd.Flags().GetString("csv")

			report := sweep.NewReport()
			var failed []string
			for _, s := range suites {
				log := e.log.With(zap.String("suite", s.Name))
				sw := e.sweep(s.Lhs, s.Rhs, s.Mode)
				sw.Logger = log

				res, err := s.Run(cmd.Context(), *sw, e.square, e.rect)
				if errors.Is(err, sweep.ErrDeviceUnavailable) {
					log.Warn("suite skipped", zap.Error(err))
					continue
				}
				report.Merge(res)
				if err != nil {
					log.Error("suite failed", zap.Error(err))
					failed = append(failed, s.Name)
				}
			}

			if err := writeCSV(csvPath, report); err != nil {
				return err
			}
			if err := e.printReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d suites failed: %v", len(failed), failed)
			}
			return nil
		},
	}

	cmd.Flags().String("csv", "", "Write per-case results to this CSV file")
	return cmd
}
