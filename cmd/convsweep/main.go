package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/compare"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/config"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/logging"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "convsweep",
		Short: "Differential checks for convolution kernels",
		Long: `convsweep runs two implementations of a convolution operator over a
grid of tensor shapes and reports every configuration where their outputs
disagree beyond the tolerance.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("quick", false, "Use the reduced shape grids")

	rootCmd.AddCommand(
		newRunCmd(),
		newSuiteCmd(),
		newListCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// env is the per-command state built from flags and config.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	jsonOut bool
	square  sweep.SquareGrid
	rect    sweep.RectGrid
}

func newEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	e := &env{cfg: cfg, log: log, square: cfg.Grids.Square, rect: cfg.Grids.Rect}
	e.jsonOut, _ = cmd.Flags().GetBool("json")
	if quick, _ := cmd.Flags().GetBool("quick"); quick {
		e.square, e.rect = sweep.ReducedSquareGrid(), sweep.ReducedRectGrid()
	}
	return e, nil
}

func (e *env) close() {
	_ = e.log.Sync()
}

// sweep returns a sweep carrying the configured algorithm, comparator
// options and logger.
func (e *env) sweep(lhs, rhs string, mode sweep.Mode) *sweep.Sweep {
	sw := sweep.New(lhs, rhs, mode)
	if e.cfg.Sweep.Algo != "" {
		sw.Algo = e.cfg.Sweep.Algo
	}
	sw.KeepGoing = e.cfg.Sweep.KeepGoing
	sw.Options = e.cfg.CompareOptions()
	if e.cfg.Compare.Workers > 0 {
		sw.Options = append(sw.Options, compare.WithDevice(device.NewGPUDevice(e.cfg.Compare.Workers)))
	}
	sw.Logger = e.log
	return sw
}

type reportOutput struct {
	sweep.Summary
	Failures []failureOutput `json:"failures,omitempty"`
}

type failureOutput struct {
	Lhs   string `json:"lhs"`
	Rhs   string `json:"rhs"`
	Mode  string `json:"mode"`
	Case  string `json:"case"`
	Error string `json:"error"`
}

// printReport writes the summary and every failure.
func (e *env) printReport(w io.Writer, report *sweep.Report) error {
	out := reportOutput{Summary: report.Summary()}
	for _, res := range report.Failed() {
		out.Failures = append(out.Failures, failureOutput{
			Lhs:   res.Lhs,
			Rhs:   res.Rhs,
			Mode:  res.Mode.String(),
			Case:  res.Case.String(),
			Error: res.Err.Error(),
		})
	}

	if e.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, f := range out.Failures {
		fmt.Fprintf(w, "FAIL %s vs %s (%s) %s\n  %s\n", f.Lhs, f.Rhs, f.Mode, f.Case, f.Error)
	}
	fmt.Fprintln(w, out.Summary)
	return nil
}

// writeCSV writes the report to path when it is set.
func writeCSV(path string, report *sweep.Report) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
