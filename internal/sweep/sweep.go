package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/compare"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/conv"
)

// ErrFailed is returned by Run when at least one case failed and the sweep
// kept going.
var ErrFailed = errors.New("sweep: cases failed")

// Sweep compares two functions, given by qualified name, over a list of cases.
type Sweep struct {
	Lhs, Rhs string
	Mode     Mode
	// Algo is passed to both functions as the "algo" option.
	Algo string
	// KeepGoing runs every case instead of stopping at the first failure.
	KeepGoing bool
	// Options are applied to every comparator.
	Options []compare.Option
	Logger  *zap.Logger
}

// New returns a sweep with the default algorithm and a no-op logger.
func New(lhs, rhs string, mode Mode) *Sweep {
	return &Sweep{
		Lhs:    lhs,
		Rhs:    rhs,
		Mode:   mode,
		Algo:   conv.AlgoAuto,
		Logger: zap.NewNop(),
	}
}

func (s *Sweep) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Run executes the cases one at a time and records each outcome. A case
// that cannot be set up, for example because a function is not registered,
// always stops the sweep. Otherwise the first failing case stops it unless
// KeepGoing is set, in which case the error wraps ErrFailed.
func (s *Sweep) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := NewReport()
	log := s.logger().With(
		zap.String("run_id", report.RunID),
		zap.String("lhs", s.Lhs),
		zap.String("rhs", s.Rhs),
		zap.Stringer("mode", s.Mode),
	)
	algo := s.Algo
	if algo == "" {
		algo = conv.AlgoAuto
	}

	failed := 0
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log.Debug("case", zap.Stringer("case", c), zap.Int("groups", c.Groups))

		cmp, err := compare.New(s.Lhs, s.Rhs, c.Config(algo), s.Options...)
		if err != nil {
			return report, fmt.Errorf("case %s: %w", c, err)
		}
		inputs, output := c.Args(s.Mode)
		for _, in := range inputs {
			cmp.AddInputs(in)
		}
		cmp.AddOutputs(output, output.ArgType)

		start := time.Now()
		res, err := cmp.Run(ctx)
		result := Result{
			Case:       c,
			Lhs:        s.Lhs,
			Rhs:        s.Rhs,
			Mode:       s.Mode,
			MaxDiff:    res.MaxDiff,
			Mismatches: res.Mismatches,
			Elapsed:    time.Since(start),
			Err:        err,
		}
		report.Add(result)
		if err == nil {
			continue
		}

		failed++
		log.Warn("case failed", zap.Stringer("case", c), zap.Error(err))
		if !s.KeepGoing {
			return report, fmt.Errorf("case %s: %w", c, err)
		}
	}

	if failed > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrFailed, failed, len(cases))
	}
	log.Info("sweep passed", zap.Int("cases", len(cases)))
	return report, nil
}
