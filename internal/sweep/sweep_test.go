package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/compare"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// constant fills its output with a fixed value whatever the inputs.
type constant struct{}

func (constant) Init(cfg *function.Config) error { return nil }

func (constant) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	for i := range outputs[0].Data {
		outputs[0].Data[i] = 42
	}
	return nil
}

func init() {
	function.Register("SweepTestConstant", device.CPU, func(device.Device) function.Function { return constant{} })
}

func smallCases() []Case {
	g := SquareGrid{
		BatchSizes:     []int{1},
		InputSizes:     []int{6},
		FilterSizes:    []int{1, 3},
		InputChannels:  []int{2},
		OutputChannels: []int{4},
		Strides:        []int{1},
		Paddings:       []int{0, 1},
	}
	return SquareCases(g, false)
}

func TestSweepRunPasses(t *testing.T) {
	cases := smallCases()
	require.Len(t, cases, 3)

	for _, mode := range []Mode{Forward, BackwardInput, BackwardFilter} {
		var lhs, rhs string
		switch mode {
		case Forward:
			lhs, rhs = "NaiveConv-CPU", "GemmConv-GPU"
		case BackwardInput:
			lhs, rhs = "NaiveConvGradInput-CPU", "GemmConvGradInput-GPU"
		case BackwardFilter:
			lhs, rhs = "NaiveConvGradFilter-CPU", "GemmConvGradFilter-GPU"
		}

		report, err := New(lhs, rhs, mode).Run(context.Background(), cases)
		require.NoError(t, err, mode.String())
		require.Len(t, report.Results, len(cases))
		for _, res := range report.Results {
			assert.True(t, res.Passed())
			assert.Equal(t, mode, res.Mode)
			assert.Zero(t, res.Mismatches)
		}
		assert.Empty(t, report.Failed())
	}
}

func TestSweepStopsAtFirstFailure(t *testing.T) {
	cases := smallCases()

	report, err := New("GemmConv-CPU", "SweepTestConstant-CPU", Forward).Run(context.Background(), cases)
	require.ErrorIs(t, err, compare.ErrMismatch)
	assert.NotErrorIs(t, err, ErrFailed)
	require.Len(t, report.Results, 1)
	assert.Len(t, report.Failed(), 1)
	assert.Positive(t, report.Results[0].Mismatches)
}

func TestSweepKeepGoing(t *testing.T) {
	cases := smallCases()

	sw := New("GemmConv-CPU", "SweepTestConstant-CPU", Forward)
	sw.KeepGoing = true
	report, err := sw.Run(context.Background(), cases)
	require.ErrorIs(t, err, ErrFailed)
	assert.Len(t, report.Results, len(cases))
	assert.Len(t, report.Failed(), len(cases))

	s := report.Summary()
	assert.Equal(t, len(cases), s.Cases)
	assert.Equal(t, len(cases), s.Failed)
	assert.Zero(t, s.Passed)
}

func TestSweepUnknownFunction(t *testing.T) {
	sw := New("GemmConv-CPU", "NoSuchConv-CPU", Forward)
	sw.KeepGoing = true
	report, err := sw.Run(context.Background(), smallCases())
	require.ErrorIs(t, err, function.ErrNotRegistered)
	assert.Empty(t, report.Results)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := New("NaiveConv-CPU", "GemmConv-CPU", Forward).Run(ctx, smallCases())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestSweepLogsEveryCase(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sw := New("NaiveConv-CPU", "GemmConv-CPU", Forward)
	sw.Logger = zap.New(core)

	cases := smallCases()
	_, err := sw.Run(context.Background(), cases)
	require.NoError(t, err)

	debug := logs.FilterMessage("case").All()
	require.Len(t, debug, len(cases))
	for i, entry := range debug {
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
		assert.Equal(t, cases[i].String(), entry.ContextMap()["case"])
		assert.Equal(t, "NaiveConv-CPU", entry.ContextMap()["lhs"])
	}
	assert.Equal(t, 1, logs.FilterMessage("sweep passed").Len())
}

func TestSweepAlgo(t *testing.T) {
	sw := New("GemmConv-CPU", "GemmConv-GPU", Forward)
	sw.Algo = "im2col"
	_, err := sw.Run(context.Background(), smallCases())
	require.NoError(t, err)

	sw.Algo = "winograd"
	_, err = sw.Run(context.Background(), smallCases())
	require.Error(t, err)
}

func TestReportCSV(t *testing.T) {
	cases := smallCases()
	sw := New("GemmConv-CPU", "SweepTestConstant-CPU", Forward)
	sw.KeepGoing = true
	report, _ := sw.Run(context.Background(), cases)

	_, err := uuid.Parse(report.RunID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(cases)+1)
	assert.Equal(t, csvHeader, rows[0])
	for _, row := range rows[1:] {
		require.Len(t, row, len(csvHeader))
		assert.Equal(t, report.RunID, row[0])
		assert.Equal(t, "forward", row[3])
		assert.NotEmpty(t, row[len(row)-1])
	}
}

func TestReportMerge(t *testing.T) {
	a, b := NewReport(), NewReport()
	assert.NotEqual(t, a.RunID, b.RunID)

	a.Add(Result{Mode: Forward, MaxDiff: 0.5})
	b.Add(Result{Mode: BackwardInput, Err: errors.New("boom")}, Result{MaxDiff: 2})
	a.Merge(b)
	a.Merge(nil)

	s := a.Summary()
	assert.Equal(t, 3, s.Cases)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2.0, s.MaxDiff)
	assert.Contains(t, s.String(), "3 cases")
}
