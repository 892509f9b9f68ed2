package sweep

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grids returns the reduced grids unless CONVCHECK_FULL_SWEEP=1. Short
// mode trims the reduced square grid further.
func grids() (SquareGrid, RectGrid) {
	if os.Getenv("CONVCHECK_FULL_SWEEP") == "1" {
		return DefaultSquareGrid(), DefaultRectGrid()
	}
	square, rect := ReducedSquareGrid(), ReducedRectGrid()
	if testing.Short() {
		square.BatchSizes = []int{1}
		square.InputSizes = []int{7}
	}
	return square, rect
}

func TestSuites(t *testing.T) {
	square, rect := grids()
	for _, s := range Suites() {
		t.Run(s.Name, func(t *testing.T) {
			if !s.Available() {
				t.Skipf("devices %v unavailable", s.Devices())
			}
			report, err := s.Run(context.Background(), Sweep{}, square, rect)
			require.NoError(t, err)
			assert.Len(t, report.Results, len(s.Cases(square, rect)))
			assert.Empty(t, report.Failed())
		})
	}
}

func TestLookupSuite(t *testing.T) {
	s, err := LookupSuite("forward/gemm2")
	require.NoError(t, err)
	assert.Equal(t, "GemmConv-CPU", s.Lhs)
	assert.Equal(t, "GemmConv-GPU", s.Rhs)
	assert.False(t, s.UseGroups)

	s, err = LookupSuite("DepthwiseConvBackwardFilter/GEMM")
	require.NoError(t, err)
	assert.Equal(t, BackwardFilter, s.Mode)
	assert.True(t, s.UseGroups)

	_, err = LookupSuite("Sideways/GEMM")
	require.ErrorIs(t, err, ErrUnknownSuite)
}

func TestSuitesAreCopies(t *testing.T) {
	list := Suites()
	list[0].Lhs = "changed"
	assert.NotEqual(t, "changed", Suites()[0].Lhs)
}

func TestSuiteDevices(t *testing.T) {
	s, err := LookupSuite("Forward/GEMM")
	require.NoError(t, err)
	assert.Len(t, s.Devices(), 1)

	s, err = LookupSuite("Forward/GEMM2")
	require.NoError(t, err)
	assert.Len(t, s.Devices(), 2)
	assert.True(t, s.Available())
}

func TestSuiteCasesGrouping(t *testing.T) {
	square, rect := DefaultSquareGrid(), DefaultRectGrid()
	for _, s := range Suites() {
		for _, c := range s.Cases(square, rect) {
			if s.UseGroups && c.Groups != c.InputChannels {
				t.Errorf("%s: %v has %d groups", s.Name, c, c.Groups)
			}
			if !s.UseGroups && c.Groups != 1 {
				t.Errorf("%s: %v has %d groups", s.Name, c, c.Groups)
			}
		}
	}
}

// TestNaiveSuitesLargestCases runs the biggest default-grid reductions
// through every suite that checks a naive kernel against GEMM.
func TestNaiveSuitesLargestCases(t *testing.T) {
	var cases []Case
	for _, c := range SquareCases(DefaultSquareGrid(), false) {
		if c.BatchSize != 32 || c.InputHeight != 54 || c.Stride != 1 {
			continue
		}
		small := c.InputChannels == 3 && c.OutputChannels == 64 && c.FilterHeight > 1 && c.Padding == 1
		wide := c.InputChannels == 64 && c.OutputChannels == 64 && c.FilterHeight == 1
		if small || wide {
			cases = append(cases, c)
		}
	}
	require.Len(t, cases, 3)

	for _, name := range []string{"Forward/GEMM", "BackwardInput/Naive", "BackwardFilter/Naive"} {
		s, err := LookupSuite(name)
		require.NoError(t, err)
		t.Run(name, func(t *testing.T) {
			sw := New(s.Lhs, s.Rhs, s.Mode)
			sw.KeepGoing = true
			report, err := sw.Run(context.Background(), cases)
			require.NoError(t, err)
			assert.Empty(t, report.Failed())
		})
	}
}
