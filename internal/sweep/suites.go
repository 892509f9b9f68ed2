package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
)

var (
	// ErrUnknownSuite is returned by LookupSuite for names not in Suites.
	ErrUnknownSuite = errors.New("sweep: unknown suite")
	// ErrDeviceUnavailable is returned when a suite needs a device that
	// cannot run.
	ErrDeviceUnavailable = errors.New("sweep: device unavailable")
)

// Suite is a named pair of functions checked over both grids.
type Suite struct {
	Name      string
	Lhs, Rhs  string
	Mode      Mode
	UseGroups bool
	Algo      string
}

var suites = []Suite{
	{Name: "Forward/GEMM", Lhs: "NaiveConv-CPU", Rhs: "GemmConv-CPU", Mode: Forward},
	{Name: "Forward/GEMM2", Lhs: "GemmConv-CPU", Rhs: "GemmConv-GPU", Mode: Forward},
	{Name: "BackwardInput/GEMM", Lhs: "GemmConvGradInput-CPU", Rhs: "GemmConvGradInput-GPU", Mode: BackwardInput},
	{Name: "BackwardFilter/GEMM", Lhs: "GemmConvGradFilter-CPU", Rhs: "GemmConvGradFilter-GPU", Mode: BackwardFilter},
	{Name: "BackwardInput/Naive", Lhs: "NaiveConvGradInput-CPU", Rhs: "GemmConvGradInput-CPU", Mode: BackwardInput},
	{Name: "BackwardFilter/Naive", Lhs: "NaiveConvGradFilter-CPU", Rhs: "GemmConvGradFilter-CPU", Mode: BackwardFilter},
	{Name: "DepthwiseConvForward/GEMM2", Lhs: "GemmConv-CPU", Rhs: "DepthwiseConv-GPU", Mode: Forward, UseGroups: true},
	{Name: "DepthwiseConvBackwardInput/GEMM", Lhs: "GemmConvGradInput-CPU", Rhs: "DepthwiseConvGradInput-GPU", Mode: BackwardInput, UseGroups: true},
	{Name: "DepthwiseConvBackwardFilter/GEMM", Lhs: "GemmConvGradFilter-CPU", Rhs: "DepthwiseConvGradFilter-GPU", Mode: BackwardFilter, UseGroups: true},
	{Name: "DepthwiseConvForward/CPU", Lhs: "GemmConv-CPU", Rhs: "DepthwiseConv-CPU", Mode: Forward, UseGroups: true},
}

// Suites returns every named suite.
func Suites() []Suite {
	return append([]Suite(nil), suites...)
}

// LookupSuite returns the suite with the given name. Names match case
// insensitively.
func LookupSuite(name string) (Suite, error) {
	for _, s := range suites {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Suite{}, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

// Devices returns the device types the suite runs on.
func (s Suite) Devices() []device.DeviceType {
	var types []device.DeviceType
	for _, name := range []string{s.Lhs, s.Rhs} {
		_, t, err := function.SplitName(name)
		if err != nil {
			continue
		}
		if len(types) == 0 || types[0] != t {
			types = append(types, t)
		}
	}
	return types
}

// Available reports whether every device of the suite can run.
func (s Suite) Available() bool {
	for _, t := range s.Devices() {
		if !device.Default(t).IsAvailable() {
			return false
		}
	}
	return true
}

// Cases returns the square cases followed by the rectangular ones.
func (s Suite) Cases(square SquareGrid, rect RectGrid) []Case {
	return append(SquareCases(square, s.UseGroups), RectCases(rect, s.UseGroups)...)
}

// Run checks the suite over both grids with sw's settings. The sweep's
// functions and mode are replaced by the suite's.
func (s Suite) Run(ctx context.Context, sw Sweep, square SquareGrid, rect RectGrid) (*Report, error) {
	if !s.Available() {
		return NewReport(), fmt.Errorf("%w: %s", ErrDeviceUnavailable, s.Name)
	}
	sw.Lhs, sw.Rhs, sw.Mode = s.Lhs, s.Rhs, s.Mode
	if s.Algo != "" {
		sw.Algo = s.Algo
	}
	return sw.Run(ctx, s.Cases(square, rect))
}
