// Package convcheck is the public entry point for differential convolution
// checks. It re-exports the harness types so callers outside this module
// can drive sweeps and comparisons.
package convcheck

import (
	"context"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/compare"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// Re-export common types for easier access
type (
	Shape      = tensor.Shape
	BufferArg  = tensor.BufferArg
	ArgType    = tensor.ArgType
	DeviceType = device.DeviceType
	Device     = device.Device
	Config     = function.Config
	Function   = function.Function
	Factory    = function.Factory

	Compare2Function = compare.Compare2Function
	CompareOption    = compare.Option
	CompareResult    = compare.Result

	Mode       = sweep.Mode
	Case       = sweep.Case
	SquareGrid = sweep.SquareGrid
	RectGrid   = sweep.RectGrid
	Sweep      = sweep.Sweep
	Suite      = sweep.Suite
	Report     = sweep.Report
	Result     = sweep.Result
)

// Devices
const (
	CPU = device.CPU
	GPU = device.GPU
)

// Modes
const (
	Forward        = sweep.Forward
	BackwardInput  = sweep.BackwardInput
	BackwardFilter = sweep.BackwardFilter
)

// Arg types
const (
	AssignTo = tensor.AssignTo
	AddTo    = tensor.AddTo
)

// Errors
var (
	ErrMismatch      = compare.ErrMismatch
	ErrNotRegistered = function.ErrNotRegistered
	ErrFailed        = sweep.ErrFailed
)

func NewShape(dims ...int) Shape {
	return tensor.NewShape(dims...)
}

func NewFloatArg(dims ...int) BufferArg {
	return tensor.NewBufferArg(tensor.Float32, tensor.NewShape(dims...))
}

func NewConfig() *Config {
	return function.NewConfig()
}

// Register adds a function under name for device t; it is then reachable
// as "name-CPU" or "name-GPU".
func Register(name string, t DeviceType, f Factory) {
	function.Register(name, t, f)
}

func Functions() []string {
	return function.Names()
}

// Comparison
func NewCompare(lhs, rhs string, cfg *Config, opts ...CompareOption) (*Compare2Function, error) {
	return compare.New(lhs, rhs, cfg, opts...)
}

func WithSeed(seed int64) CompareOption      { return compare.WithSeed(seed) }
func WithTolerance(eps float64) CompareOption { return compare.WithTolerance(eps) }

// Sweeps
func NewSweep(lhs, rhs string, mode Mode) *Sweep {
	return sweep.New(lhs, rhs, mode)
}

func SquareCases(g SquareGrid, useGroups bool) []Case {
	return sweep.SquareCases(g, useGroups)
}

func RectCases(g RectGrid, useGroups bool) []Case {
	return sweep.RectCases(g, useGroups)
}

func DefaultSquareGrid() SquareGrid { return sweep.DefaultSquareGrid() }
func DefaultRectGrid() RectGrid     { return sweep.DefaultRectGrid() }

func Suites() []Suite {
	return sweep.Suites()
}

// RunSuite runs the named suite over the default grids.
func RunSuite(ctx context.Context, name string) (*Report, error) {
	s, err := sweep.LookupSuite(name)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, sweep.Sweep{}, sweep.DefaultSquareGrid(), sweep.DefaultRectGrid())
}

func OutputSize(input, filter, stride, padding int) int {
	return sweep.OutputSize(input, filter, stride, padding)
}
