// Package compare runs two implementations of the same function on identical
// random inputs and checks that their outputs agree.
package compare

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

const (
	// DefaultTolerance is the largest scaled difference accepted per element.
	DefaultTolerance = 1e-3
	// DefaultSeed seeds the input generator when no seed is given.
	DefaultSeed int64 = 1
)

var (
	// ErrMismatch is returned when the two functions disagree.
	ErrMismatch = errors.New("compare: outputs differ")
	// ErrNoOutputs is returned by Run when no output was added.
	ErrNoOutputs = errors.New("compare: no outputs to compare")
)

// Option configures a Compare2Function.
type Option func(*Compare2Function)

// WithSeed sets the seed used to fill inputs and add-to outputs.
func WithSeed(seed int64) Option {
	return func(c *Compare2Function) { c.seed = seed }
}

// WithTolerance sets the per-element tolerance.
func WithTolerance(eps float64) Option {
	return func(c *Compare2Function) { c.eps = eps }
}

// WithDevice runs every function of d's type on d instead of the default
// device.
func WithDevice(d device.Device) Option {
	return func(c *Compare2Function) { c.devices[d.Type()] = d }
}

// Compare2Function holds two functions built from the same config and the
// operands both of them are run with.
type Compare2Function struct {
	lhsName, rhsName string
	lhs, rhs         function.Function
	lhsDev, rhsDev   device.Device

	inputs  []tensor.BufferArg
	outputs []tensor.BufferArg

	seed    int64
	eps     float64
	devices map[device.DeviceType]device.Device
}

// New builds the functions registered as lhs and rhs (qualified names such
// as "GemmConv-CPU") and initialises both with cfg.
func New(lhs, rhs string, cfg *function.Config, opts ...Option) (*Compare2Function, error) {
	c := &Compare2Function{
		lhsName: lhs,
		rhsName: rhs,
		seed:    DefaultSeed,
		eps:     DefaultTolerance,
		devices: make(map[device.DeviceType]device.Device),
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.lhs, c.lhsDev, err = c.build(lhs, cfg); err != nil {
		return nil, err
	}
	if c.rhs, c.rhsDev, err = c.build(rhs, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compare2Function) build(name string, cfg *function.Config) (function.Function, device.Device, error) {
	_, t, err := function.SplitName(name)
	if err != nil {
		return nil, nil, err
	}
	dev, ok := c.devices[t]
	if !ok {
		dev = device.Default(t)
	}
	fn, err := function.New(name, cfg, dev)
	if err != nil {
		return nil, nil, err
	}
	return fn, dev, nil
}

// Names returns the qualified names of both functions.
func (c *Compare2Function) Names() (lhs, rhs string) {
	return c.lhsName, c.rhsName
}

// AddInputs appends an input operand. Only its type and shape are used.
func (c *Compare2Function) AddInputs(arg tensor.BufferArg) {
	arg.ArgType = tensor.Unspecified
	arg.Data = nil
	c.inputs = append(c.inputs, arg)
}

// AddOutputs appends an output operand written with argType.
// Unspecified means AssignTo.
func (c *Compare2Function) AddOutputs(arg tensor.BufferArg, argType tensor.ArgType) {
	if argType == tensor.Unspecified {
		argType = tensor.AssignTo
	}
	arg.ArgType = argType
	arg.Data = nil
	c.outputs = append(c.outputs, arg)
}

// OutputCheck is the comparison of one output pair.
type OutputCheck struct {
	Index int
	Shape tensor.Shape
	CheckResult
}

// Result describes one Run.
type Result struct {
	Outputs    []OutputCheck
	MaxDiff    float64
	Mismatches int
}

// Run fills the operands, executes both functions on their devices and
// compares every output. A disagreement returns the Result together with an
// error wrapping ErrMismatch.
func (c *Compare2Function) Run(ctx context.Context) (Result, error) {
	var res Result
	if len(c.outputs) == 0 {
		return res, ErrNoOutputs
	}

	rng := rand.New(rand.NewSource(c.seed))
	hostIn := make([]tensor.BufferArg, len(c.inputs))
	for i, arg := range c.inputs {
		hostIn[i] = arg.Alloc()
		fillUniform(rng, hostIn[i].Data)
	}
	hostOut := make([]tensor.BufferArg, len(c.outputs))
	for i, arg := range c.outputs {
		hostOut[i] = arg.Alloc()
		if arg.ArgType == tensor.AddTo {
			fillUniform(rng, hostOut[i].Data)
		}
	}

	lhsOut, err := execute(ctx, c.lhsName, c.lhs, c.lhsDev, hostIn, hostOut)
	if err != nil {
		return res, err
	}
	rhsOut, err := execute(ctx, c.rhsName, c.rhs, c.rhsDev, hostIn, hostOut)
	if err != nil {
		return res, err
	}

	failed := -1
	for i := range hostOut {
		oc := OutputCheck{Index: i, Shape: hostOut[i].Shape, CheckResult: Check(lhsOut[i], rhsOut[i], c.eps)}
		res.Outputs = append(res.Outputs, oc)
		res.Mismatches += oc.Mismatches
		if oc.MaxDiff > res.MaxDiff {
			res.MaxDiff = oc.MaxDiff
		}
		if oc.Mismatches > 0 && failed < 0 {
			failed = i
		}
	}

	if failed >= 0 {
		worst := res.Outputs[failed]
		return res, fmt.Errorf("%w: %s vs %s, output %d %v: %d of %d elements exceed %g (max diff %g at %d: %g vs %g)",
			ErrMismatch, c.lhsName, c.rhsName, worst.Index, worst.Shape,
			worst.Mismatches, worst.Shape.Elements(), c.eps,
			worst.MaxDiff, worst.WorstIndex, worst.Lhs, worst.Rhs)
	}
	return res, nil
}

// execute uploads private copies of the operands to dev, runs fn and
// returns the downloaded outputs.
func execute(ctx context.Context, name string, fn function.Function, dev device.Device,
	hostIn, hostOut []tensor.BufferArg) ([][]float32, error) {
	in := make([]tensor.BufferArg, len(hostIn))
	for i, arg := range hostIn {
		in[i] = arg.WithData(dev.Upload(arg.Clone().Data))
	}
	out := make([]tensor.BufferArg, len(hostOut))
	for i, arg := range hostOut {
		out[i] = arg.WithData(dev.Upload(arg.Clone().Data))
	}

	if err := fn.Calc(ctx, in, out); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	results := make([][]float32, len(out))
	for i, arg := range out {
		results[i] = make([]float32, len(arg.Data))
		dev.Download(results[i], arg.Data)
	}
	return results, nil
}

func fillUniform(rng *rand.Rand, data []float32) {
	for i := range data {
		data[i] = rng.Float32()*2 - 1
	}
}
