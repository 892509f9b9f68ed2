package sweep

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// Case is one convolution configuration of a sweep.
type Case struct {
	BatchSize      int
	InputChannels  int
	InputHeight    int
	InputWidth     int
	OutputChannels int
	FilterHeight   int
	FilterWidth    int
	OutputHeight   int
	OutputWidth    int
	Stride         int
	Padding        int
	Groups         int
}

// String renders the case as a key=value list.
func (c Case) String() string {
	return fmt.Sprintf("batchSize=%d inputChannels=%d inputHeight=%d inputWidth=%d "+
		"outputChannels=%d filterHeight=%d filterWidth=%d outputHeight=%d outputWidth=%d "+
		"stride=%d padding=%d",
		c.BatchSize, c.InputChannels, c.InputHeight, c.InputWidth,
		c.OutputChannels, c.FilterHeight, c.FilterWidth, c.OutputHeight, c.OutputWidth,
		c.Stride, c.Padding)
}

// OutputSize returns the output extent of a convolution along one axis.
func OutputSize(input, filter, stride, padding int) int {
	return (input - filter + 2*padding + stride) / stride
}

// Groups returns the group count for a channel pair. Without grouping it is
// always 1. With grouping every input channel is its own group, which needs
// outC to be a multiple of inC; ok is false otherwise.
func Groups(useGroups bool, inC, outC int) (groups int, ok bool) {
	if !useGroups {
		return 1, true
	}
	if inC <= 0 || outC%inC != 0 {
		return 0, false
	}
	return inC, true
}

// skipChannels reports whether a channel pair is excluded from a sweep.
func skipChannels(inC, outC int) bool {
	return inC > outC
}

// skipPadding reports whether padding is too large for a filter extent.
func skipPadding(padding, filter int) bool {
	return padding >= filter
}

// newCase fills the derived fields of a configuration. It returns false for
// combinations that are skipped: more input than output channels, an
// output channel count that grouping cannot split, padding not smaller than
// the filter, and filters so large that the output would be empty.
func newCase(useGroups bool, batch, inC, outC, inH, inW, fH, fW, stride, padding int) (Case, bool) {
	if skipChannels(inC, outC) {
		return Case{}, false
	}
	groups, ok := Groups(useGroups, inC, outC)
	if !ok {
		return Case{}, false
	}
	if skipPadding(padding, fH) || skipPadding(padding, fW) {
		return Case{}, false
	}
	c := Case{
		BatchSize:      batch,
		InputChannels:  inC,
		InputHeight:    inH,
		InputWidth:     inW,
		OutputChannels: outC,
		FilterHeight:   fH,
		FilterWidth:    fW,
		OutputHeight:   OutputSize(inH, fH, stride, padding),
		OutputWidth:    OutputSize(inW, fW, stride, padding),
		Stride:         stride,
		Padding:        padding,
		Groups:         groups,
	}
	// Filters larger than the padded input have no output.
	if c.OutputHeight < 1 || c.OutputWidth < 1 {
		return Case{}, false
	}
	return c, true
}

// SquareCases enumerates the grid in nesting order batch, input size,
// filter size, input channels, output channels, stride, padding.
func SquareCases(g SquareGrid, useGroups bool) []Case {
	var cases []Case
	for _, batch := range g.BatchSizes {
		for _, size := range g.InputSizes {
			for _, filter := range g.FilterSizes {
				for _, inC := range g.InputChannels {
					for _, outC := range g.OutputChannels {
						for _, stride := range g.Strides {
							for _, padding := range g.Paddings {
								c, ok := newCase(useGroups, batch, inC, outC, size, size, filter, filter, stride, padding)
								if ok {
									cases = append(cases, c)
								}
							}
						}
					}
				}
			}
		}
	}
	return cases
}

// RectCases enumerates the grid in nesting order batch, input height, input
// width, filter height, filter width, input channels, output channels,
// stride, padding.
func RectCases(g RectGrid, useGroups bool) []Case {
	var cases []Case
	for _, batch := range g.BatchSizes {
		for _, inH := range g.InputHeights {
			for _, inW := range g.InputWidths {
				for _, fH := range g.FilterHeights {
					for _, fW := range g.FilterWidths {
						for _, inC := range g.InputChannels {
							for _, outC := range g.OutputChannels {
								for _, stride := range g.Strides {
									for _, padding := range g.Paddings {
										c, ok := newCase(useGroups, batch, inC, outC, inH, inW, fH, fW, stride, padding)
										if ok {
											cases = append(cases, c)
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
	return cases
}

// Shapes returns the input, filter and output shapes. Grouped filters are
// [G, OC/G, C/G, FH, FW], ungrouped ones [OC, C, FH, FW].
func (c Case) Shapes() (input, filter, output tensor.Shape) {
	input = tensor.NewShape(c.BatchSize, c.InputChannels, c.InputHeight, c.InputWidth)
	if c.Groups > 1 {
		filter = tensor.NewShape(c.Groups, c.OutputChannels/c.Groups, c.InputChannels/c.Groups,
			c.FilterHeight, c.FilterWidth)
	} else {
		filter = tensor.NewShape(c.OutputChannels, c.InputChannels, c.FilterHeight, c.FilterWidth)
	}
	output = tensor.NewShape(c.BatchSize, c.OutputChannels, c.OutputHeight, c.OutputWidth)
	return input, filter, output
}

// Config returns the function options for the case.
func (c Case) Config(algo string) *function.Config {
	return function.NewConfig().
		Set("paddings", []int{c.Padding, c.Padding}).
		Set("strides", []int{c.Stride, c.Stride}).
		Set("groups", c.Groups).
		Set("algo", algo)
}

// Args returns the operands for mode m. The output's ArgType tells how the
// function must write it: gradients are accumulated.
func (c Case) Args(m Mode) (inputs []tensor.BufferArg, output tensor.BufferArg) {
	in, filter, out := c.Shapes()
	arg := func(s tensor.Shape) tensor.BufferArg {
		return tensor.NewBufferArg(tensor.Float32, s)
	}

	switch m {
	case BackwardInput:
		inputs = []tensor.BufferArg{arg(out), arg(filter)}
		output = arg(in)
		output.ArgType = tensor.AddTo
	case BackwardFilter:
		inputs = []tensor.BufferArg{arg(out), arg(in)}
		output = arg(filter)
		output.ArgType = tensor.AddTo
	default:
		inputs = []tensor.BufferArg{arg(in), arg(filter)}
		output = arg(out)
		output.ArgType = tensor.AssignTo
	}
	return inputs, output
}
