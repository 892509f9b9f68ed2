// Package conv provides 2D convolution functions: a direct reference
// implementation, GEMM based forward and gradient kernels, and depthwise
// kernels. All tensors use the NCHW layout with float32 elements.
//
// Functions are registered with the function package under
//
//	NaiveConv, NaiveConvGradInput, NaiveConvGradFilter           (CPU)
//	GemmConv, GemmConvGradInput, GemmConvGradFilter              (CPU, GPU)
//	DepthwiseConv, DepthwiseConvGradInput, DepthwiseConvGradFilter (CPU, GPU)
//
// and read the options "paddings" ([padH, padW]), "strides"
// ([strideH, strideW]), "groups" and "algo".
package conv

import (
	"errors"
	"fmt"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

var (
	// ErrConfig is returned for invalid convolution options.
	ErrConfig = errors.New("conv: invalid config")
	// ErrShape is returned when argument shapes are inconsistent.
	ErrShape = errors.New("conv: shape mismatch")
)

const (
	// AlgoAuto lets the GEMM kernels skip im2col for 1x1, stride 1,
	// unpadded convolutions.
	AlgoAuto = "auto"
	// AlgoIm2Col always expands the input with im2col.
	AlgoIm2Col = "im2col"
)

// OutputSize returns the output extent of a convolution along one axis.
func OutputSize(input, filter, stride, padding int) int {
	return (input - filter + 2*padding + stride) / stride
}

type options struct {
	padH, padW       int
	strideH, strideW int
	groups           int
	algo             string
}

// parseOptions reads the convolution options. Unset options default to no
// padding, unit strides, one group and AlgoAuto.
func parseOptions(cfg *function.Config) (options, error) {
	o := options{strideH: 1, strideW: 1, groups: 1, algo: AlgoAuto}

	if cfg.Has("paddings") {
		p, err := cfg.Ints("paddings")
		if err != nil {
			return o, err
		}
		if len(p) != 2 || p[0] < 0 || p[1] < 0 {
			return o, fmt.Errorf("%w: paddings %v", ErrConfig, p)
		}
		o.padH, o.padW = p[0], p[1]
	}
	if cfg.Has("strides") {
		s, err := cfg.Ints("strides")
		if err != nil {
			return o, err
		}
		if len(s) != 2 || s[0] < 1 || s[1] < 1 {
			return o, fmt.Errorf("%w: strides %v", ErrConfig, s)
		}
		o.strideH, o.strideW = s[0], s[1]
	}
	if cfg.Has("groups") {
		g, err := cfg.Int("groups")
		if err != nil {
			return o, err
		}
		if g < 1 {
			return o, fmt.Errorf("%w: groups %d", ErrConfig, g)
		}
		o.groups = g
	}
	if cfg.Has("algo") {
		a, err := cfg.String("algo")
		if err != nil {
			return o, err
		}
		switch a {
		case AlgoAuto, AlgoIm2Col:
			o.algo = a
		default:
			return o, fmt.Errorf("%w: algo %q", ErrConfig, a)
		}
	}
	return o, nil
}

// geometry is the full description of one convolution.
type geometry struct {
	options
	batch, inC, inH, inW int
	outC, outH, outW     int
	fH, fW               int
}

// newGeometry validates the input, filter and output shapes against the
// options. The filter is [OC, C, FH, FW] with one group and
// [G, OC/G, C/G, FH, FW] otherwise.
func newGeometry(o options, input, filter, output tensor.Shape) (geometry, error) {
	g := geometry{options: o}
	if input.NDims() != 4 {
		return g, fmt.Errorf("%w: input %v is not 4-D", ErrShape, input)
	}
	if output.NDims() != 4 {
		return g, fmt.Errorf("%w: output %v is not 4-D", ErrShape, output)
	}
	g.batch, g.inC, g.inH, g.inW = input[0], input[1], input[2], input[3]
	g.outC, g.outH, g.outW = output[1], output[2], output[3]

	if output[0] != g.batch {
		return g, fmt.Errorf("%w: batch %d vs %d", ErrShape, g.batch, output[0])
	}
	if g.inC%o.groups != 0 || g.outC%o.groups != 0 {
		return g, fmt.Errorf("%w: channels %d/%d not divisible by %d groups", ErrShape, g.inC, g.outC, o.groups)
	}

	if o.groups == 1 {
		if filter.NDims() != 4 || filter[0] != g.outC || filter[1] != g.inC {
			return g, fmt.Errorf("%w: filter %v for %d->%d channels", ErrShape, filter, g.inC, g.outC)
		}
		g.fH, g.fW = filter[2], filter[3]
	} else {
		if filter.NDims() != 5 || filter[0] != o.groups ||
			filter[1] != g.outC/o.groups || filter[2] != g.inC/o.groups {
			return g, fmt.Errorf("%w: filter %v for %d->%d channels in %d groups",
				ErrShape, filter, g.inC, g.outC, o.groups)
		}
		g.fH, g.fW = filter[3], filter[4]
	}

	if g.fH < 1 || g.fW < 1 || g.inH+2*o.padH < g.fH || g.inW+2*o.padW < g.fW {
		return g, fmt.Errorf("%w: filter %dx%d does not fit input %dx%d", ErrShape, g.fH, g.fW, g.inH, g.inW)
	}
	wantH := OutputSize(g.inH, g.fH, o.strideH, o.padH)
	wantW := OutputSize(g.inW, g.fW, o.strideW, o.padW)
	if g.outH != wantH || g.outW != wantW {
		return g, fmt.Errorf("%w: output %dx%d, want %dx%d", ErrShape, g.outH, g.outW, wantH, wantW)
	}
	return g, nil
}

func (g *geometry) inPerGroup() int  { return g.inC / g.groups }
func (g *geometry) outPerGroup() int { return g.outC / g.groups }
func (g *geometry) inArea() int      { return g.inH * g.inW }
func (g *geometry) outArea() int     { return g.outH * g.outW }
func (g *geometry) kernelArea() int  { return g.fH * g.fW }

// colRows is the row count of the im2col matrix for one group.
func (g *geometry) colRows() int { return g.inPerGroup() * g.kernelArea() }

// pointwise reports whether the im2col matrix of one group equals the input.
func (g *geometry) pointwise() bool {
	return g.fH == 1 && g.fW == 1 && g.strideH == 1 && g.strideW == 1 &&
		g.padH == 0 && g.padW == 0
}

// skipIm2Col reports whether the GEMM kernels may read the input directly.
func (g *geometry) skipIm2Col() bool {
	return g.algo == AlgoAuto && g.pointwise()
}

// checkArgs verifies argument counts, element types and storage sizes.
func checkArgs(name string, inputs, outputs []tensor.BufferArg) error {
	if len(inputs) != 2 || len(outputs) != 1 {
		return fmt.Errorf("%w: %s takes 2 inputs and 1 output, got %d and %d",
			ErrShape, name, len(inputs), len(outputs))
	}
	for _, a := range append(append([]tensor.BufferArg{}, inputs...), outputs...) {
		if a.ValueType != tensor.Float32 {
			return fmt.Errorf("%w: %s supports float32 only, got %s", ErrShape, name, a.ValueType)
		}
		if len(a.Data) != a.Len() {
			return fmt.Errorf("%w: %s buffer %v has %d elements", ErrShape, name, a.Shape, len(a.Data))
		}
	}
	return nil
}

// accumulate reports whether an output keeps its existing contents.
func accumulate(out tensor.BufferArg) bool {
	return out.ArgType == tensor.AddTo
}

// betaFor returns the GEMM beta matching the output arg type.
func betaFor(out tensor.BufferArg) float32 {
	if accumulate(out) {
		return 1
	}
	return 0
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
