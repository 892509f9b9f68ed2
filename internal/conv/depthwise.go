package conv

import (
	"context"
	"fmt"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// depthwiseGeometry is newGeometry restricted to one input channel per group.
func depthwiseGeometry(o options, input, filter, output tensor.Shape) (geometry, error) {
	g, err := newGeometry(o, input, filter, output)
	if err != nil {
		return g, err
	}
	if g.groups != g.inC {
		return g, fmt.Errorf("%w: depthwise convolution needs groups == input channels, got %d groups for %d channels",
			ErrConfig, g.groups, g.inC)
	}
	return g, nil
}

// DepthwiseConv convolves every input channel with its own OC/C filters.
// One task per (image, output channel).
// inputs: input, filter. outputs: output.
type DepthwiseConv struct{ base }

func (c *DepthwiseConv) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("DepthwiseConv", inputs, outputs); err != nil {
		return err
	}
	g, err := depthwiseGeometry(c.opts, inputs[0].Shape, inputs[1].Shape, outputs[0].Shape)
	if err != nil {
		return err
	}

	input, filter, output := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])
	multiplier := g.outPerGroup()
	kernelArea := g.kernelArea()

	return c.dev.ParallelFor(ctx, g.batch*g.outC, func(i int) error {
		n, oc := i/g.outC, i%g.outC
		inOff := (n*g.inC + oc/multiplier) * g.inArea()
		channel := input[inOff : inOff+g.inArea()]
		w := filter[oc*kernelArea : (oc+1)*kernelArea]
		out := output[i*g.outArea() : (i+1)*g.outArea()]

		for oh := 0; oh < g.outH; oh++ {
			for ow := 0; ow < g.outW; ow++ {
				var sum float32
				for kh := 0; kh < g.fH; kh++ {
					inH := oh*g.strideH + kh - g.padH
					if inH < 0 || inH >= g.inH {
						continue
					}
					for kw := 0; kw < g.fW; kw++ {
						inW := ow*g.strideW + kw - g.padW
						if inW >= 0 && inW < g.inW {
							sum += w[kh*g.fW+kw] * channel[inH*g.inW+inW]
						}
					}
				}
				if add {
					out[oh*g.outW+ow] += sum
				} else {
					out[oh*g.outW+ow] = sum
				}
			}
		}
		return nil
	})
}

// DepthwiseConvGradInput computes the input gradient. One task per
// (image, input channel) gathers from that channel's OC/C output channels.
// inputs: output gradient, filter. outputs: input gradient.
type DepthwiseConvGradInput struct{ base }

func (c *DepthwiseConvGradInput) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("DepthwiseConvGradInput", inputs, outputs); err != nil {
		return err
	}
	g, err := depthwiseGeometry(c.opts, outputs[0].Shape, inputs[1].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, filter, inGrad := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])
	multiplier := g.outPerGroup()
	kernelArea := g.kernelArea()

	return c.dev.ParallelFor(ctx, g.batch*g.inC, func(i int) error {
		n, ch := i/g.inC, i%g.inC
		dx := inGrad[i*g.inArea() : (i+1)*g.inArea()]
		if !add {
			zero(dx)
		}

		for m := 0; m < multiplier; m++ {
			oc := ch*multiplier + m
			w := filter[oc*kernelArea : (oc+1)*kernelArea]
			dyOff := (n*g.outC + oc) * g.outArea()
			dy := outGrad[dyOff : dyOff+g.outArea()]

			for oh := 0; oh < g.outH; oh++ {
				for ow := 0; ow < g.outW; ow++ {
					grad := dy[oh*g.outW+ow]
					for kh := 0; kh < g.fH; kh++ {
						inH := oh*g.strideH + kh - g.padH
						if inH < 0 || inH >= g.inH {
							continue
						}
						for kw := 0; kw < g.fW; kw++ {
							inW := ow*g.strideW + kw - g.padW
							if inW >= 0 && inW < g.inW {
								dx[inH*g.inW+inW] += grad * w[kh*g.fW+kw]
							}
						}
					}
				}
			}
		}
		return nil
	})
}

// DepthwiseConvGradFilter computes the filter gradient. One task per output
// channel sums over the batch.
// inputs: output gradient, input. outputs: filter gradient.
type DepthwiseConvGradFilter struct{ base }

func (c *DepthwiseConvGradFilter) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("DepthwiseConvGradFilter", inputs, outputs); err != nil {
		return err
	}
	g, err := depthwiseGeometry(c.opts, inputs[1].Shape, outputs[0].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, input, filterGrad := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])
	multiplier := g.outPerGroup()
	kernelArea := g.kernelArea()

	return c.dev.ParallelFor(ctx, g.outC, func(oc int) error {
		dw := filterGrad[oc*kernelArea : (oc+1)*kernelArea]
		acc := make([]float32, kernelArea)

		for n := 0; n < g.batch; n++ {
			inOff := (n*g.inC + oc/multiplier) * g.inArea()
			channel := input[inOff : inOff+g.inArea()]
			dyOff := (n*g.outC + oc) * g.outArea()
			dy := outGrad[dyOff : dyOff+g.outArea()]

			for kh := 0; kh < g.fH; kh++ {
				for kw := 0; kw < g.fW; kw++ {
					var sum float32
					for oh := 0; oh < g.outH; oh++ {
						inH := oh*g.strideH + kh - g.padH
						if inH < 0 || inH >= g.inH {
							continue
						}
						for ow := 0; ow < g.outW; ow++ {
							inW := ow*g.strideW + kw - g.padW
							if inW >= 0 && inW < g.inW {
								sum += dy[oh*g.outW+ow] * channel[inH*g.inW+inW]
							}
						}
					}
					acc[kh*g.fW+kw] += sum
				}
			}
		}

		for k, v := range acc {
			if add {
				dw[k] += v
			} else {
				dw[k] = v
			}
		}
		return nil
	})
}
