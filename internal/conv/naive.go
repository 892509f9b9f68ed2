package conv

import (
	"context"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// base carries the device and parsed options shared by every kernel.
type base struct {
	dev  device.Device
	opts options
}

func (b *base) Init(cfg *function.Config) error {
	o, err := parseOptions(cfg)
	if err != nil {
		return err
	}
	b.opts = o
	return nil
}

// NaiveConv is the direct convolution used as the reference forward kernel.
// Sums are kept in float64 so the reference is the more precise side of a
// comparison.
// inputs: input, filter. outputs: output.
type NaiveConv struct{ base }

func (c *NaiveConv) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("NaiveConv", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, inputs[0].Shape, inputs[1].Shape, outputs[0].Shape)
	if err != nil {
		return err
	}

	input, weights, output := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])

	inPerGroup := g.inPerGroup()
	outPerGroup := g.outPerGroup()
	kernelArea := g.kernelArea()
	outSize := g.outArea()

	// Pre-compute weight stride values
	icWeightStride := kernelArea
	ocWeightStride := inPerGroup * icWeightStride

	acc := make([]float64, outSize)
	for n := 0; n < g.batch; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for oc := 0; oc < g.outC; oc++ {
			ocWeightBase := oc * ocWeightStride
			ocOutBase := (n*g.outC + oc) * outSize
			firstChannel := (oc / outPerGroup) * inPerGroup
			clear(acc)

			for ic := 0; ic < inPerGroup; ic++ {
				icWeightBase := ocWeightBase + ic*icWeightStride
				inputChannelOffset := (n*g.inC + firstChannel + ic) * g.inArea()

				for kh := 0; kh < g.fH; kh++ {
					khWeightBase := icWeightBase + kh*g.fW

					for kw := 0; kw < g.fW; kw++ {
						wVal := float64(weights[khWeightBase+kw])

						for oh := 0; oh < g.outH; oh++ {
							inH := oh*g.strideH + kh - g.padH
							if inH < 0 || inH >= g.inH {
								continue
							}
							inHOffset := inputChannelOffset + inH*g.inW
							ohOffset := oh * g.outW
							for ow := 0; ow < g.outW; ow++ {
								inW := ow*g.strideW + kw - g.padW
								if inW >= 0 && inW < g.inW {
									acc[ohOffset+ow] += wVal * float64(input[inHOffset+inW])
								}
							}
						}
					}
				}
			}
			store(output[ocOutBase:ocOutBase+outSize], acc, add)
		}
	}
	return nil
}

// store writes acc into dst, adding to the existing contents when add is set.
func store(dst []float32, acc []float64, add bool) {
	if add {
		for i, v := range acc {
			dst[i] = float32(float64(dst[i]) + v)
		}
		return
	}
	for i, v := range acc {
		dst[i] = float32(v)
	}
}

// NaiveConvGradInput is the direct reference for the input gradient.
// inputs: output gradient, filter. outputs: input gradient.
type NaiveConvGradInput struct{ base }

func (c *NaiveConvGradInput) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("NaiveConvGradInput", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, outputs[0].Shape, inputs[1].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, weights, gradInput := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])

	inPerGroup := g.inPerGroup()
	outPerGroup := g.outPerGroup()
	icWeightStride := g.kernelArea()
	ocWeightStride := inPerGroup * icWeightStride
	outSize := g.outArea()
	imgSize := g.inC * g.inArea()

	// acc holds the gradient of one image.
	acc := make([]float64, imgSize)
	for n := 0; n < g.batch; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		clear(acc)
		for oc := 0; oc < g.outC; oc++ {
			ocWeightBase := oc * ocWeightStride
			ocOutBase := (n*g.outC + oc) * outSize
			firstChannel := (oc / outPerGroup) * inPerGroup

			for ic := 0; ic < inPerGroup; ic++ {
				icWeightBase := ocWeightBase + ic*icWeightStride
				channelOffset := (firstChannel + ic) * g.inArea()

				for kh := 0; kh < g.fH; kh++ {
					khWeightBase := icWeightBase + kh*g.fW

					for kw := 0; kw < g.fW; kw++ {
						wVal := float64(weights[khWeightBase+kw])

						for oh := 0; oh < g.outH; oh++ {
							inH := oh*g.strideH + kh - g.padH
							if inH < 0 || inH >= g.inH {
								continue
							}
							inHOffset := channelOffset + inH*g.inW
							ohOffset := ocOutBase + oh*g.outW
							for ow := 0; ow < g.outW; ow++ {
								inW := ow*g.strideW + kw - g.padW
								if inW >= 0 && inW < g.inW {
									acc[inHOffset+inW] += wVal * float64(outGrad[ohOffset+ow])
								}
							}
						}
					}
				}
			}
		}
		store(gradInput[n*imgSize:(n+1)*imgSize], acc, add)
	}
	return nil
}

// NaiveConvGradFilter is the direct reference for the filter gradient.
// Each image's contribution to a weight is summed in float64 before it is
// added to the running total.
// inputs: output gradient, input. outputs: filter gradient.
type NaiveConvGradFilter struct{ base }

func (c *NaiveConvGradFilter) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("NaiveConvGradFilter", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, inputs[1].Shape, outputs[0].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, input, gradWeights := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])

	inPerGroup := g.inPerGroup()
	outPerGroup := g.outPerGroup()
	icWeightStride := g.kernelArea()
	ocWeightStride := inPerGroup * icWeightStride
	outSize := g.outArea()

	acc := make([]float64, len(gradWeights))
	for n := 0; n < g.batch; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for oc := 0; oc < g.outC; oc++ {
			ocWeightBase := oc * ocWeightStride
			ocOutBase := (n*g.outC + oc) * outSize
			firstChannel := (oc / outPerGroup) * inPerGroup

			for ic := 0; ic < inPerGroup; ic++ {
				icWeightBase := ocWeightBase + ic*icWeightStride
				inputChannelOffset := (n*g.inC + firstChannel + ic) * g.inArea()

				for kh := 0; kh < g.fH; kh++ {
					khWeightBase := icWeightBase + kh*g.fW

					for kw := 0; kw < g.fW; kw++ {
						var sum float64
						for oh := 0; oh < g.outH; oh++ {
							inH := oh*g.strideH + kh - g.padH
							if inH < 0 || inH >= g.inH {
								continue
							}
							inHOffset := inputChannelOffset + inH*g.inW
							ohOffset := ocOutBase + oh*g.outW
							for ow := 0; ow < g.outW; ow++ {
								inW := ow*g.strideW + kw - g.padW
								if inW >= 0 && inW < g.inW {
									sum += float64(outGrad[ohOffset+ow]) * float64(input[inHOffset+inW])
								}
							}
						}
						acc[khWeightBase+kw] += sum
					}
				}
			}
		}
	}
	store(gradWeights, acc, add)
	return nil
}
