package conv

import (
	"context"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// GemmConv computes the forward convolution as one matrix product per image
// and group: output[OC/G, OH*OW] = filter[OC/G, C/G*FH*FW] x im2col(input).
// inputs: input, filter. outputs: output.
type GemmConv struct{ base }

func (c *GemmConv) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("GemmConv", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, inputs[0].Shape, inputs[1].Shape, outputs[0].Shape)
	if err != nil {
		return err
	}

	input, filter, output := inputs[0].Data, inputs[1].Data, outputs[0].Data
	beta := betaFor(outputs[0])
	inPerGroup, outPerGroup := g.inPerGroup(), g.outPerGroup()
	colRows, outArea := g.colRows(), g.outArea()

	return c.dev.ParallelFor(ctx, g.batch*g.groups, func(i int) error {
		n, grp := i/g.groups, i%g.groups
		imgOff := (n*g.inC + grp*inPerGroup) * g.inArea()
		img := input[imgOff : imgOff+inPerGroup*g.inArea()]

		col := img
		if !g.skipIm2Col() {
			col = make([]float32, colRows*outArea)
			im2col(&g, img, col)
		}

		w := filter[grp*outPerGroup*colRows:]
		outOff := (n*g.outC + grp*outPerGroup) * outArea
		gemm(false, false,
			matrix(outPerGroup, colRows, w),
			matrix(colRows, outArea, col),
			beta,
			matrix(outPerGroup, outArea, output[outOff:]))
		return nil
	})
}

// GemmConvGradInput computes the input gradient: col = filter^T x outGrad per
// image and group, scattered back with col2im.
// inputs: output gradient, filter. outputs: input gradient.
type GemmConvGradInput struct{ base }

func (c *GemmConvGradInput) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("GemmConvGradInput", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, outputs[0].Shape, inputs[1].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, filter, inGrad := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])
	inPerGroup, outPerGroup := g.inPerGroup(), g.outPerGroup()
	colRows, outArea := g.colRows(), g.outArea()

	return c.dev.ParallelFor(ctx, g.batch*g.groups, func(i int) error {
		n, grp := i/g.groups, i%g.groups
		w := matrix(outPerGroup, colRows, filter[grp*outPerGroup*colRows:])
		outOff := (n*g.outC + grp*outPerGroup) * outArea
		dy := matrix(outPerGroup, outArea, outGrad[outOff:])

		imgOff := (n*g.inC + grp*inPerGroup) * g.inArea()
		img := inGrad[imgOff : imgOff+inPerGroup*g.inArea()]

		if g.skipIm2Col() {
			gemm(true, false, w, dy, betaFor(outputs[0]), matrix(colRows, outArea, img))
			return nil
		}

		col := make([]float32, colRows*outArea)
		gemm(true, false, w, dy, 0, matrix(colRows, outArea, col))
		if !add {
			zero(img)
		}
		col2im(&g, col, img)
		return nil
	})
}

// GemmConvGradFilter computes the filter gradient. Each group is one task
// that sums outGrad x im2col(input)^T over the batch.
// inputs: output gradient, input. outputs: filter gradient.
type GemmConvGradFilter struct{ base }

func (c *GemmConvGradFilter) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	if err := checkArgs("GemmConvGradFilter", inputs, outputs); err != nil {
		return err
	}
	g, err := newGeometry(c.opts, inputs[1].Shape, outputs[0].Shape, inputs[0].Shape)
	if err != nil {
		return err
	}

	outGrad, input, filterGrad := inputs[0].Data, inputs[1].Data, outputs[0].Data
	add := accumulate(outputs[0])
	inPerGroup, outPerGroup := g.inPerGroup(), g.outPerGroup()
	colRows, outArea := g.colRows(), g.outArea()

	return c.dev.ParallelFor(ctx, g.groups, func(grp int) error {
		dw := matrix(outPerGroup, colRows, filterGrad[grp*outPerGroup*colRows:])

		var col []float32
		if !g.skipIm2Col() {
			col = make([]float32, colRows*outArea)
		}
		for n := 0; n < g.batch; n++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			imgOff := (n*g.inC + grp*inPerGroup) * g.inArea()
			img := input[imgOff : imgOff+inPerGroup*g.inArea()]
			if g.skipIm2Col() {
				col = img
			} else {
				im2col(&g, img, col)
			}

			beta := float32(1)
			if n == 0 && !add {
				beta = 0
			}
			outOff := (n*g.outC + grp*outPerGroup) * outArea
			gemm(false, true,
				matrix(outPerGroup, outArea, outGrad[outOff:]),
				matrix(colRows, outArea, col),
				beta, dw)
		}
		return nil
	})
}
