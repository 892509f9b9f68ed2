package conv

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// im2col expands the channels of one group of one image into col.
// img is [C/G, H, W]; col is [C/G*FH*FW, OH*OW], with row
// (c*FH+kh)*FW+kw holding the input samples seen by tap (kh, kw) of channel c.
// Taps that fall into the padding read as zero.
func im2col(g *geometry, img, col []float32) {
	outArea := g.outArea()
	for c := 0; c < g.inPerGroup(); c++ {
		channel := img[c*g.inArea() : (c+1)*g.inArea()]
		for kh := 0; kh < g.fH; kh++ {
			for kw := 0; kw < g.fW; kw++ {
				row := (c*g.fH+kh)*g.fW + kw
				dst := col[row*outArea : (row+1)*outArea]
				for oh := 0; oh < g.outH; oh++ {
					line := dst[oh*g.outW : (oh+1)*g.outW]
					inH := oh*g.strideH + kh - g.padH
					if inH < 0 || inH >= g.inH {
						zero(line)
						continue
					}
					src := channel[inH*g.inW : (inH+1)*g.inW]
					for ow := range line {
						inW := ow*g.strideW + kw - g.padW
						if inW >= 0 && inW < g.inW {
							line[ow] = src[inW]
						} else {
							line[ow] = 0
						}
					}
				}
			}
		}
	}
}

// col2im is the adjoint of im2col: every element of col is added back into
// the input position it was read from.
func col2im(g *geometry, col, img []float32) {
	outArea := g.outArea()
	for c := 0; c < g.inPerGroup(); c++ {
		channel := img[c*g.inArea() : (c+1)*g.inArea()]
		for kh := 0; kh < g.fH; kh++ {
			for kw := 0; kw < g.fW; kw++ {
				row := (c*g.fH+kh)*g.fW + kw
				src := col[row*outArea : (row+1)*outArea]
				for oh := 0; oh < g.outH; oh++ {
					inH := oh*g.strideH + kh - g.padH
					if inH < 0 || inH >= g.inH {
						continue
					}
					dst := channel[inH*g.inW : (inH+1)*g.inW]
					line := src[oh*g.outW : (oh+1)*g.outW]
					for ow, v := range line {
						inW := ow*g.strideW + kw - g.padW
						if inW >= 0 && inW < g.inW {
							dst[inW] += v
						}
					}
				}
			}
		}
	}
}

// matrix wraps row-major data as a blas32 general matrix.
func matrix(rows, cols int, data []float32) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data[:rows*cols]}
}

// gemm computes c = op(a)*op(b) + beta*c.
func gemm(transA, transB bool, a, b blas32.General, beta float32, c blas32.General) {
	tA, tB := blas.NoTrans, blas.NoTrans
	if transA {
		tA = blas.Trans
	}
	if transB {
		tB = blas.Trans
	}
	blas32.Gemm(tA, tB, 1, a, b, beta, c)
}
