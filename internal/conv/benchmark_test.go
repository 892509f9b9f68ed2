package conv

import (
	"context"
	"math/rand"
	"testing"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

var benchCase = convCase{"bench", 8, 16, 32, 28, 28, 3, 3, 1, 1, 1}

func benchmarkForward(b *testing.B, name string) {
	rng := rand.New(rand.NewSource(42))
	inShape, fShape, outShape := benchCase.shapes()
	x, w := randomBuffer(rng, inShape), randomBuffer(rng, fShape)
	y := tensor.NewBufferArg(tensor.Float32, outShape).Alloc()

	fn, err := function.New(name, benchCase.config(AlgoAuto), nil)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := fn.Calc(ctx, []tensor.BufferArg{x, w}, []tensor.BufferArg{y}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNaiveConvForward benchmarks the direct reference kernel.
func BenchmarkNaiveConvForward(b *testing.B) { benchmarkForward(b, "NaiveConv-CPU") }

// BenchmarkGemmConvForward benchmarks im2col + GEMM on the CPU device.
func BenchmarkGemmConvForward(b *testing.B) { benchmarkForward(b, "GemmConv-CPU") }

// BenchmarkGemmConvForwardGPU benchmarks im2col + GEMM on the worker pool.
func BenchmarkGemmConvForwardGPU(b *testing.B) { benchmarkForward(b, "GemmConv-GPU") }

func BenchmarkIm2Col(b *testing.B) {
	inShape, fShape, outShape := benchCase.shapes()
	g, err := newGeometry(options{padH: 1, padW: 1, strideH: 1, strideW: 1, groups: 1, algo: AlgoIm2Col},
		inShape, fShape, outShape)
	if err != nil {
		b.Fatal(err)
	}
	img := make([]float32, g.inPerGroup()*g.inArea())
	col := make([]float32, g.colRows()*g.outArea())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		im2col(&g, img, col)
	}
}
