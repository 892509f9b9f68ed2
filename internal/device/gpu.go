package device

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// GPUDevice is an accelerator backend emulated on the host. Work is spread
// over a bounded pool of goroutines and buffers live in device-owned storage,
// so kernels see the same execution and memory split a discrete device has.
type GPUDevice struct {
	workers int
}

// NewGPUDevice creates a GPU device with the given number of workers.
// workers <= 0 uses runtime.NumCPU().
func NewGPUDevice(workers int) *GPUDevice {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &GPUDevice{workers: workers}
}

func (d *GPUDevice) Type() DeviceType  { return GPU }
func (d *GPUDevice) IsAvailable() bool { return d != nil && d.workers > 0 }

// Workers returns the size of the worker pool.
func (d *GPUDevice) Workers() int { return d.workers }

// ParallelFor runs fn over [0, n) on the worker pool. The first error
// cancels the remaining tasks and is returned.
func (d *GPUDevice) ParallelFor(ctx context.Context, n int, fn func(i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.workers)
	for i := 0; i < n; i++ {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Upload copies host into a fresh device buffer.
func (d *GPUDevice) Upload(host []float32) []float32 {
	buf := make([]float32, len(host))
	copy(buf, host)
	return buf
}

func (d *GPUDevice) Download(dst, src []float32) {
	copy(dst, src)
}
