// Package device provides the compute devices convolution functions run on.
package device

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// DeviceType represents the hardware device used for computation.
type DeviceType int

const (
	CPU DeviceType = iota
	GPU
)

// ErrUnknownDevice is returned when a device name cannot be parsed.
var ErrUnknownDevice = errors.New("device: unknown device type")

func (t DeviceType) String() string {
	switch t {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// ParseDeviceType maps "cpu" or "gpu" (case-insensitive) to a DeviceType.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToUpper(s) {
	case "CPU":
		return CPU, nil
	case "GPU":
		return GPU, nil
	default:
		return CPU, fmt.Errorf("%w: %q", ErrUnknownDevice, s)
	}
}

// Device manages the hardware resources for convolution functions.
type Device interface {
	Type() DeviceType
	IsAvailable() bool
	// ParallelFor calls fn for every i in [0, n). Calls for different i must
	// not write to overlapping memory.
	ParallelFor(ctx context.Context, n int, fn func(i int) error) error
	// Upload copies host data into storage owned by the device.
	Upload(host []float32) []float32
	// Download copies device storage back into dst.
	Download(dst, src []float32)
}

// CPUDevice handles computations on the host CPU, one task at a time.
type CPUDevice struct{}

func (d *CPUDevice) Type() DeviceType { return CPU }
func (d *CPUDevice) IsAvailable() bool { return true }

func (d *CPUDevice) ParallelFor(ctx context.Context, n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// Upload returns the host slice itself; CPU memory is host memory.
func (d *CPUDevice) Upload(host []float32) []float32 { return host }

func (d *CPUDevice) Download(dst, src []float32) {
	if len(dst) > 0 && len(src) > 0 && &dst[0] == &src[0] {
		return
	}
	copy(dst, src)
}

var (
	defaultOnce sync.Once
	defaultCPU  Device
	defaultGPU  Device
)

// Default returns the shared device instance for t.
func Default(t DeviceType) Device {
	defaultOnce.Do(func() {
		defaultCPU = &CPUDevice{}
		defaultGPU = NewGPUDevice(runtime.NumCPU())
	})
	if t == GPU {
		return defaultGPU
	}
	return defaultCPU
}
