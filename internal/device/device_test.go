package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		in      string
		want    DeviceType
		wantErr bool
	}{
		{"cpu", CPU, false},
		{"CPU", CPU, false},
		{"Gpu", GPU, false},
		{"tpu", CPU, true},
		{"", CPU, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDeviceType(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownDevice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDevices(t *testing.T) {
	cpu := Default(CPU)
	gpu := Default(GPU)
	assert.Equal(t, CPU, cpu.Type())
	assert.Equal(t, GPU, gpu.Type())
	assert.True(t, cpu.IsAvailable())
	assert.True(t, gpu.IsAvailable())
	assert.Same(t, cpu, Default(CPU))
}

func TestCPUParallelForRunsInOrder(t *testing.T) {
	var order []int
	err := (&CPUDevice{}).ParallelFor(context.Background(), 5, func(i int) error {
		order = append(order, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestCPUParallelForStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := (&CPUDevice{}).ParallelFor(context.Background(), 10, func(i int) error {
		calls++
		if i == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestGPUParallelForCoversRange(t *testing.T) {
	d := NewGPUDevice(4)
	out := make([]int, 100)
	var calls atomic.Int64
	err := d.ParallelFor(context.Background(), len(out), func(i int) error {
		out[i] = i * i
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 100, calls.Load())
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestGPUParallelForPropagatesError(t *testing.T) {
	d := NewGPUDevice(2)
	boom := errors.New("boom")
	err := d.ParallelFor(context.Background(), 50, func(i int) error {
		if i == 7 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestGPUParallelForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewGPUDevice(2).ParallelFor(ctx, 10, func(i int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestGPUUploadDoesNotAlias(t *testing.T) {
	d := NewGPUDevice(0)
	assert.Positive(t, d.Workers())

	host := []float32{1, 2, 3}
	buf := d.Upload(host)
	buf[0] = 42
	assert.Equal(t, float32(1), host[0])

	dst := make([]float32, 3)
	d.Download(dst, buf)
	assert.Equal(t, []float32{42, 2, 3}, dst)
}
