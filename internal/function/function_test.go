package function

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// scale multiplies its single input by the "factor" option.
type scale struct {
	dev    device.Device
	factor int
}

func (s *scale) Init(cfg *Config) error {
	f, err := cfg.Int("factor")
	if err != nil {
		return err
	}
	s.factor = f
	return nil
}

func (s *scale) Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error {
	for i, v := range inputs[0].Data {
		outputs[0].Data[i] = v * float32(s.factor)
	}
	return nil
}

func init() {
	Register("TestScale", device.CPU, func(dev device.Device) Function { return &scale{dev: dev} })
	Register("TestScale", device.GPU, func(dev device.Device) Function { return &scale{dev: dev} })
}

func TestConfigGetters(t *testing.T) {
	paddings := []int{1, 2}
	cfg := NewConfig().
		Set("paddings", paddings).
		Set("groups", uint64(3)).
		Set("algo", "auto")
	paddings[0] = 9

	groups, err := cfg.Int("groups")
	require.NoError(t, err)
	assert.Equal(t, 3, groups)

	got, err := cfg.Ints("paddings")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	algo, err := cfg.String("algo")
	require.NoError(t, err)
	assert.Equal(t, "auto", algo)

	assert.True(t, cfg.Has("algo"))
	assert.False(t, cfg.Has("strides"))
	assert.Equal(t, "algo=auto groups=3 paddings=[1 2]", cfg.Format())
}

func TestConfigErrors(t *testing.T) {
	cfg := NewConfig().Set("algo", "auto").Set("groups", 2)

	_, err := cfg.Int("strides")
	assert.ErrorIs(t, err, ErrMissingOption)

	_, err = cfg.Int("algo")
	assert.ErrorIs(t, err, ErrOptionType)

	_, err = cfg.Ints("groups")
	assert.ErrorIs(t, err, ErrOptionType)

	_, err = cfg.String("groups")
	assert.ErrorIs(t, err, ErrOptionType)

	var zero Config
	zero.Set("groups", 1)
	n, err := zero.Int("groups")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSplitName(t *testing.T) {
	name, dt, err := SplitName("GemmConvGradInput-GPU")
	require.NoError(t, err)
	assert.Equal(t, "GemmConvGradInput", name)
	assert.Equal(t, device.GPU, dt)

	for _, bad := range []string{"GemmConv", "-CPU", "GemmConv-", "GemmConv-TPU"} {
		_, _, err := SplitName(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewAndCalc(t *testing.T) {
	fn, err := New("TestScale-CPU", NewConfig().Set("factor", 3), nil)
	require.NoError(t, err)

	in := tensor.NewBufferArg(tensor.Float32, tensor.NewShape(3)).WithData([]float32{1, 2, 3})
	out := tensor.NewBufferArg(tensor.Float32, tensor.NewShape(3)).Alloc()
	require.NoError(t, fn.Calc(context.Background(), []tensor.BufferArg{in}, []tensor.BufferArg{out}))
	assert.Equal(t, []float32{3, 6, 9}, out.Data)

	s := fn.(*scale)
	assert.Equal(t, device.CPU, s.dev.Type())
}

func TestNewErrors(t *testing.T) {
	_, err := New("Missing-CPU", nil, nil)
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = New("TestScale-CPU", nil, nil)
	assert.ErrorIs(t, err, ErrMissingOption)

	_, err = New("TestScale-GPU", NewConfig().Set("factor", 1), &device.CPUDevice{})
	assert.Error(t, err)
}

func TestRegistryNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "TestScale-CPU")
	assert.Contains(t, names, "TestScale-GPU")
	assert.IsIncreasing(t, names)
	assert.True(t, Registered("TestScale-GPU"))
	assert.False(t, Registered("TestScale-TPU"))
}

func TestDuplicateRegisterPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("TestScale", device.CPU, func(dev device.Device) Function { return &scale{dev: dev} })
	})
}
