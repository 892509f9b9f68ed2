package function

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/tensor"
)

// ErrNotRegistered is returned when no function is registered under a name.
var ErrNotRegistered = errors.New("function: not registered")

// Function is an operator that reads input buffers and writes output buffers.
type Function interface {
	// Init reads the operator options. It is called once before Calc.
	Init(cfg *Config) error
	// Calc computes outputs from inputs. Each output honours its ArgType.
	Calc(ctx context.Context, inputs, outputs []tensor.BufferArg) error
}

// Factory creates a function bound to a device.
type Factory func(dev device.Device) Function

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// QualifiedName joins a function name and a device type, e.g. "GemmConv-CPU".
func QualifiedName(name string, t device.DeviceType) string {
	return name + "-" + t.String()
}

// SplitName splits a qualified name into the function name and its device.
func SplitName(qualified string) (string, device.DeviceType, error) {
	i := strings.LastIndexByte(qualified, '-')
	if i <= 0 || i == len(qualified)-1 {
		return "", device.CPU, fmt.Errorf("function: %q is not of the form Name-DEVICE", qualified)
	}
	t, err := device.ParseDeviceType(qualified[i+1:])
	if err != nil {
		return "", device.CPU, fmt.Errorf("function: %q: %w", qualified, err)
	}
	return qualified[:i], t, nil
}

// Register makes a factory available under name on device type t.
// Registering the same qualified name twice panics.
func Register(name string, t device.DeviceType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := QualifiedName(name, t)
	if _, dup := registry[key]; dup {
		panic("function: duplicate registration of " + key)
	}
	registry[key] = f
}

// Registered reports whether a qualified name has a factory.
func Registered(qualified string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[qualified]
	return ok
}

// Names returns every registered qualified name, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// New creates the function registered under qualified, binds it to dev
// (nil selects the default device for the name's device type) and
// initialises it with cfg.
func New(qualified string, cfg *Config, dev device.Device) (Function, error) {
	_, t, err := SplitName(qualified)
	if err != nil {
		return nil, err
	}

	registryMu.RLock()
	f, ok := registry[qualified]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, qualified)
	}

	if dev == nil {
		dev = device.Default(t)
	}
	if dev.Type() != t {
		return nil, fmt.Errorf("function: %s needs a %s device, got %s", qualified, t, dev.Type())
	}
	if !dev.IsAvailable() {
		return nil, fmt.Errorf("function: %s device is not available", t)
	}

	fn := f(dev)
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := fn.Init(cfg); err != nil {
		return nil, fmt.Errorf("init %s: %w", qualified, err)
	}
	return fn, nil
}
