// Package config loads convsweep settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/GoConvCheck/internal/compare"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/conv"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/logging"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/sweep"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("config: invalid")

// Config contains all convsweep settings.
type Config struct {
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Compare CompareConfig `json:"compare" yaml:"compare"`
	Sweep   SweepConfig   `json:"sweep" yaml:"sweep"`
	Grids   GridsConfig   `json:"grids" yaml:"grids"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is "debug", "info" (default), "warn" or "error".
	Level string `json:"level" yaml:"level"`
}

// CompareConfig configures every comparison.
type CompareConfig struct {
	// Seed feeds the random input generator.
	Seed int64 `json:"seed" yaml:"seed"`
	// Tolerance is the largest accepted scaled difference per element.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
	// Workers bounds the GPU device worker pool. 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// SweepConfig configures how cases are run.
type SweepConfig struct {
	KeepGoing bool   `json:"keep_going" yaml:"keep_going"`
	Algo      string `json:"algo" yaml:"algo"`
}

// GridsConfig holds the shape grids.
type GridsConfig struct {
	Square sweep.SquareGrid `json:"square" yaml:"square"`
	Rect   sweep.RectGrid   `json:"rect" yaml:"rect"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Compare: CompareConfig{
			Seed:      compare.DefaultSeed,
			Tolerance: compare.DefaultTolerance,
		},
		Sweep: SweepConfig{Algo: conv.AlgoAuto},
		Grids: GridsConfig{
			Square: sweep.DefaultSquareGrid(),
			Rect:   sweep.DefaultRectGrid(),
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies CONVCHECK_* environment variables.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("CONVCHECK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CONVCHECK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONVCHECK_WORKERS: %w", err)
		}
		config.Compare.Workers = n
	}
	if v := os.Getenv("CONVCHECK_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CONVCHECK_SEED: %w", err)
		}
		config.Compare.Seed = n
	}
	if v := os.Getenv("CONVCHECK_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CONVCHECK_TOLERANCE: %w", err)
		}
		config.Compare.Tolerance = f
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: log level %q (valid: debug, info, warn, error)", ErrInvalid, c.Logging.Level)
	}
	if !(c.Compare.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalid, c.Compare.Tolerance)
	}
	if c.Compare.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalid, c.Compare.Workers)
	}
	switch c.Sweep.Algo {
	case "", conv.AlgoAuto, conv.AlgoIm2Col:
	default:
		return fmt.Errorf("%w: algo %q (valid: %s, %s)", ErrInvalid, c.Sweep.Algo, conv.AlgoAuto, conv.AlgoIm2Col)
	}

	sq, r := c.Grids.Square, c.Grids.Rect
	lists := []gridList{
		{"square.batch_sizes", sq.BatchSizes, 1},
		{"square.input_sizes", sq.InputSizes, 1},
		{"square.filter_sizes", sq.FilterSizes, 1},
		{"square.input_channels", sq.InputChannels, 1},
		{"square.output_channels", sq.OutputChannels, 1},
		{"square.strides", sq.Strides, 1},
		{"square.paddings", sq.Paddings, 0},
		{"rect.batch_sizes", r.BatchSizes, 1},
		{"rect.input_heights", r.InputHeights, 1},
		{"rect.input_widths", r.InputWidths, 1},
		{"rect.filter_heights", r.FilterHeights, 1},
		{"rect.filter_widths", r.FilterWidths, 1},
		{"rect.input_channels", r.InputChannels, 1},
		{"rect.output_channels", r.OutputChannels, 1},
		{"rect.strides", r.Strides, 1},
		{"rect.paddings", r.Paddings, 0},
	}
	for _, l := range lists {
		if len(l.vals) == 0 {
			return fmt.Errorf("%w: grids.%s is empty", ErrInvalid, l.name)
		}
		for _, v := range l.vals {
			if v < l.min {
				return fmt.Errorf("%w: grids.%s has %d, minimum is %d", ErrInvalid, l.name, v, l.min)
			}
		}
	}
	return nil
}

type gridList struct {
	name string
	vals []int
	min  int
}

// CompareOptions returns the comparator options for the configuration.
func (c *Config) CompareOptions() []compare.Option {
	return []compare.Option{
		compare.WithSeed(c.Compare.Seed),
		compare.WithTolerance(c.Compare.Tolerance),
	}
}
