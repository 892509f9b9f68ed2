// Package function defines the operator interface, its named-option
// configuration and the registry functions are looked up in.
package function

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingOption is returned when a requested option was never set.
	ErrMissingOption = errors.New("function: missing option")
	// ErrOptionType is returned when an option holds a value of another type.
	ErrOptionType = errors.New("function: option has wrong type")
)

// Config holds the named options a function is initialised with.
type Config struct {
	values map[string]any
}

// NewConfig creates an empty configuration.
func NewConfig() *Config {
	return &Config{values: make(map[string]any)}
}

// Set assigns an option and returns the config for chaining.
func (c *Config) Set(name string, value any) *Config {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if ints, ok := value.([]int); ok {
		value = append([]int(nil), ints...)
	}
	c.values[name] = value
	return c
}

// Has reports whether the option was set.
func (c *Config) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Int returns an integer option. Any Go integer kind is accepted.
func (c *Config) Int(name string) (int, error) {
	v, ok := c.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingOption, name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, want int", ErrOptionType, name, v)
	}
}

// Ints returns an integer list option. The result is a copy.
func (c *Config) Ints(name string) ([]int, error) {
	v, ok := c.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingOption, name)
	}
	ints, ok := v.([]int)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want []int", ErrOptionType, name, v)
	}
	return append([]int(nil), ints...), nil
}

// String returns a string option.
func (c *Config) String(name string) (string, error) {
	v, ok := c.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingOption, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrOptionType, name, v)
	}
	return s, nil
}

// Format renders the options as sorted name=value pairs.
func (c *Config) Format() string {
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%v", k, c.values[k])
	}
	return strings.Join(parts, " ")
}
