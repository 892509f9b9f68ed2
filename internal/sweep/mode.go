// Package sweep enumerates convolution configurations over a grid of shapes
// and checks, case by case, that two implementations of the same operator
// agree.
package sweep

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("sweep: unknown mode")

// Mode selects which computation of the operator a sweep checks.
type Mode int

const (
	// Forward checks output = conv(input, filter).
	Forward Mode = iota
	// BackwardInput checks the gradient with respect to the input.
	BackwardInput
	// BackwardFilter checks the gradient with respect to the filter.
	BackwardFilter
)

func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case BackwardInput:
		return "backward-input"
	case BackwardFilter:
		return "backward-filter"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd":
		return Forward, nil
	case "backward-input", "bwd-input", "input":
		return BackwardInput, nil
	case "backward-filter", "bwd-filter", "filter":
		return BackwardFilter, nil
	default:
		return Forward, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
