// Package tensor provides shape and buffer descriptors shared by the
// convolution functions and the comparison harness.
package tensor

import (
	"strconv"
	"strings"
)

// Shape is an ordered list of dimension sizes, outermost first.
type Shape []int

// NewShape creates a shape from the given dimensions.
func NewShape(dims ...int) Shape {
	s := make(Shape, len(dims))
	copy(s, dims)
	return s
}

// NDims returns the number of dimensions.
func (s Shape) NDims() int {
	return len(s)
}

// Dim returns the size of dimension i.
func (s Shape) Dim(i int) int {
	return s[i]
}

// Elements returns the number of elements described by the shape.
// An empty shape describes a scalar.
func (s Shape) Elements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	sb.WriteByte(']')
	return sb.String()
}
