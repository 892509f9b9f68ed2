package tensor

import "fmt"

// ValueType is the element type of a buffer.
type ValueType int

const (
	Float32 ValueType = iota
	Float64
)

// Size returns the number of bytes per element.
func (v ValueType) Size() int {
	switch v {
	case Float64:
		return 8
	default:
		return 4
	}
}

func (v ValueType) String() string {
	switch v {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("ValueType(%d)", int(v))
	}
}

// ArgType tells a function how to treat an output buffer.
type ArgType int

const (
	Unspecified ArgType = iota
	// AssignTo overwrites the output buffer.
	AssignTo
	// AddTo accumulates into the existing contents of the output buffer.
	AddTo
)

func (a ArgType) String() string {
	switch a {
	case AssignTo:
		return "assign"
	case AddTo:
		return "add"
	default:
		return "unspecified"
	}
}

// BufferArg tags a shape with an element type and an accumulation mode,
// optionally carrying storage.
type BufferArg struct {
	ValueType ValueType
	Shape     Shape
	ArgType   ArgType
	Data      []float32
}

// NewBufferArg creates a buffer descriptor without storage.
func NewBufferArg(vt ValueType, shape Shape) BufferArg {
	return BufferArg{ValueType: vt, Shape: shape}
}

// Len returns the number of elements described by the shape.
func (b BufferArg) Len() int {
	return b.Shape.Elements()
}

// Alloc returns a copy of b with zeroed storage attached.
func (b BufferArg) Alloc() BufferArg {
	b.Data = make([]float32, b.Len())
	return b
}

// WithData returns a copy of b backed by data.
func (b BufferArg) WithData(data []float32) BufferArg {
	b.Data = data
	return b
}

// Clone returns a deep copy of b.
func (b BufferArg) Clone() BufferArg {
	c := b
	c.Shape = NewShape(b.Shape...)
	if b.Data != nil {
		c.Data = make([]float32, len(b.Data))
		copy(c.Data, b.Data)
	}
	return c
}

func (b BufferArg) String() string {
	return fmt.Sprintf("%s%s(%s)", b.ValueType, b.Shape, b.ArgType)
}
