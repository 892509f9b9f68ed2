package tensor

import "testing"

func TestShapeElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", NewShape(), 1},
		{"vector", NewShape(5), 5},
		{"nchw", NewShape(1, 3, 7, 7), 147},
		{"grouped filter", NewShape(3, 1, 1, 5, 5), 75},
		{"zero dim", NewShape(2, 0, 4), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Elements(); got != tt.want {
				t.Errorf("Elements() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShapeEqualAndString(t *testing.T) {
	a := NewShape(32, 64, 14, 14)
	b := NewShape(32, 64, 14, 14)
	c := NewShape(32, 64, 14)

	if !a.Equal(b) {
		t.Errorf("%v should equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("%v should not equal %v", a, c)
	}
	if got := a.String(); got != "[32, 64, 14, 14]" {
		t.Errorf("String() = %q, want %q", got, "[32, 64, 14, 14]")
	}
}

func TestNewShapeCopiesDims(t *testing.T) {
	dims := []int{1, 2, 3}
	s := NewShape(dims...)
	dims[0] = 9
	if s.Dim(0) != 1 {
		t.Errorf("Dim(0) = %d, want 1", s.Dim(0))
	}
	if s.NDims() != 3 {
		t.Errorf("NDims() = %d, want 3", s.NDims())
	}
}

func TestBufferArgAllocAndClone(t *testing.T) {
	arg := NewBufferArg(Float32, NewShape(2, 3))
	if arg.Data != nil {
		t.Fatal("descriptor should have no storage before Alloc")
	}

	arg = arg.Alloc()
	if len(arg.Data) != 6 {
		t.Fatalf("len(Data) = %d, want 6", len(arg.Data))
	}
	arg.Data[4] = 1.5
	arg.ArgType = AddTo

	c := arg.Clone()
	c.Data[4] = -1
	c.Shape[0] = 7
	if arg.Data[4] != 1.5 {
		t.Errorf("Clone shares storage: Data[4] = %v, want 1.5", arg.Data[4])
	}
	if arg.Shape[0] != 2 {
		t.Errorf("Clone shares shape: Shape[0] = %d, want 2", arg.Shape[0])
	}
	if c.ArgType != AddTo {
		t.Errorf("ArgType = %v, want %v", c.ArgType, AddTo)
	}
}

func TestValueTypeSize(t *testing.T) {
	if Float32.Size() != 4 {
		t.Errorf("Float32.Size() = %d, want 4", Float32.Size())
	}
	if Float64.Size() != 8 {
		t.Errorf("Float64.Size() = %d, want 8", Float64.Size())
	}
}
