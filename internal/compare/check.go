package compare

import "math"

// CheckResult summarises the element-wise comparison of two buffers.
type CheckResult struct {
	// MaxDiff is the largest scaled difference seen.
	MaxDiff float64
	// Mismatches counts elements whose scaled difference exceeds the tolerance.
	Mismatches int
	// WorstIndex is the element with the largest scaled difference.
	WorstIndex int
	// Lhs and Rhs are the values at WorstIndex.
	Lhs, Rhs float32
}

// Diff returns the scaled difference between a and b: the absolute
// difference, divided by max(|a|, |b|) when that exceeds 1. NaN on either
// side yields +Inf.
func Diff(a, b float32) float64 {
	x, y := float64(a), float64(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.Inf(1)
	}
	if x == y {
		return 0
	}
	d := math.Abs(x - y)
	if m := math.Max(math.Abs(x), math.Abs(y)); m > 1 {
		d /= m
	}
	return d
}

// Check compares a and b element by element. Buffers of different length
// count every missing element as a mismatch.
func Check(a, b []float32, eps float64) CheckResult {
	var r CheckResult
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > 0 {
		r.Lhs, r.Rhs = a[0], b[0]
	}
	for i := 0; i < n; i++ {
		d := Diff(a[i], b[i])
		if d > eps {
			r.Mismatches++
		}
		if d > r.MaxDiff {
			r.MaxDiff = d
			r.WorstIndex = i
			r.Lhs, r.Rhs = a[i], b[i]
		}
	}
	if len(a) != len(b) {
		missing := len(a) - len(b)
		if missing < 0 {
			missing = -missing
		}
		r.Mismatches += missing
		r.MaxDiff = math.Inf(1)
	}
	return r
}
