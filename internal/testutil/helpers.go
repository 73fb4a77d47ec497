// Package testutil provides reusable assertions for the scope test suites.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-12
	SampleTolerance  = 1e-9
	DBTolerance      = 0.01
)

// AssertDBNear verifies that a dB value is within DBTolerance of expected.
// Two infinities of the same sign compare equal.
func AssertDBNear(t *testing.T, expected, actual float64, msgAndArgs ...any) bool {
	t.Helper()
	if math.IsInf(expected, 0) {
		return assert.Equal(t, expected, actual, msgAndArgs...)
	}
	return assert.InDelta(t, expected, actual, DBTolerance, msgAndArgs...)
}

// AssertNoNaN verifies that no elements in the slice are NaN.
func AssertNoNaN(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertAllNear verifies that every element is within tolerance of want.
func AssertAllNear(t *testing.T, s []float64, want, tolerance float64) bool {
	t.Helper()
	for i, v := range s {
		if math.Abs(v-want) > tolerance {
			return assert.Fail(t, "value mismatch",
				"s[%d]=%f, want %f (±%g)", i, v, want, tolerance)
		}
	}
	return true
}

// Constant returns a block of n copies of v.
func Constant(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// ConstantS16 returns an interleaved int16 block of frames*channels copies of v.
func ConstantS16(frames, channels int, v int16) []int16 {
	s := make([]int16, frames*channels)
	for i := range s {
		s[i] = v
	}
	return s
}
