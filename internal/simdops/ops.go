// Package simdops provides the vector kernels used on the metering hot path.
// The kernels dispatch to github.com/tphakala/simd, which selects AVX2/SSE/NEON
// implementations at startup and falls back to pure Go elsewhere.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f64"
)

// SumSquares returns Σ a[i]².
func SumSquares(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return f64.DotProductUnsafe(a, a)
}

// MeanSquare returns the mean of a[i]², or 0 for an empty slice.
func MeanSquare(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return SumSquares(a) / float64(len(a))
}

// ScaleInPlace multiplies every element of a by s.
func ScaleInPlace(a []float64, s float64) {
	if len(a) == 0 {
		return
	}
	f64.Scale(a, a, s)
}

// Info describes the SIMD instruction sets detected on this CPU.
func Info() string {
	return cpu.Info()
}
