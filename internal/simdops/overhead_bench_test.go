package simdops

import (
	"testing"

	"github.com/tphakala/simd/f64"
)

// BenchmarkDirectF64DotProduct measures direct SIMD call overhead.
func BenchmarkDirectF64DotProduct(b *testing.B) {
	a := make([]float64, 2048)
	for i := range a {
		a[i] = float64(i%64) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = f64.DotProductUnsafe(a, a)
	}
}

// BenchmarkSumSquares measures the wrapper on a typical slot.
func BenchmarkSumSquares(b *testing.B) {
	a := make([]float64, 2048)
	for i := range a {
		a[i] = float64(i%64) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = SumSquares(a)
	}
}

// BenchmarkScalarSumSquares is the pure Go baseline.
func BenchmarkScalarSumSquares(b *testing.B) {
	a := make([]float64, 2048)
	for i := range a {
		a[i] = float64(i%64) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		var s float64
		for _, v := range a {
			s += v * v
		}
		_ = s
	}
}
