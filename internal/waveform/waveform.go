// Package waveform turns variable-length mono blocks into fixed-size views
// for display.
//
// Two strategies are provided:
//
//   - Window is a streaming view. Every sample is appended to a fixed-length
//     sliding window and the oldest sample falls off, giving a continuously
//     scrolling trace. O(1) per sample.
//   - Chunked is a snapshot view. Each block is partitioned into K chunks and
//     reduced to one RMS (or peak) value per chunk, recomputed from scratch on
//     every update.
//
// Both implement Reducer, so the pipeline picks one at construction.
package waveform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-audio-scope/internal/simdops"
)

// ErrInvalidSize is returned for a non-positive view size.
var ErrInvalidSize = errors.New("waveform size must be positive")

// Reducer folds mono blocks into a fixed-size view.
type Reducer interface {
	// Update folds one mono block into the view.
	Update(block []float64)
	// View copies the view into dst, which must hold Size points, and returns
	// how many leading points are valid data.
	View(dst []float64) int
	// Size is the fixed number of points in the view.
	Size() int
	// Reset returns the view to silence.
	Reset()
}

// Statistic selects what each chunk reduces to.
type Statistic int

const (
	// StatRMS reduces a chunk to sqrt(mean(x²)).
	StatRMS Statistic = iota
	// StatPeak reduces a chunk to max|x|.
	StatPeak
)

// String returns the statistic name.
func (s Statistic) String() string {
	switch s {
	case StatRMS:
		return "rms"
	case StatPeak:
		return "peak"
	default:
		return fmt.Sprintf("Statistic(%d)", int(s))
	}
}

// ChunkBounds returns the half-open sample range [start, end) of chunk i when
// n samples are split into k chunks. The first n%k chunks hold one extra
// sample, so sizes differ by at most one and no chunk exceeds ceil(n/k).
// When n < k the trailing chunks are empty.
func ChunkBounds(n, k, i int) (start, end int) {
	base, rem := n/k, n%k
	start = i*base + min(i, rem)
	end = start + base
	if i < rem {
		end++
	}
	return start, min(end, n)
}

// ValidChunks returns how many of k chunks receive at least one of n samples.
func ValidChunks(n, k int) int {
	return min(n, k)
}

// Reduce writes one RMS value per chunk of src into dst, using len(dst) as the
// chunk count, and returns the number of valid leading chunks. Empty chunks
// are written as 0.
func Reduce(dst, src []float64) int {
	return reduce(dst, src, StatRMS)
}

// ReducePeak is Reduce with max|x| per chunk.
func ReducePeak(dst, src []float64) int {
	return reduce(dst, src, StatPeak)
}

func reduce(dst, src []float64, stat Statistic) int {
	k := len(dst)
	if k == 0 {
		return 0
	}
	n := len(src)
	for i := range k {
		start, end := ChunkBounds(n, k, i)
		if start >= end {
			dst[i] = 0
			continue
		}
		chunk := src[start:end]
		switch stat {
		case StatPeak:
			dst[i] = math.Max(floats.Max(chunk), -floats.Min(chunk))
		default:
			dst[i] = math.Sqrt(simdops.MeanSquare(chunk))
		}
	}
	return ValidChunks(n, k)
}

// Negate writes -src into dst.
func Negate(dst, src []float64) {
	n := min(len(dst), len(src))
	copy(dst, src[:n])
	simdops.ScaleInPlace(dst[:n], -1)
}
