// Package meter computes peak and RMS loudness of mono sample blocks in dBFS.
//
// Readings are unclamped: a silent block yields -Inf for both values. Flooring
// to a display minimum is a presentation step, done with Clamp or PeakHolder.
package meter

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-audio-scope/internal/simdops"
)

const (
	// DefaultFloor is the conventional meter floor in dBFS.
	DefaultFloor = -70.0

	// ClipThreshold is the normalized magnitude counted as clipping.
	// It sits slightly below full scale to catch near-clips.
	ClipThreshold = 32760.0 / 32768.0

	dbScale = 20.0
)

// Reading is the loudness of one block.
type Reading struct {
	PeakDB float64 // 20·log10(max|x|), -Inf for silence
	RMSDB  float64 // 20·log10(sqrt(mean(x²))), -Inf for silence
	Clips  int     // samples with |x| >= ClipThreshold
}

// Silence is the reading of an all-zero or empty block.
func Silence() Reading {
	return Reading{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)}
}

// ToDB converts a linear amplitude to dBFS. Zero maps to -Inf.
func ToDB(amplitude float64) float64 {
	return dbScale * math.Log10(amplitude)
}

// Peak returns max|x| over samples, or 0 for an empty block.
func Peak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Max(floats.Max(samples), -floats.Min(samples))
}

// RMS returns sqrt(mean(x²)) over samples, or 0 for an empty block.
func RMS(samples []float64) float64 {
	return math.Sqrt(simdops.MeanSquare(samples))
}

// Calculate measures one block. It never returns NaN.
func Calculate(samples []float64) Reading {
	if len(samples) == 0 {
		return Silence()
	}

	clips := 0
	for _, v := range samples {
		if math.Abs(v) >= ClipThreshold {
			clips++
		}
	}

	return Reading{
		PeakDB: ToDB(Peak(samples)),
		RMSDB:  ToDB(RMS(samples)),
		Clips:  clips,
	}
}

// Clamp raises db to floor. -Inf and NaN both clamp to floor.
func Clamp(db, floor float64) float64 {
	if math.IsNaN(db) || db < floor {
		return floor
	}
	return db
}
