// Package pcm converts fixed-point PCM to normalized floating point and
// downmixes interleaved multi-channel frames to mono.
//
// Nothing in this package allocates; every function writes into a
// caller-provided destination so it can run on an audio driver thread.
package pcm

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-audio-scope/internal/simdops"
)

// FullScale16 is the magnitude of the most negative signed 16-bit sample.
// Normalizing by it maps [-32768, 32767] onto [-1.0, 1.0).
const FullScale16 = 32768.0

// invFullScale16 is exact: 1/32768 is a power of two.
const invFullScale16 = 1.0 / FullScale16

var (
	// ErrChannels is returned for a channel count below one or a block
	// whose length is not a multiple of the channel count.
	ErrChannels = errors.New("block length is not a multiple of channel count")

	// ErrShortDst is returned when the destination cannot hold the result.
	ErrShortDst = errors.New("destination buffer too small")
)

// Int16ToFloat normalizes a single signed 16-bit sample.
func Int16ToFloat(s int16) float64 {
	return float64(s) * invFullScale16
}

// ConvertS16 normalizes src into dst and returns the number of samples written.
func ConvertS16(dst []float64, src []int16) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrShortDst, len(src), len(dst))
	}
	out := dst[:len(src)]
	for i, s := range src {
		out[i] = float64(s)
	}
	simdops.ScaleInPlace(out, invFullScale16)
	return len(src), nil
}

// Frames returns the number of whole frames in an interleaved block.
func Frames(samples, channels int) (int, error) {
	if channels < 1 {
		return 0, fmt.Errorf("%w: channels=%d", ErrChannels, channels)
	}
	if samples%channels != 0 {
		return 0, fmt.Errorf("%w: %d samples, %d channels", ErrChannels, samples, channels)
	}
	return samples / channels, nil
}

// Downmix averages each interleaved frame of src into one mono sample of dst.
// It returns the frame count. With one channel this is a copy.
func Downmix(dst, src []float64, channels int) (int, error) {
	frames, err := Frames(len(src), channels)
	if err != nil {
		return 0, err
	}
	if len(dst) < frames {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrShortDst, frames, len(dst))
	}

	switch channels {
	case 1:
		copy(dst, src)
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (src[idx] + src[idx+1]) * 0.5
		}
	default:
		inv := 1.0 / float64(channels)
		for f := range frames {
			base := f * channels
			sum := 0.0
			for c := range channels {
				sum += src[base+c]
			}
			dst[f] = sum * inv
		}
	}
	return frames, nil
}
