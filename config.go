package scope

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Errors
var (
	// ErrInvalidConfig indicates invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")

	// ErrShape indicates an input block whose length does not match its
	// channel count or frame count.
	ErrShape = errors.New("invalid block shape")

	// ErrFormatMismatch indicates a block whose channel count differs from
	// the current session.
	ErrFormatMismatch = errors.New("block format does not match session")

	// ErrNotRunning is returned by control requests made after Run returned.
	ErrNotRunning = errors.New("pipeline is not running")

	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("pipeline is already running")
)

// WaveformMode selects the waveform view strategy.
type WaveformMode int

const (
	// WaveformChunked recomputes a fixed number of RMS points from each
	// consumed block (snapshot view).
	WaveformChunked WaveformMode = iota

	// WaveformStreaming appends every sample to a sliding window
	// (scrolling view).
	WaveformStreaming
)

// String returns the mode name.
func (m WaveformMode) String() string {
	switch m {
	case WaveformChunked:
		return "chunked"
	case WaveformStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("WaveformMode(%d)", int(m))
	}
}

// ParseWaveformMode maps a mode name to a WaveformMode.
func ParseWaveformMode(s string) (WaveformMode, error) {
	switch s {
	case "chunked", "":
		return WaveformChunked, nil
	case "streaming", "scroll":
		return WaveformStreaming, nil
	default:
		return 0, fmt.Errorf("%w: unknown waveform mode %q", ErrInvalidConfig, s)
	}
}

// Format describes the PCM stream of one playback session.
type Format struct {
	// SampleRate of the stream in Hz.
	SampleRate int

	// Channels is the interleaved channel count.
	Channels int
}

// Validate checks that the format is usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, f.SampleRate)
	}
	if f.Channels < monoChannels || f.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, maxChannels, f.Channels)
	}
	return nil
}

// Config holds pipeline configuration. All values are fixed for the lifetime
// of one playback session; SampleRate and Channels are re-supplied on every
// Start.
type Config struct {
	// SampleRate is the initial stream sample rate in Hz.
	SampleRate int

	// Channels is the initial interleaved channel count.
	Channels int

	// SlotFrames is the capacity of one ring slot in mono samples. It bounds
	// the per-slot work of the analysis loop; larger driver blocks are split.
	SlotFrames int

	// RingSlots is the number of readable slots in the ring. When the
	// analysis loop falls further behind than this, the oldest slot is
	// dropped.
	RingSlots int

	// WaveformMode selects the waveform view strategy.
	WaveformMode WaveformMode

	// WaveformSize is the window length (streaming) or point count (chunked).
	WaveformSize int

	// WaveformPeak reduces chunks to their peak instead of RMS. Chunked mode only.
	WaveformPeak bool

	// Envelope additionally publishes the negated view for a symmetric
	// envelope display. Chunked mode only.
	Envelope bool

	// MeterFloor is the display floor in dBFS applied by the presenter.
	MeterFloor float64

	// PollInterval is how long the analysis loop sleeps when the ring is empty.
	PollInterval time.Duration

	// PresentRate is the presenter refresh rate in Hz.
	PresentRate int

	// PeakHold is how long the presenter holds a peak. Zero disables hold.
	PeakHold time.Duration
}

// DefaultConfig returns a configuration with the documented defaults for a
// 48 kHz stereo stream.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:   DefaultSampleRate,
		Channels:     2,
		SlotFrames:   DefaultSlotFrames,
		RingSlots:    DefaultRingSlots,
		WaveformMode: WaveformChunked,
		WaveformSize: DefaultWaveformSize,
		MeterFloor:   DefaultMeterFloor,
		PollInterval: DefaultPollInterval,
		PresentRate:  DefaultPresentRate,
		PeakHold:     DefaultPeakHold,
	}
}

// Format returns the initial session format.
func (c *Config) Format() Format {
	return Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Validate checks the configuration and returns an error wrapping
// ErrInvalidConfig that names the first invalid field.
func (c *Config) Validate() error {
	if err := c.Format().Validate(); err != nil {
		return err
	}
	if c.SlotFrames < 1 || c.SlotFrames > maxSlotFrames {
		return fmt.Errorf("%w: slot frames must be 1-%d, got %d", ErrInvalidConfig, maxSlotFrames, c.SlotFrames)
	}
	if c.RingSlots < 1 || c.RingSlots > maxRingSlots {
		return fmt.Errorf("%w: ring slots must be 1-%d, got %d", ErrInvalidConfig, maxRingSlots, c.RingSlots)
	}
	if c.WaveformMode != WaveformChunked && c.WaveformMode != WaveformStreaming {
		return fmt.Errorf("%w: unknown waveform mode %d", ErrInvalidConfig, int(c.WaveformMode))
	}
	if c.WaveformSize < 1 || c.WaveformSize > maxWaveformSize {
		return fmt.Errorf("%w: waveform size must be 1-%d, got %d", ErrInvalidConfig, maxWaveformSize, c.WaveformSize)
	}
	if c.WaveformMode == WaveformStreaming && (c.Envelope || c.WaveformPeak) {
		return fmt.Errorf("%w: envelope and peak reduction require chunked mode", ErrInvalidConfig)
	}
	if math.IsNaN(c.MeterFloor) || c.MeterFloor >= 0 {
		return fmt.Errorf("%w: meter floor must be below 0 dBFS, got %g", ErrInvalidConfig, c.MeterFloor)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", ErrInvalidConfig, c.PollInterval)
	}
	if c.PresentRate < 1 || c.PresentRate > maxPresentRate {
		return fmt.Errorf("%w: present rate must be 1-%d Hz, got %d", ErrInvalidConfig, maxPresentRate, c.PresentRate)
	}
	if c.PeakHold < 0 {
		return fmt.Errorf("%w: peak hold must not be negative, got %v", ErrInvalidConfig, c.PeakHold)
	}
	return nil
}
