package scope

import "time"

// Channel constants
const (
	monoChannels = 1
	maxChannels  = 256 // Maximum supported channel count
)

// Default configuration values
const (
	// DefaultSampleRate is used when a session does not report one.
	DefaultSampleRate = 48000

	// DefaultSlotFrames is the ring slot capacity in mono samples. Driver
	// blocks larger than this are split across consecutive slots.
	DefaultSlotFrames = 4096

	// DefaultRingSlots is the readable backlog of the ring.
	DefaultRingSlots = 4

	// DefaultWaveformSize is the number of points in the waveform view.
	DefaultWaveformSize = 512

	// DefaultMeterFloor is the display floor in dBFS.
	DefaultMeterFloor = -70.0

	// DefaultPollInterval is the analysis loop's sleep between ring polls.
	DefaultPollInterval = 2 * time.Millisecond

	// DefaultPresentRate is the UI refresh rate in Hz.
	DefaultPresentRate = 30

	// DefaultPeakHold is how long the presenter holds a peak.
	DefaultPeakHold = 1500 * time.Millisecond
)

// Limits
const (
	maxPresentRate   = 240
	maxSlotFrames    = 1 << 20
	maxRingSlots     = 1024
	maxWaveformSize  = 1 << 16
	quiescePollDelay = 50 * time.Microsecond
)
