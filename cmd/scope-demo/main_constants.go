package main

import "time"

// Default command-line flag values
const (
	defaultSampleRate = 48000 // DAT/DVD sample rate
	defaultChannels   = 2     // Stereo
	defaultDuration   = time.Second
)

// Test signal parameters
const (
	testSignalFrequency = 1000.0 // 1 kHz test tone
	blockFrames         = 480    // 10 ms at 48 kHz
	fullScale16         = 32767.0
)

// Demo sessions
const (
	loudLevelDB  = -6.0
	quietLevelDB = -30.0
	reportEvery  = 250 * time.Millisecond
	monoChannels = 1
	sampleRateCD = 44100
)
