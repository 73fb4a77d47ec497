package scope

import (
	"fmt"
	"time"
)

// AudioCallback is invoked by the media engine on its audio thread with one
// block of interleaved signed 16-bit samples. samples may be nil and
// frameCount may be zero; both are no-ops.
type AudioCallback func(samples []int16, frameCount, channels, sampleRate int, pts time.Duration)

// EventKind enumerates playback lifecycle events.
type EventKind int

const (
	// EventPlaying starts a new session with Event.Format.
	EventPlaying EventKind = iota
	// EventStopped ends the session on request.
	EventStopped
	// EventEndReached ends the session at the end of the media.
	EventEndReached
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventPlaying:
		return "playing"
	case EventStopped:
		return "stopped"
	case EventEndReached:
		return "end-reached"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a playback lifecycle notification from the media engine.
type Event struct {
	Kind   EventKind
	Format Format // set for EventPlaying
}

// Engine is the media decode/playback collaborator. The pipeline is built
// around one explicitly owned engine instance: it registers its callback at
// construction and consumes Events from Run.
type Engine interface {
	// SetAudioCallback registers the producer callback. A nil callback
	// detaches the pipeline.
	SetAudioCallback(cb AudioCallback)

	// Events returns the lifecycle event stream. The channel is closed when
	// the engine shuts down.
	Events() <-chan Event
}
