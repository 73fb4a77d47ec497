// Package wavengine is a file-backed media engine for the scope pipeline. It
// decodes a PCM WAV file with go-audio/wav and delivers interleaved 16-bit
// blocks to the registered audio callback from its own goroutine, optionally
// paced at playback speed, with the same lifecycle events a player would send.
package wavengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	scope "github.com/tphakala/go-audio-scope"
)

const (
	// DefaultBlockFrames is the callback block size in frames, a typical
	// driver period.
	DefaultBlockFrames = 1024

	eventBuffer = 4

	readyPollDelay = time.Millisecond

	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	unsigned8Offset = 128
)

var (
	// ErrInvalidFile is returned for input that is not a readable PCM WAV.
	ErrInvalidFile = errors.New("invalid WAV file")

	// ErrBitDepth is returned for sample sizes other than 8, 16, 24 or 32 bits.
	ErrBitDepth = errors.New("unsupported bit depth")
)

// Config controls block delivery.
type Config struct {
	// BlockFrames is the number of frames per callback.
	BlockFrames int

	// Realtime paces blocks at their playback duration. When false blocks are
	// delivered as fast as the callback returns.
	Realtime bool

	// Ready, when set, is polled after EventPlaying has been sent and the
	// first block is held back until it reports true. Events are delivered
	// asynchronously, so without it the first blocks can reach a consumer
	// that has not applied EventPlaying yet.
	Ready func() bool
}

// Engine plays one WAV stream into a scope.AudioCallback. It implements
// scope.Engine.
type Engine struct {
	closer   io.Closer
	decoder  *wav.Decoder
	format   scope.Format
	bitDepth int
	duration time.Duration
	cfg      Config

	cb        atomic.Pointer[scope.AudioCallback]
	events    chan scope.Event
	played    atomic.Bool
	closeOnce sync.Once
}

// Open opens the WAV file at path.
func Open(path string, cfg Config) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	e, err := New(f, cfg)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.closer = f
	return e, nil
}

// New creates an engine reading from r. The caller keeps ownership of r.
func New(r io.ReadSeeker, cfg Config) (*Engine, error) {
	if cfg.BlockFrames <= 0 {
		cfg.BlockFrames = DefaultBlockFrames
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}

	af := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case bitsPerSample8, bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	format := scope.Format{SampleRate: af.SampleRate, Channels: af.NumChannels}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &Engine{
		decoder:  decoder,
		format:   format,
		bitDepth: bitDepth,
		duration: duration,
		cfg:      cfg,
		events:   make(chan scope.Event, eventBuffer),
	}, nil
}

// SetAudioCallback registers cb. It may be called at any time; a nil
// callback discards blocks.
func (e *Engine) SetAudioCallback(cb scope.AudioCallback) {
	if cb == nil {
		e.cb.Store(nil)
		return
	}
	e.cb.Store(&cb)
}

// Events returns the lifecycle event stream. It is closed by Close.
func (e *Engine) Events() <-chan scope.Event { return e.events }

// Format returns the stream format.
func (e *Engine) Format() scope.Format { return e.format }

// BitDepth returns the source sample size in bits.
func (e *Engine) BitDepth() int { return e.bitDepth }

// Duration returns the stream length, or zero when the header does not say.
func (e *Engine) Duration() time.Duration { return e.duration }

// Play decodes the stream and delivers it block by block. It sends
// EventPlaying before the first block and EventEndReached after the last.
// When ctx is cancelled first it sends EventStopped and returns ctx.Err().
// A stream can be played once.
//
// EventPlaying is buffered: unless Config.Ready is set, blocks start flowing
// before the receiver has necessarily acted on it.
func (e *Engine) Play(ctx context.Context) error {
	if !e.played.CompareAndSwap(false, true) {
		return errors.New("stream already played")
	}

	channels := e.format.Channels
	buf := &audio.IntBuffer{
		Data:   make([]int, e.cfg.BlockFrames*channels),
		Format: e.decoder.Format(),
	}
	samples := make([]int16, len(buf.Data))

	if err := e.send(ctx, scope.Event{Kind: scope.EventPlaying, Format: e.format}); err != nil {
		return err
	}
	if err := e.waitReady(ctx); err != nil {
		e.trySend(scope.Event{Kind: scope.EventStopped})
		return err
	}

	var pace <-chan time.Time
	if e.cfg.Realtime {
		period := time.Duration(e.cfg.BlockFrames) * time.Second / time.Duration(e.format.SampleRate)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		pace = ticker.C
	}

	var total int64
	for {
		select {
		case <-ctx.Done():
			e.trySend(scope.Event{Kind: scope.EventStopped})
			return ctx.Err()
		default:
		}

		buf.Data = buf.Data[:cap(buf.Data)]
		n, err := e.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("failed to read audio data: %w", err)
		}

		// n counts samples; a trailing partial frame is dropped.
		frames := min(n, len(buf.Data)) / channels
		if frames == 0 {
			break
		}
		ToInt16(samples, buf.Data[:frames*channels], e.bitDepth)

		pts := time.Duration(total) * time.Second / time.Duration(e.format.SampleRate)
		if cb := e.cb.Load(); cb != nil {
			(*cb)(samples[:frames*channels], frames, channels, e.format.SampleRate, pts)
		}
		total += int64(frames)

		if pace != nil {
			select {
			case <-ctx.Done():
				e.trySend(scope.Event{Kind: scope.EventStopped})
				return ctx.Err()
			case <-pace:
			}
		}
	}

	return e.send(ctx, scope.Event{Kind: scope.EventEndReached})
}

func (e *Engine) waitReady(ctx context.Context) error {
	if e.cfg.Ready == nil {
		return nil
	}
	for !e.cfg.Ready() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollDelay):
		}
	}
	return nil
}

func (e *Engine) send(ctx context.Context, ev scope.Event) error {
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) trySend(ev scope.Event) {
	select {
	case e.events <- ev:
	default:
	}
}

// Close closes the event stream and, for engines created by Open, the file.
// It must not be called while Play is running.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.events)
		if e.closer != nil {
			err = e.closer.Close()
		}
	})
	return err
}

// ToInt16 converts decoded samples of the given bit depth to 16-bit. Wider
// samples are truncated to their top 16 bits; 8-bit WAV data is unsigned and
// is re-centred. dst must be at least len(src) long.
func ToInt16(dst []int16, src []int, bitDepth int) {
	dst = dst[:len(src)]
	switch bitDepth {
	case bitsPerSample8:
		for i, v := range src {
			dst[i] = int16((v - unsigned8Offset) << 8)
		}
	case bitsPerSample24:
		for i, v := range src {
			dst[i] = int16(v >> 8)
		}
	case bitsPerSample32:
		for i, v := range src {
			dst[i] = int16(v >> 16)
		}
	default:
		for i, v := range src {
			dst[i] = int16(v)
		}
	}
}
