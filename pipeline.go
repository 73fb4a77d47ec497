package scope

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tphakala/go-audio-scope/internal/meter"
	"github.com/tphakala/go-audio-scope/internal/pcm"
	"github.com/tphakala/go-audio-scope/internal/ring"
	"github.com/tphakala/go-audio-scope/internal/simdops"
	"github.com/tphakala/go-audio-scope/internal/triple"
	"github.com/tphakala/go-audio-scope/internal/waveform"
)

// State is the playback state of a pipeline.
type State int32

const (
	// StateIdle is the state before the first session starts.
	StateIdle State = iota
	// StatePlaying means audio blocks are accepted and analysed.
	StatePlaying
	// StateStopped means the last session ended; outputs show silence.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Levels is one meter reading in dBFS. Values are unclamped: silence is -Inf.
type Levels struct {
	PeakDB float64
	RMSDB  float64
	Clips  int
}

// Frame is what the presentation side draws: the latest meter reading and
// waveform view.
type Frame struct {
	Levels Levels

	// Waveform has WaveformSize points. Only Waveform[:Valid] is data; the
	// renderer should clip the x-axis there rather than draw trailing zeros.
	Waveform []float64
	Valid    int

	// Lower is the negated view when Config.Envelope is set, else nil.
	Lower []float64

	// PTS is the presentation timestamp of the newest analysed block.
	PTS time.Duration

	// Seq counts analysed slots in this session. Zero means no audio yet.
	Seq uint64

	// Audible reports whether a session was playing when the frame was made.
	Audible bool
}

func (f *Frame) silence() {
	f.Levels = Levels{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)}
	clear(f.Waveform)
	clear(f.Lower)
	f.Valid = 0
	f.PTS = 0
	f.Seq = 0
	f.Audible = false
}

// Stats are cumulative diagnostic counters.
type Stats struct {
	Published uint64 // slots published by the producer
	Consumed  uint64 // slots analysed
	Dropped   uint64 // slots overwritten before analysis (backpressure)
	Rejected  uint64 // callback blocks with an invalid shape or format
	Late      uint64 // callback blocks that arrived while inaudible
	BadEvents uint64 // engine events that could not be applied
}

type controlKind int

const (
	controlStart controlKind = iota
	controlStop
)

type controlRequest struct {
	kind   controlKind
	format Format
	done   chan error
}

// Pipeline couples the audio callback (producer) to the analysis loop
// (consumer) through a slot ring, and publishes meter readings and waveform
// views to the presentation side.
//
// Three goroutines are involved:
//
//   - the engine's audio thread calls OnAudio or Write; it never blocks or
//     allocates on the success path;
//   - Run is the analysis loop and the only mutator of the outputs;
//   - one presentation goroutine pulls with Latest (or a Presenter). Levels
//     and State may be read from any goroutine.
type Pipeline struct {
	cfg    Config
	engine Engine

	ring     *ring.Ring
	reducer  waveform.Reducer
	envelope *waveform.Chunked // non-nil when Config.Envelope is set
	frames   *triple.Buffer[Frame]

	// Producer state. Written only by the analysis loop while the producer is
	// quiesced, and published to it by the audible flag.
	format  Format
	scratch []float64

	audible  atomic.Bool
	inflight atomic.Int32
	state    atomic.Int32
	running  atomic.Bool
	finished chan struct{} // closed when Run returns

	peakBits atomic.Uint64
	rmsBits  atomic.Uint64
	clips    atomic.Int64

	rejected  atomic.Uint64
	late      atomic.Uint64
	badEvents atomic.Uint64

	seq     uint64
	control chan controlRequest
}

// New creates a pipeline bound to engine, which may be nil when blocks are
// fed through Write directly. A nil config uses DefaultConfig.
//
// The pipeline starts Idle and inaudible; a session begins with an
// EventPlaying from the engine or an explicit Start.
func New(engine Engine, config *Config) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := *config

	r, err := ring.New(cfg.RingSlots, cfg.SlotFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring: %w", err)
	}

	reducer, err := newReducer(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create waveform reducer: %w", err)
	}

	p := &Pipeline{
		cfg:     cfg,
		engine:  engine,
		ring:    r,
		reducer: reducer,
		frames: triple.New(func() Frame {
			f := Frame{Waveform: make([]float64, cfg.WaveformSize)}
			if cfg.Envelope {
				f.Lower = make([]float64, cfg.WaveformSize)
			}
			f.silence()
			return f
		}),
		format:   cfg.Format(),
		scratch:  make([]float64, cfg.SlotFrames*cfg.Channels),
		control:  make(chan controlRequest),
		finished: make(chan struct{}),
	}
	if cfg.Envelope {
		// Validate only allows an envelope in chunked mode.
		p.envelope, _ = reducer.(*waveform.Chunked)
	}
	p.storeLevels(Levels{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)})
	p.state.Store(int32(StateIdle))

	if engine != nil {
		engine.SetAudioCallback(p.OnAudio)
	}
	return p, nil
}

func newReducer(cfg *Config) (waveform.Reducer, error) {
	if cfg.WaveformMode == WaveformStreaming {
		return waveform.NewWindow(cfg.WaveformSize)
	}
	stat := waveform.StatRMS
	if cfg.WaveformPeak {
		stat = waveform.StatPeak
	}
	return waveform.NewChunked(cfg.WaveformSize, stat)
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// State returns the current playback state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// Audible reports whether blocks are currently accepted.
func (p *Pipeline) Audible() bool { return p.audible.Load() }

// SIMDInfo describes the vector instruction sets used by the analysis kernels.
func (p *Pipeline) SIMDInfo() string { return simdops.Info() }

// OnAudio is the engine callback. It slices samples to frameCount frames and
// forwards to Write; errors are counted in Stats.Rejected instead of being
// returned, since nothing on the audio thread can act on them.
func (p *Pipeline) OnAudio(samples []int16, frameCount, channels, sampleRate int, pts time.Duration) {
	if frameCount <= 0 || samples == nil {
		return
	}
	if channels < monoChannels || frameCount*channels > len(samples) {
		p.rejected.Add(1)
		return
	}
	if err := p.Write(samples[:frameCount*channels], channels, sampleRate, pts); err != nil {
		p.rejected.Add(1)
	}
}

// Write feeds one interleaved block from the producer thread. An empty block
// is a no-op, as is any block that arrives while no session is audible.
// A block whose length is not a multiple of channels, or whose channel count
// differs from the session, is rejected with ErrShape or ErrFormatMismatch.
//
// Write must only be called from one goroutine at a time.
func (p *Pipeline) Write(samples []int16, channels, sampleRate int, pts time.Duration) error {
	if len(samples) == 0 {
		return nil
	}

	// Announce first, then check: a concurrent quiesce either sees us in
	// flight or we see the flag already cleared.
	p.inflight.Add(1)
	defer p.inflight.Add(-1)
	if !p.audible.Load() {
		p.late.Add(1)
		return nil
	}

	frames, err := pcm.Frames(len(samples), channels)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShape, err)
	}
	if channels != p.format.Channels {
		return fmt.Errorf("%w: got %d channels, session has %d", ErrFormatMismatch, channels, p.format.Channels)
	}
	if sampleRate <= 0 {
		sampleRate = p.format.SampleRate
	}

	slotFrames := p.ring.SlotSize()
	for off := 0; off < frames; off += slotFrames {
		n := min(slotFrames, frames-off)
		block := samples[off*channels : (off+n)*channels]

		converted, err := pcm.ConvertS16(p.scratch, block)
		if err != nil {
			return err
		}
		slot := p.ring.AcquireWriteSlot()
		mono, err := pcm.Downmix(slot.Data, p.scratch[:converted], channels)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrShape, err)
		}
		slot.PTS = pts + time.Duration(off)*time.Second/time.Duration(sampleRate)
		p.ring.Publish(mono)
	}
	return nil
}

// Levels returns the latest unclamped meter reading. Safe from any goroutine.
// The fields are loaded one at a time, so under load PeakDB and RMSDB can come
// from consecutive slots; callers that need a consistent pair use Latest.
func (p *Pipeline) Levels() Levels {
	return Levels{
		PeakDB: math.Float64frombits(p.peakBits.Load()),
		RMSDB:  math.Float64frombits(p.rmsBits.Load()),
		Clips:  int(p.clips.Load()),
	}
}

func (p *Pipeline) storeLevels(l Levels) {
	p.peakBits.Store(math.Float64bits(l.PeakDB))
	p.rmsBits.Store(math.Float64bits(l.RMSDB))
	p.clips.Store(int64(l.Clips))
}

// Latest returns the newest published frame and whether it changed since the
// previous call. The frame belongs to the caller until the next call.
//
// Latest must be called from a single presentation goroutine.
func (p *Pipeline) Latest() (*Frame, bool) {
	return p.frames.Latest()
}

// Stats returns the diagnostic counters.
func (p *Pipeline) Stats() Stats {
	rs := p.ring.Stats()
	return Stats{
		Published: rs.Published,
		Consumed:  rs.Consumed,
		Dropped:   rs.Dropped,
		Rejected:  p.rejected.Load(),
		Late:      p.late.Load(),
		BadEvents: p.badEvents.Load(),
	}
}

// Run is the analysis loop. It polls the ring, analyses every ready slot,
// applies lifecycle events from the engine and control requests from Start
// and Stop, and returns when ctx is done. On return the session is stopped
// and outputs are cleared to silence.
//
// Run may be called once; later calls return ErrAlreadyRunning.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.finished)

	var events <-chan Event
	if p.engine != nil {
		events = p.engine.Events()
	}

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.stop()
			return ctx.Err()
		case req := <-p.control:
			req.done <- p.apply(req)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := p.handleEvent(ev); err != nil {
				p.badEvents.Add(1)
			}
		case <-ticker.C:
			p.drain()
		}
	}
}

// Start begins a new session with format. Outputs are cleared to silence
// before blocks are accepted again. The request is served by Run: Start waits
// for the loop to pick it up, and returns ErrNotRunning once Run has returned.
func (p *Pipeline) Start(ctx context.Context, format Format) error {
	return p.request(ctx, controlRequest{kind: controlStart, format: format})
}

// Stop ends the session: the callback becomes a no-op and outputs are
// cleared to silence. It is served by Run the same way as Start.
func (p *Pipeline) Stop(ctx context.Context) error {
	return p.request(ctx, controlRequest{kind: controlStop})
}

func (p *Pipeline) request(ctx context.Context, req controlRequest) error {
	req.done = make(chan error, 1)
	select {
	case p.control <- req:
	case <-p.finished:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) apply(req controlRequest) error {
	switch req.kind {
	case controlStart:
		return p.start(req.format)
	default:
		p.stop()
		return nil
	}
}

func (p *Pipeline) handleEvent(ev Event) error {
	switch ev.Kind {
	case EventPlaying:
		// A track we cannot follow must not leave the previous one on screen.
		if err := p.start(ev.Format); err != nil {
			p.stop()
			return err
		}
		return nil
	case EventStopped, EventEndReached:
		p.stop()
		return nil
	default:
		return fmt.Errorf("unknown engine event %v", ev.Kind)
	}
}

// start runs on the analysis goroutine. Order matters: silence the producer,
// reconfigure, clear every buffer, and only then mark the session audible.
func (p *Pipeline) start(format Format) error {
	if format.SampleRate == 0 {
		format.SampleRate = p.format.SampleRate
	}
	if err := format.Validate(); err != nil {
		return err
	}

	p.audible.Store(false)
	p.quiesce()

	if need := p.cfg.SlotFrames * format.Channels; len(p.scratch) != need {
		p.scratch = make([]float64, need)
	}
	p.format = format
	p.reset()

	p.state.Store(int32(StatePlaying))
	p.audible.Store(true)
	return nil
}

func (p *Pipeline) stop() {
	p.audible.Store(false)
	p.quiesce()
	p.reset()
	if p.State() != StateIdle {
		p.state.Store(int32(StateStopped))
	}
}

// quiesce waits for a producer call that passed the audible check to return.
// Calls are bounded by one block, so the wait is short.
func (p *Pipeline) quiesce() {
	for p.inflight.Load() != 0 {
		runtime.Gosched()
		time.Sleep(quiescePollDelay)
	}
}

// reset clears the ring, the reducer and the published outputs. The producer
// must be quiesced.
func (p *Pipeline) reset() {
	p.ring.Reset()
	p.reducer.Reset()
	p.seq = 0

	silent := Levels{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)}
	p.storeLevels(silent)

	f := p.frames.Back()
	f.silence()
	p.frames.Publish()
}

// drain analyses ready slots. It handles at most one ring's worth per call so
// a producer outpacing the loop cannot starve control requests.
func (p *Pipeline) drain() int {
	if !p.audible.Load() {
		return 0
	}
	n := 0
	for range p.ring.Capacity() + 1 {
		slot, ok := p.ring.TryAcquireReadSlot()
		if !ok {
			break
		}
		p.analyse(slot)
		p.ring.ReleaseReadSlot()
		n++
	}
	return n
}

func (p *Pipeline) analyse(slot *ring.Slot) {
	samples := slot.Samples()
	reading := meter.Calculate(samples)
	p.reducer.Update(samples)
	p.seq++

	levels := Levels{PeakDB: reading.PeakDB, RMSDB: reading.RMSDB, Clips: reading.Clips}
	p.storeLevels(levels)

	f := p.frames.Back()
	f.Levels = levels
	if p.envelope != nil {
		f.Valid = p.envelope.Envelope(f.Waveform, f.Lower)
	} else {
		f.Valid = p.reducer.View(f.Waveform)
	}
	f.PTS = slot.PTS
	f.Seq = p.seq
	f.Audible = true
	p.frames.Publish()
}
