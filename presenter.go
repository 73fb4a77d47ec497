package scope

import (
	"context"
	"time"

	"github.com/tphakala/go-audio-scope/internal/meter"
)

// Display is a frame prepared for drawing: levels clamped to the meter floor
// and the waveform trimmed to its valid points.
type Display struct {
	PeakDB     float64
	RMSDB      float64
	HeldPeakDB float64
	Clips      int

	// Waveform and Lower alias the pipeline's frame; they are valid until the
	// next Pull.
	Waveform []float64
	Lower    []float64

	PTS     time.Duration
	Audible bool

	// Changed is false when no new frame was published since the last Pull.
	Changed bool
}

// Presenter pulls frames from a pipeline at the presentation rate. It must be
// used from a single goroutine and never blocks the producer or the analysis
// loop.
type Presenter struct {
	p     *Pipeline
	floor float64
	rate  int
	hold  *meter.PeakHolder
	now   func() time.Time
}

// NewPresenter creates a presenter for p using p's floor, rate and peak hold.
func NewPresenter(p *Pipeline) *Presenter {
	return &Presenter{
		p:     p,
		floor: p.cfg.MeterFloor,
		rate:  p.cfg.PresentRate,
		hold:  meter.NewPeakHolder(p.cfg.PeakHold, p.cfg.MeterFloor),
		now:   time.Now,
	}
}

// Pull reads the latest frame and converts it for display.
func (pr *Presenter) Pull() Display {
	f, changed := pr.p.Latest()
	if changed && !f.Audible {
		pr.hold.Reset()
	}

	d := Display{
		PeakDB:  meter.Clamp(f.Levels.PeakDB, pr.floor),
		RMSDB:   meter.Clamp(f.Levels.RMSDB, pr.floor),
		Clips:   f.Levels.Clips,
		PTS:     f.PTS,
		Audible: f.Audible,
		Changed: changed,
	}
	d.HeldPeakDB = pr.hold.Update(f.Levels.PeakDB, pr.now())

	d.Waveform = f.Waveform[:f.Valid]
	if f.Lower != nil {
		d.Lower = f.Lower[:f.Valid]
	}
	return d
}

// Run calls fn with a fresh Display at the presentation rate until ctx is
// done.
func (pr *Presenter) Run(ctx context.Context, fn func(Display)) error {
	ticker := time.NewTicker(time.Second / time.Duration(pr.rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(pr.Pull())
		}
	}
}
