package meter

import "time"

// DefaultPeakHold is how long a peak is held before it may fall.
const DefaultPeakHold = 1500 * time.Millisecond

// PeakHolder tracks the held peak for a meter display. It is owned by the
// presentation side and is not safe for concurrent use.
type PeakHolder struct {
	hold     time.Duration
	floor    float64
	held     float64
	heldTime time.Time
}

// NewPeakHolder creates a peak holder that starts at floor.
func NewPeakHolder(hold time.Duration, floor float64) *PeakHolder {
	return &PeakHolder{
		hold:  hold,
		floor: floor,
		held:  floor,
	}
}

// Update feeds the current peak in dBFS and returns the held peak, clamped to
// the floor. A new peak replaces the held one when it is at least as loud or
// the hold time has expired.
func (p *PeakHolder) Update(peakDB float64, now time.Time) float64 {
	peakDB = Clamp(peakDB, p.floor)
	if p.hold <= 0 || peakDB >= p.held || now.Sub(p.heldTime) > p.hold {
		p.held = peakDB
		p.heldTime = now
	}
	return p.held
}

// Reset drops the held peak back to the floor.
func (p *PeakHolder) Reset() {
	p.held = p.floor
	p.heldTime = time.Time{}
}
