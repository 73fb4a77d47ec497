// Package ring implements the single-producer/single-consumer slot ring that
// hands mono sample blocks from the audio callback to the analysis loop.
//
// The ring never blocks and never grows. When the producer laps a consumer
// that has fallen behind, the oldest unread slot is overwritten: a bounded
// backlog of stale audio is preferred over unbounded latency, so overflow is
// counted in Stats.Dropped rather than reported as an error.
//
// Slot ownership moves only through atomic pointer swaps. The ring holds
// capacity published positions; the producer keeps one private write slot and
// the consumer one private read slot, so capacity+2 buffers exist in total and
// each is owned by exactly one side at any instant. A swap releases the
// buffer's contents to the side that receives it.
package ring

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the number of readable slots. Four absorbs scheduler
// jitter at typical driver block sizes without adding visible latency.
const DefaultCapacity = 4

// ErrInvalidSize is returned for a non-positive capacity or slot size.
var ErrInvalidSize = errors.New("ring capacity and slot size must be positive")

// Slot is a fixed-size buffer of mono samples. Only the side that currently
// owns a slot may touch it.
type Slot struct {
	// Data has the slot's full capacity; only Data[:N] is valid.
	Data []float64
	// N is the number of valid samples (the slot's actual length).
	N int
	// PTS is the presentation timestamp of the block the samples came from.
	PTS time.Duration

	seq   uint64
	ready bool
}

// Samples returns the valid portion of the slot.
func (s *Slot) Samples() []float64 {
	return s.Data[:s.N]
}

func (s *Slot) clear() {
	clear(s.Data)
	s.N = 0
	s.PTS = 0
	s.seq = 0
	s.ready = false
}

// Stats are cumulative counters, safe to read from any goroutine.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
}

// Ring is a fixed-capacity circular array of slots.
type Ring struct {
	positions []atomic.Pointer[Slot]
	capacity  uint64
	slotSize  int

	// write counts publishes. Only the producer stores it.
	write atomic.Uint64

	// producer side
	spare *Slot

	// consumer side
	read   uint64
	held   *Slot
	cspare *Slot

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// New allocates a ring of capacity readable slots, each holding slotSize samples.
func New(capacity, slotSize int) (*Ring, error) {
	if capacity < 1 || slotSize < 1 {
		return nil, fmt.Errorf("%w: capacity=%d slotSize=%d", ErrInvalidSize, capacity, slotSize)
	}

	r := &Ring{
		positions: make([]atomic.Pointer[Slot], capacity),
		capacity:  uint64(capacity),
		slotSize:  slotSize,
	}
	newSlot := func() *Slot {
		return &Slot{Data: make([]float64, slotSize)}
	}
	for i := range r.positions {
		r.positions[i].Store(newSlot())
	}
	r.spare = newSlot()
	r.cspare = newSlot()
	return r, nil
}

// Capacity returns the number of readable slots.
func (r *Ring) Capacity() int { return int(r.capacity) }

// SlotSize returns the number of samples each slot holds.
func (r *Ring) SlotSize() int { return r.slotSize }

// AcquireWriteSlot returns the slot the producer may fill. It always succeeds
// and returns the same slot until Publish is called.
//
// Producer only.
func (r *Ring) AcquireWriteSlot() *Slot {
	return r.spare
}

// Publish marks the write slot as holding n valid samples and makes it visible
// to the consumer. n is clamped to [0, SlotSize]. If the ring was full the
// oldest unread slot is recycled as the next write slot.
//
// Producer only.
func (r *Ring) Publish(n int) {
	n = max(0, min(n, r.slotSize))
	w := r.write.Load()

	s := r.spare
	s.N = n
	s.seq = w
	s.ready = true

	prev := r.positions[w%r.capacity].Swap(s)
	if prev.ready {
		r.dropped.Add(1)
	}
	prev.ready = false
	prev.N = 0
	r.spare = prev

	r.published.Add(1)
	r.write.Store(w + 1)
}

// TryAcquireReadSlot returns the oldest unread slot, or false when nothing is
// available. The slot stays owned by the consumer until ReleaseReadSlot;
// calling TryAcquireReadSlot again before that returns the same slot.
//
// Consumer only.
func (r *Ring) TryAcquireReadSlot() (*Slot, bool) {
	if r.held != nil {
		return r.held, true
	}

	w := r.write.Load()
	if r.read >= w {
		return nil, false
	}
	// Slots older than the last capacity publishes have been overwritten.
	if w-r.read > r.capacity {
		r.read = w - r.capacity
	}

	got := r.positions[r.read%r.capacity].Swap(r.cspare)
	if !got.ready || got.seq < r.read {
		// Unreachable while r.read < w; keep the buffer count intact anyway.
		r.cspare = got
		return nil, false
	}

	// The producer may have lapped us between the load and the swap, in which
	// case got is newer than r.read and everything before it is stale.
	r.read = got.seq + 1
	r.cspare = nil
	r.held = got
	r.consumed.Add(1)
	return got, true
}

// ReleaseReadSlot returns the held slot so it can be reused. It is a no-op
// when no slot is held.
//
// Consumer only.
func (r *Ring) ReleaseReadSlot() {
	if r.held == nil {
		return
	}
	r.held.ready = false
	r.held.N = 0
	r.cspare = r.held
	r.held = nil
}

// Backlog returns the number of published slots the consumer has not read.
//
// Consumer only.
func (r *Ring) Backlog() int {
	w := r.write.Load()
	return int(w - r.oldest(w))
}

// oldest returns the counter of the oldest slot still retained.
func (r *Ring) oldest(w uint64) uint64 {
	if w > r.capacity && w-r.capacity > r.read {
		return w - r.capacity
	}
	return min(r.read, w)
}

// Reset zeroes every slot and rewinds both sides. Neither the producer nor
// the consumer may be running.
func (r *Ring) Reset() {
	for i := range r.positions {
		r.positions[i].Load().clear()
	}
	if r.held != nil {
		r.cspare = r.held
		r.held = nil
	}
	r.spare.clear()
	r.cspare.clear()
	r.read = 0
	r.write.Store(0)
}

// Stats returns the cumulative counters.
func (r *Ring) Stats() Stats {
	return Stats{
		Published: r.published.Load(),
		Consumed:  r.consumed.Load(),
		Dropped:   r.dropped.Load(),
	}
}
