package waveform

import "fmt"

// Window is the streaming strategy: a fixed-length sliding window of the most
// recent samples. It starts full of silence, so every point is always valid.
type Window struct {
	buf []float64
	pos int // index of the oldest sample, and the next write
}

// NewWindow creates a sliding window of size samples.
func NewWindow(size int) (*Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size=%d", ErrInvalidSize, size)
	}
	return &Window{buf: make([]float64, size)}, nil
}

// Update appends block, discarding the oldest samples.
func (w *Window) Update(block []float64) {
	size := len(w.buf)
	if len(block) >= size {
		// Only the last size samples survive.
		copy(w.buf, block[len(block)-size:])
		w.pos = 0
		return
	}
	n := copy(w.buf[w.pos:], block)
	if n < len(block) {
		copy(w.buf, block[n:])
	}
	w.pos = (w.pos + len(block)) % size
}

// Append adds a single sample.
func (w *Window) Append(v float64) {
	w.buf[w.pos] = v
	w.pos++
	if w.pos == len(w.buf) {
		w.pos = 0
	}
}

// View copies the window into dst in chronological order, oldest first.
func (w *Window) View(dst []float64) int {
	n := copy(dst, w.buf[w.pos:])
	n += copy(dst[n:], w.buf[:w.pos])
	return n
}

// Size returns the window length.
func (w *Window) Size() int { return len(w.buf) }

// Reset fills the window with silence.
func (w *Window) Reset() {
	clear(w.buf)
	w.pos = 0
}
