package waveform

import "fmt"

// Chunked is the snapshot strategy: each update replaces the view with the
// K-chunk reduction of the latest block.
type Chunked struct {
	points []float64
	valid  int
	stat   Statistic
}

// NewChunked creates a chunked reducer with k points.
func NewChunked(k int, stat Statistic) (*Chunked, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidSize, k)
	}
	return &Chunked{points: make([]float64, k), stat: stat}, nil
}

// Update recomputes the view from block.
func (c *Chunked) Update(block []float64) {
	if c.stat == StatPeak {
		c.valid = ReducePeak(c.points, block)
		return
	}
	c.valid = Reduce(c.points, block)
}

// View copies the points into dst and returns the valid count.
func (c *Chunked) View(dst []float64) int {
	copy(dst, c.points)
	return min(c.valid, len(dst))
}

// Envelope writes the view into upper and its negation into lower, giving a
// symmetric envelope, and returns the valid count.
func (c *Chunked) Envelope(upper, lower []float64) int {
	valid := c.View(upper)
	Negate(lower, upper)
	return valid
}

// Size returns K.
func (c *Chunked) Size() int { return len(c.points) }

// Reset zeroes the view.
func (c *Chunked) Reset() {
	clear(c.points)
	c.valid = 0
}
