package waveform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-scope/internal/testutil"
)

func TestChunkBounds_TenIntoFour(t *testing.T) {
	want := [][2]int{{0, 3}, {3, 6}, {6, 8}, {8, 10}}
	for i, w := range want {
		start, end := ChunkBounds(10, 4, i)
		assert.Equal(t, w[0], start, "chunk %d start", i)
		assert.Equal(t, w[1], end, "chunk %d end", i)
	}
}

func TestChunkBounds_Partition(t *testing.T) {
	for n := 0; n <= 64; n++ {
		for k := 1; k <= 20; k++ {
			ceil := (n + k - 1) / k
			prev := 0
			for i := range k {
				start, end := ChunkBounds(n, k, i)
				require.Equal(t, prev, start, "n=%d k=%d i=%d contiguous", n, k, i)
				require.LessOrEqual(t, end, n, "n=%d k=%d i=%d in bounds", n, k, i)
				require.LessOrEqual(t, end-start, ceil)
				prev = end
			}
			require.Equal(t, n, prev, "n=%d k=%d covers block", n, k)
		}
	}
}

func TestReduce_ChunkRMS(t *testing.T) {
	src := []float64{1, 1, 1, -0.5, -0.5, -0.5, 0.25, -0.25, 0, 0}
	dst := make([]float64, 4)

	valid := Reduce(dst, src)
	assert.Equal(t, 4, valid)
	assert.InDelta(t, 1.0, dst[0], testutil.DefaultTolerance)
	assert.InDelta(t, 0.5, dst[1], testutil.DefaultTolerance)
	assert.InDelta(t, 0.25, dst[2], testutil.DefaultTolerance)
	assert.Zero(t, dst[3])
}

func TestReduce_ShortBlockEmitsZeros(t *testing.T) {
	dst := []float64{9, 9, 9, 9, 9}
	valid := Reduce(dst, []float64{0.5, -0.5, 0.5})

	assert.Equal(t, 3, valid)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0, 0}, dst)
	testutil.AssertNoNaN(t, dst)
}

func TestReduce_EmptyBlock(t *testing.T) {
	dst := []float64{1, 1}
	assert.Zero(t, Reduce(dst, nil))
	assert.Equal(t, []float64{0, 0}, dst)
	assert.Zero(t, Reduce(nil, []float64{1}))
}

func TestReducePeak(t *testing.T) {
	src := []float64{0.1, -0.9, 0.2, 0.3, 0.4, -0.1}
	dst := make([]float64, 2)
	valid := ReducePeak(dst, src)
	assert.Equal(t, 2, valid)
	assert.InDelta(t, 0.9, dst[0], testutil.DefaultTolerance)
	assert.InDelta(t, 0.4, dst[1], testutil.DefaultTolerance)
}

func TestChunked_Envelope(t *testing.T) {
	c, err := NewChunked(10, StatRMS)
	require.NoError(t, err)
	upper := make([]float64, 10)
	lower := make([]float64, 10)

	c.Update(testutil.Constant(100, 0.5))
	valid := c.Envelope(upper, lower)
	assert.Equal(t, 10, valid)
	testutil.AssertAllNear(t, upper, 0.5, testutil.DefaultTolerance)
	testutil.AssertAllNear(t, lower, -0.5, testutil.DefaultTolerance)
}

func TestChunked_Peak(t *testing.T) {
	c, err := NewChunked(2, StatPeak)
	require.NoError(t, err)
	dst := make([]float64, 2)

	c.Update([]float64{0.1, -0.9, 0.2, 0.3, 0.4, -0.1})
	assert.Equal(t, 2, c.View(dst))
	assert.InDelta(t, 0.9, dst[0], testutil.DefaultTolerance)
	assert.InDelta(t, 0.4, dst[1], testutil.DefaultTolerance)
}

func TestChunked(t *testing.T) {
	c, err := NewChunked(4, StatRMS)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Size())

	dst := make([]float64, 4)
	assert.Zero(t, c.View(dst), "fresh reducer has no valid data")

	c.Update(testutil.Constant(2048, 0.25))
	assert.Equal(t, 4, c.View(dst))
	testutil.AssertAllNear(t, dst, 0.25, testutil.DefaultTolerance)

	// Each update replaces the view.
	c.Update([]float64{1, 1})
	assert.Equal(t, 2, c.View(dst))
	assert.Equal(t, []float64{1, 1, 0, 0}, dst)

	c.Reset()
	assert.Zero(t, c.View(dst))
	assert.Equal(t, []float64{0, 0, 0, 0}, dst)

	_, err = NewChunked(0, StatRMS)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestWindow_Scrolls(t *testing.T) {
	w, err := NewWindow(5)
	require.NoError(t, err)
	dst := make([]float64, 5)

	assert.Equal(t, 5, w.View(dst))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, dst)

	w.Update([]float64{1, 2, 3})
	w.View(dst)
	assert.Equal(t, []float64{0, 0, 1, 2, 3}, dst)

	w.Update([]float64{4, 5, 6})
	w.View(dst)
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, dst)

	w.Append(7)
	w.View(dst)
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, dst)
}

func TestWindow_LongBlockKeepsTail(t *testing.T) {
	w, err := NewWindow(4)
	require.NoError(t, err)
	w.Update([]float64{1})

	block := make([]float64, 10)
	for i := range block {
		block[i] = float64(i)
	}
	w.Update(block)

	dst := make([]float64, 4)
	w.View(dst)
	assert.Equal(t, []float64{6, 7, 8, 9}, dst)

	w.Reset()
	w.View(dst)
	assert.Equal(t, []float64{0, 0, 0, 0}, dst)

	_, err = NewWindow(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestWindow_MatchesNaiveSlide(t *testing.T) {
	const size = 37
	w, err := NewWindow(size)
	require.NoError(t, err)
	naive := make([]float64, size)

	v := 0.0
	for blockLen := 1; blockLen < 90; blockLen += 7 {
		block := make([]float64, blockLen)
		for i := range block {
			v++
			block[i] = math.Sin(v)
		}
		w.Update(block)
		naive = append(naive, block...)
		naive = naive[len(naive)-size:]

		dst := make([]float64, size)
		w.View(dst)
		require.Equal(t, naive, dst, "after block of %d", blockLen)
	}
}

func TestReducerInterface(t *testing.T) {
	var _ Reducer = (*Window)(nil)
	var _ Reducer = (*Chunked)(nil)
	assert.Equal(t, "rms", StatRMS.String())
	assert.Equal(t, "peak", StatPeak.String())
}
