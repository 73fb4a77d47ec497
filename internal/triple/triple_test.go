package triple

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	n    int
	data []int
}

func newFrame() frame { return frame{data: make([]int, 64)} }

func TestBuffer_InitialValue(t *testing.T) {
	b := New(newFrame)
	v, changed := b.Latest()
	assert.False(t, changed)
	assert.Zero(t, v.n)
	assert.Len(t, v.data, 64)
}

func TestBuffer_LatestWins(t *testing.T) {
	b := New(newFrame)
	for i := 1; i <= 5; i++ {
		b.Back().n = i
		b.Publish()
	}

	v, changed := b.Latest()
	require.True(t, changed)
	assert.Equal(t, 5, v.n)

	v, changed = b.Latest()
	assert.False(t, changed)
	assert.Equal(t, 5, v.n, "value is stable between publishes")
	assert.Equal(t, uint64(5), b.Published())
}

func TestBuffer_Alternating(t *testing.T) {
	b := New(newFrame)
	for i := 1; i <= 10; i++ {
		b.Back().n = i
		b.Publish()
		v, changed := b.Latest()
		require.True(t, changed)
		require.Equal(t, i, v.n)
	}
}

// TestBuffer_Concurrent checks that the reader never observes a torn value
// and that values only move forward. Run with -race.
func TestBuffer_Concurrent(t *testing.T) {
	const total = 50000
	b := New(newFrame)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= total; i++ {
			f := b.Back()
			f.n = i
			for j := range f.data {
				f.data[j] = i
			}
			b.Publish()
		}
	}()

	last := 0
	for last < total {
		v, changed := b.Latest()
		if !changed {
			continue
		}
		for _, d := range v.data {
			require.Equal(t, v.n, d, "torn frame")
		}
		require.Greater(t, v.n, last)
		last = v.n
	}
	wg.Wait()
}
