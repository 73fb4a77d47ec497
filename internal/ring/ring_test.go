package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill writes v into the first n samples of the write slot and publishes it.
func fill(r *Ring, v float64, n int) {
	s := r.AcquireWriteSlot()
	for i := range n {
		s.Data[i] = v
	}
	s.PTS = time.Duration(v*1000) * time.Microsecond
	r.Publish(n)
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0, 16)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(4, 0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestRing_EmptyHasNothing(t *testing.T) {
	r, err := New(DefaultCapacity, 8)
	require.NoError(t, err)

	s, ok := r.TryAcquireReadSlot()
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Zero(t, r.Backlog())
}

func TestRing_PublishThenRead(t *testing.T) {
	r, err := New(DefaultCapacity, 8)
	require.NoError(t, err)

	fill(r, 0.5, 6)
	assert.Equal(t, 1, r.Backlog())

	s, ok := r.TryAcquireReadSlot()
	require.True(t, ok)
	assert.Equal(t, 6, s.N)
	assert.Len(t, s.Samples(), 6)
	for _, v := range s.Samples() {
		assert.Equal(t, 0.5, v)
	}
	assert.Equal(t, 500*time.Microsecond, s.PTS)

	// Re-acquiring before release returns the held slot.
	again, ok := r.TryAcquireReadSlot()
	require.True(t, ok)
	assert.Same(t, s, again)

	r.ReleaseReadSlot()
	_, ok = r.TryAcquireReadSlot()
	assert.False(t, ok)

	st := r.Stats()
	assert.Equal(t, uint64(1), st.Published)
	assert.Equal(t, uint64(1), st.Consumed)
	assert.Zero(t, st.Dropped)
}

func TestRing_FIFOOrder(t *testing.T) {
	r, err := New(DefaultCapacity, 4)
	require.NoError(t, err)

	for i := range 3 {
		fill(r, float64(i), 4)
	}
	for i := range 3 {
		s, ok := r.TryAcquireReadSlot()
		require.True(t, ok)
		assert.Equal(t, float64(i), s.Data[0])
		r.ReleaseReadSlot()
	}
}

func TestRing_OverflowDropsOldest(t *testing.T) {
	const (
		capacity = 4
		publish  = 11
	)
	r, err := New(capacity, 4)
	require.NoError(t, err)

	start := r.oldest(r.write.Load())
	for i := range publish {
		fill(r, float64(i), 4)
	}

	// The effective read index advanced by exactly publish-capacity.
	assert.Equal(t, uint64(publish-capacity), r.oldest(r.write.Load())-start)
	assert.Equal(t, capacity, r.Backlog())
	assert.Equal(t, uint64(publish-capacity), r.Stats().Dropped)

	// The most recent capacity publishes are all intact and in order.
	for i := publish - capacity; i < publish; i++ {
		s, ok := r.TryAcquireReadSlot()
		require.True(t, ok)
		assert.Equal(t, uint64(i), s.seq)
		for _, v := range s.Samples() {
			require.Equal(t, float64(i), v)
		}
		r.ReleaseReadSlot()
	}
	_, ok := r.TryAcquireReadSlot()
	assert.False(t, ok)
}

func TestRing_OverflowWhileHolding(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)

	fill(r, 1, 4)
	held, ok := r.TryAcquireReadSlot()
	require.True(t, ok)

	// The producer laps repeatedly while the consumer holds a slot.
	for i := 2; i < 20; i++ {
		fill(r, float64(i), 4)
	}

	// The held slot was never handed back to the producer.
	for _, v := range held.Samples() {
		assert.Equal(t, 1.0, v)
	}
	r.ReleaseReadSlot()

	for _, want := range []float64{18, 19} {
		s, ok := r.TryAcquireReadSlot()
		require.True(t, ok)
		assert.Equal(t, want, s.Data[0])
		r.ReleaseReadSlot()
	}
}

func TestRing_PublishClampsLength(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)

	r.Publish(100)
	s, ok := r.TryAcquireReadSlot()
	require.True(t, ok)
	assert.Equal(t, 4, s.N)
	r.ReleaseReadSlot()

	r.Publish(-3)
	s, ok = r.TryAcquireReadSlot()
	require.True(t, ok)
	assert.Zero(t, s.N)
	assert.Empty(t, s.Samples())
}

func TestRing_ReleaseWithoutHoldIsNoop(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)
	r.ReleaseReadSlot()
	fill(r, 1, 4)
	_, ok := r.TryAcquireReadSlot()
	assert.True(t, ok)
}

func TestRing_Reset(t *testing.T) {
	r, err := New(3, 4)
	require.NoError(t, err)

	for i := range 5 {
		fill(r, float64(i+1), 4)
	}
	_, ok := r.TryAcquireReadSlot()
	require.True(t, ok)

	r.Reset()
	assert.Zero(t, r.Backlog())
	_, ok = r.TryAcquireReadSlot()
	assert.False(t, ok)

	// Every buffer is zeroed, including the one that was held.
	for i := range r.positions {
		for _, v := range r.positions[i].Load().Data {
			assert.Zero(t, v)
		}
	}
	for _, v := range r.AcquireWriteSlot().Data {
		assert.Zero(t, v)
	}

	fill(r, 7, 2)
	s, ok := r.TryAcquireReadSlot()
	require.True(t, ok)
	assert.Equal(t, []float64{7, 7}, s.Samples())
}

// TestRing_Concurrent runs one producer and one consumer flat out. Every slot
// the consumer sees must be internally consistent and strictly newer than the
// previous one. Run with -race.
func TestRing_Concurrent(t *testing.T) {
	const (
		slotSize = 256
		total    = 20000
	)
	r, err := New(DefaultCapacity, slotSize)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := range total {
			s := r.AcquireWriteSlot()
			n := 1 + i%slotSize
			for j := range n {
				s.Data[j] = float64(i)
			}
			r.Publish(n)
		}
	}()

	last := -1.0
	seen := 0
	check := func(s *Slot) {
		require.NotZero(t, s.N)
		first := s.Data[0]
		for _, v := range s.Samples() {
			require.Equal(t, first, v, "torn slot")
		}
		require.Greater(t, first, last)
		last = first
		seen++
	}

consume:
	for {
		if s, ok := r.TryAcquireReadSlot(); ok {
			check(s)
			r.ReleaseReadSlot()
			continue
		}
		select {
		case <-done:
			break consume
		default:
		}
	}
	for {
		s, ok := r.TryAcquireReadSlot()
		if !ok {
			break
		}
		check(s)
		r.ReleaseReadSlot()
	}
	wg.Wait()

	st := r.Stats()
	assert.Equal(t, uint64(total), st.Published)
	assert.Equal(t, uint64(seen), st.Consumed)
	assert.Equal(t, float64(total-1), last, "the newest slot is never lost")
	assert.LessOrEqual(t, st.Consumed+st.Dropped, uint64(total))
}

func BenchmarkRing_PublishAcquire(b *testing.B) {
	r, err := New(DefaultCapacity, 2048)
	require.NoError(b, err)

	b.ReportAllocs()
	for b.Loop() {
		r.AcquireWriteSlot()
		r.Publish(2048)
		if _, ok := r.TryAcquireReadSlot(); ok {
			r.ReleaseReadSlot()
		}
	}
}
