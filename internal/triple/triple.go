// Package triple provides a lock-free triple buffer for publishing the latest
// value from one writer goroutine to one reader goroutine.
//
// The writer fills its back buffer and publishes it by swapping it with the
// shared middle buffer; the reader picks up the middle buffer only when it
// holds something newer than what the reader already has. Older values are
// overwritten, never queued. Neither side ever waits for the other.
package triple

import "sync/atomic"

type entry[T any] struct {
	seq uint64
	val T
}

// Buffer is a single-writer, single-reader latest-value cell.
type Buffer[T any] struct {
	middle    atomic.Pointer[entry[T]]
	published atomic.Uint64

	// writer side
	back *entry[T]
	seq  uint64

	// reader side
	front *entry[T]
}

// New creates a triple buffer whose three values are produced by alloc.
func New[T any](alloc func() T) *Buffer[T] {
	b := &Buffer[T]{
		back:  &entry[T]{val: alloc()},
		front: &entry[T]{val: alloc()},
	}
	b.middle.Store(&entry[T]{val: alloc()})
	return b
}

// Back returns the value the writer may fill. It stays valid until Publish.
//
// Writer only.
func (b *Buffer[T]) Back() *T {
	return &b.back.val
}

// Publish makes the back value visible to the reader and hands the writer a
// recycled buffer, which may hold any earlier value.
//
// Writer only.
func (b *Buffer[T]) Publish() {
	b.seq++
	b.back.seq = b.seq
	b.back = b.middle.Swap(b.back)
	b.published.Store(b.seq)
}

// Latest returns the newest published value and whether it changed since the
// previous call. The returned value is owned by the reader until the next call.
//
// Reader only.
func (b *Buffer[T]) Latest() (*T, bool) {
	if b.published.Load() <= b.front.seq {
		return &b.front.val, false
	}
	b.front = b.middle.Swap(b.front)
	return &b.front.val, true
}

// Published returns how many values have been published.
func (b *Buffer[T]) Published() uint64 {
	return b.published.Load()
}
