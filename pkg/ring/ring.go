// Package ring provides a fixed-capacity ring that evicts its oldest entry
// when full. It backs bounded diagnostic logs for long-running streams, where
// dropping the oldest entries is the deliberate backpressure choice.
package ring

import "sync"

// Ring is a thread-safe fixed-capacity ring. Add never blocks: when the ring
// is full the oldest entry is overwritten.
type Ring[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
	dropped    int64
}

// N creates a Ring with the given capacity. Capacity must be positive.
func N[T any](size int) *Ring[T] {
	if size <= 0 {
		size = 1
	}
	return &Ring[T]{buf: make([]T, size)}
}

// Add appends v, evicting the oldest entry if the ring is full.
func (r *Ring[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
		r.dropped++
	}
}

// Len returns the number of entries currently held.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// Cap returns the ring's capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Dropped returns how many entries have been evicted since creation or the
// last Reset.
func (r *Ring[T]) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Items returns a copy of the held entries, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.tail - r.head)
	out := make([]T, 0, n)
	for i := r.head; i < r.tail; i++ {
		out = append(out, r.buf[i%int64(len(r.buf))])
	}
	return out
}

// Reset discards all entries and clears the dropped counter.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.tail = 0
	r.dropped = 0
}
