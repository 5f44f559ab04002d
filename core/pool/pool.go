// Package pool implements the bump-allocator-style reuse pool behind the
// CacheChange pool (spec.md §4.2) in core/history. Submessage scratch
// buffers are not pooled: senders allocate a fresh wire.Buffer for each
// submessage body. Records are addressed by a stable Handle (an arena
// index plus a generation counter) rather than a raw pointer or reference,
// per spec.md §9's design note on eliminating the source's raw
// back-references: removal invalidates the handle by bumping its slot's
// generation.
package pool

import (
	"sync"

	"github.com/quartzdds/rtps-core/core/rtpserr"
)

// Handle is a stable reference into a Pool's arena. The zero Handle is
// never issued by Reserve.
type Handle struct {
	index      int
	generation uint32
}

// Valid reports whether h could plausibly have been issued (index >= 0).
func (h Handle) Valid() bool { return h.index >= 0 }

type slot[T any] struct {
	value      T
	generation uint32
	inUse      bool
}

// Pool is a fixed-max-size, growable arena of T records. Reserve returns
// the next free record without per-call allocation once the arena has
// grown to demand; Release returns a record to the free list after
// resetting it via the pool's reset function.
type Pool[T any] struct {
	mu       sync.Mutex
	slots    []slot[T]
	free     []int
	max      int
	resetFn  func(*T)
}

// New creates a pool that grows lazily up to max records. reset, if
// non-nil, is invoked on a record just before it is reused by Reserve and
// just after Release (so a record taken out is always clean).
func New[T any](max int, reset func(*T)) *Pool[T] {
	return &Pool[T]{max: max, resetFn: reset}
}

// Reserve returns the next free record, growing the arena when empty up to
// the configured maximum. It returns ErrPoolExhausted when the arena is at
// capacity and every record is in use.
func (p *Pool[T]) Reserve() (Handle, *T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		if p.max > 0 && len(p.slots) >= p.max {
			return Handle{index: -1}, nil, rtpserr.ErrPoolExhausted
		}
		p.slots = append(p.slots, slot[T]{generation: 1})
		p.free = append(p.free, len(p.slots)-1)
	}

	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	s := &p.slots[idx]
	s.inUse = true
	if p.resetFn != nil {
		p.resetFn(&s.value)
	}
	return Handle{index: idx, generation: s.generation}, &s.value, nil
}

// Release returns h's record to the free list. It is a programmer error
// (returns ErrNotOwned) to release a handle that the pool did not hand out
// or that has already been released.
func (p *Pool[T]) Release(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.index < 0 || h.index >= len(p.slots) {
		return rtpserr.ErrNotOwned
	}
	s := &p.slots[h.index]
	if !s.inUse || s.generation != h.generation {
		return rtpserr.ErrNotOwned
	}
	if p.resetFn != nil {
		p.resetFn(&s.value)
	}
	s.inUse = false
	s.generation++
	p.free = append(p.free, h.index)
	return nil
}

// Get dereferences h, returning (nil, false) if h is stale or unknown.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.index < 0 || h.index >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.index]
	if !s.inUse || s.generation != h.generation {
		return nil, false
	}
	return &s.value, true
}

// Len returns the number of currently-reserved records.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots) - len(p.free)
}
