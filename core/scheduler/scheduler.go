// Package scheduler implements the monotonic-clock event timer wheel
// (spec.md §4.10, C11): one per participant. In this module only the
// stateful writers' periodic HEARTBEATs are scheduled on it; nack responses
// and ACKNACKs are sent immediately, without a delay. Grounded on the usage
// pattern of the teacher's TimerQueue (client2/arq.go: NewTimerQueue(callback),
// Start/Halt/Wait, Push(priority, value), Peek, Pop) — that type itself
// lives in katzenpost's core/queue package and is not vendored here, so
// this is a from-scratch container/heap-backed reimplementation of the
// same contract, built on core/worker for its goroutine lifecycle.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/quartzdds/rtps-core/core/worker"
)

// Callback is invoked, serialized with respect to every other callback on
// the same Scheduler, when an event's deadline arrives.
type Callback func(value any)

type item struct {
	deadline time.Time
	value    any
	index    int
	cancel   bool
}

type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *itemHeap) Push(x any)         { it := x.(*item); it.index = len(*h); *h = append(*h, it) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Event is a handle to a scheduled callback; Cancel prevents it from
// firing if it has not already started.
type Event struct {
	it *item
	s  *Scheduler
}

// Cancel marks the event as cancelled, so it does not fire if it has not
// started yet. The scheduler releases its lock before invoking a callback,
// so Cancel does not wait for a callback that is already running and may
// return while it is still executing.
func (e *Event) Cancel() {
	e.s.mu.Lock()
	e.it.cancel = true
	e.s.mu.Unlock()
}

// Scheduler is a single-goroutine, lock-guarded timer wheel. No two
// callbacks run concurrently on the same Scheduler.
type Scheduler struct {
	worker.Worker

	mu       sync.Mutex
	h        itemHeap
	wake     chan struct{}
	callback Callback
}

// New creates a scheduler that invokes cb for every fired event. Start must
// be called before any event will fire.
func New(cb Callback) *Scheduler {
	return &Scheduler{
		wake:     make(chan struct{}, 1),
		callback: cb,
	}
}

// Start launches the scheduler's dispatch loop.
func (s *Scheduler) Start() {
	s.Go(s.loop)
}

// Stop halts the dispatch loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.Halt()
	s.Wait()
}

// Schedule registers value to fire at deadline, returning a handle that
// can cancel it before it fires.
func (s *Scheduler) Schedule(deadline time.Time, value any) *Event {
	it := &item{deadline: deadline, value: value}
	s.mu.Lock()
	heap.Push(&s.h, it)
	s.mu.Unlock()
	s.nudge()
	return &Event{it: it, s: s}
}

// After is a convenience wrapper scheduling value to fire after d elapses.
func (s *Scheduler) After(d time.Duration, value any) *Event {
	return s.Schedule(time.Now().Add(d), value)
}

func (s *Scheduler) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var wait time.Duration
		if len(s.h) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(s.h[0].deadline)
			if wait < 0 {
				wait = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.HaltCh():
			return
		case <-s.wake:
			continue
		case <-timer.C:
			s.fireDue()
		}
	}
}

func (s *Scheduler) fireDue() {
	for {
		s.mu.Lock()
		if len(s.h) == 0 || s.h[0].deadline.After(time.Now()) {
			s.mu.Unlock()
			return
		}
		it := heap.Pop(&s.h).(*item)
		cancelled := it.cancel
		s.mu.Unlock()

		if !cancelled {
			s.callback(it.value)
		}
	}
}

// Len returns the number of events currently pending.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.h)
}
