// File: queue/queue.go
// Package queue implements the bounded, blocking work-item queue (C3)
// used for both the request queue (reactor -> workers) and the
// response queue (workers -> reactor). It wraps github.com/eapache/queue
// (a growable ring-buffer FIFO) with the mutex + two condvars +
// lifecycle-state discipline a bare channel cannot express: a closed
// channel cannot be un-closed for a later Halted state, and Len/Empty
// introspection is needed for backpressure tests.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package queue

import (
	"sync"

	"github.com/eapache/queue"
)

// State is the queue's lifecycle state.
type State int

const (
	Running State = iota
	Halting
	Halted
)

// Queue is a bounded, blocking FIFO safe for multiple producers and
// multiple consumers. Push blocks while full and Running; Pop blocks
// while empty and Running. Transitioning to Halting broadcasts both
// condvars so all waiters return immediately.
type Queue struct {
	name     string
	capacity int

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	ring     *queue.Queue
	state    State
}

// New creates a Queue named name with the given bounded capacity.
func New(name string, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{
		name:     name,
		capacity: capacity,
		ring:     queue.New(),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue's diagnostic name (e.g. "request", "response").
func (q *Queue) Name() string { return q.name }

// Push enqueues item, blocking while the queue is full and Running. If
// the queue is not Running (Halting or Halted), the item is dropped
// without blocking and Push returns false so the caller can release
// any pooled resources the item owns.
func (q *Queue) Push(item any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.ring.Length() >= q.capacity && q.state == Running {
		q.notFull.Wait()
	}
	if q.state != Running {
		return false
	}
	q.ring.Add(item)
	q.notEmpty.Signal()
	return true
}

// Pop removes and returns the head item, blocking while the queue is
// empty and Running. It returns (nil, false) once the queue transitions
// to Halting with nothing left to drain that call can observe.
func (q *Queue) Pop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.ring.Length() == 0 && q.state == Running {
		q.notEmpty.Wait()
	}
	if q.ring.Length() == 0 || q.state == Halted {
		return nil, false
	}
	item := q.ring.Peek()
	q.ring.Remove()
	q.notFull.Signal()
	return item, true
}

// Empty reports whether the queue currently holds no items.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length() == 0
}

// Len returns the current number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// Halt transitions the queue to Halting, waking every blocked Push and
// Pop call. Idempotent: a second call after Halting/Halted is a no-op.
func (q *Queue) Halt() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != Running {
		return
	}
	q.state = Halting
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// MarkHalted finalizes the shutdown once all consumers have observed
// Halting and exited. After this call Pop always returns (nil, false)
// and Push always drops its item.
func (q *Queue) MarkHalted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = Halted
}

// State reports the current lifecycle state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}
