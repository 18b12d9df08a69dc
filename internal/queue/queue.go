// Package queue provides the bounded blocking queue behind the
// asynchronous logging pipeline.
package queue

import (
	"sync"
	"time"
)

// Queue is a fixed-capacity FIFO ring safe for concurrent use by
// multiple producers and multiple consumers.
//
// Synchronization is one mutex with two condition variables
// (not-empty, not-full). Intentionally coarse: log calls arrive far
// below memory bandwidth, and a single lock keeps the blocking,
// dropping and timed paths easy to reason about. Nothing holds the
// lock across I/O; callers dispatch dequeued items after the lock is
// released.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items []T
	head  int // index of the oldest item
	count int

	overrun uint64 // items evicted by EnqueueNowait
}

// New creates a queue holding at most capacity items.
// Capacity must be positive; callers validate before construction.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("queue: capacity must be positive")
	}
	q := &Queue[T]{items: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Enqueue inserts item, blocking while the queue is full. Items are
// dequeued in insertion order; Enqueue never drops.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	for q.count == len(q.items) {
		q.notFull.Wait()
	}
	q.push(item)
	q.notEmpty.Signal()
	q.mu.Unlock()
}

// EnqueueNowait inserts item without ever blocking. If the queue is
// full, the oldest resident item is evicted to make room and the
// overrun counter is incremented. Surviving items keep their relative
// order.
func (q *Queue[T]) EnqueueNowait(item T) {
	q.mu.Lock()
	if q.count == len(q.items) {
		var zero T
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
		q.count--
		q.overrun++
	}
	q.push(item)
	q.notEmpty.Signal()
	q.mu.Unlock()
}

// EnqueueFor inserts item once space is available, waiting at most
// timeout. It reports whether the item was inserted.
func (q *Queue[T]) EnqueueFor(item T, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	q.mu.Lock()
	for q.count == len(q.items) {
		if !q.timedWait(q.notFull, deadline) {
			q.mu.Unlock()
			return false
		}
	}
	q.push(item)
	q.notEmpty.Signal()
	q.mu.Unlock()
	return true
}

// DequeueFor removes and returns the oldest item, waiting at most
// timeout while the queue is empty. ok is false on timeout; the
// caller decides whether an empty poll means idle or shutting down.
func (q *Queue[T]) DequeueFor(timeout time.Duration) (item T, ok bool) {
	deadline := time.Now().Add(timeout)
	q.mu.Lock()
	for q.count == 0 {
		if !q.timedWait(q.notEmpty, deadline) {
			q.mu.Unlock()
			return item, false
		}
	}
	item = q.items[q.head]
	// Clear the slot so anything the item references is released as
	// soon as dispatch finishes, not when the slot is overwritten.
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.notFull.Signal()
	q.mu.Unlock()
	return item, true
}

// Len reports the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	n := q.count
	q.mu.Unlock()
	return n
}

// Cap reports the fixed capacity.
func (q *Queue[T]) Cap() int {
	return len(q.items)
}

// OverrunCount reports the total number of items evicted by
// EnqueueNowait. The counter only ever increases, except through
// ResetOverrunCount.
func (q *Queue[T]) OverrunCount() uint64 {
	q.mu.Lock()
	n := q.overrun
	q.mu.Unlock()
	return n
}

// ResetOverrunCount zeroes the overrun counter.
func (q *Queue[T]) ResetOverrunCount() {
	q.mu.Lock()
	q.overrun = 0
	q.mu.Unlock()
}

// push appends item at the tail. The caller holds q.mu and has
// verified there is room.
func (q *Queue[T]) push(item T) {
	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
}

// timedWait waits on c until a signal or the deadline. It is called
// with q.mu held and returns with it held; false means the deadline
// has passed. sync.Cond has no native timed wait, so a timer
// broadcasts at the deadline and waiters re-check their predicate.
func (q *Queue[T]) timedWait(c *sync.Cond, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	wake := time.AfterFunc(remaining, func() {
		// Taking the lock orders the broadcast after the waiter is
		// parked inside Wait, so the wakeup cannot be lost.
		q.mu.Lock()
		c.Broadcast()
		q.mu.Unlock()
	})
	c.Wait()
	wake.Stop()
	return true
}
