// Package queue provides a bounded producer/consumer queue used to stage
// events between goroutines.
package queue

import "sync"

// Bounded is a fixed-capacity FIFO safe for any number of producers and
// consumers. Producers block while it is full, consumers while it is empty.
// The ring indices and the length change together under one lock.
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  sync.Cond
	notEmpty sync.Cond

	items  []T
	head   int
	length int
	closed bool
}

// NewBounded creates a queue holding at most capacity items.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}

	q := &Bounded[T]{items: make([]T, capacity)}
	q.notFull.L = &q.mu
	q.notEmpty.L = &q.mu

	return q
}

// Push appends an item, waiting for space. It returns false if the queue
// was closed before the item could be added.
func (q *Bounded[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.length == len(q.items) && !q.closed {
		q.notFull.Wait()
	}

	if q.closed {
		return false
	}

	q.put(item)

	return true
}

// TryPush appends an item if there is space.
func (q *Bounded[T]) TryPush(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.length == len(q.items) {
		return false
	}

	q.put(item)

	return true
}

func (q *Bounded[T]) put(item T) {
	q.items[(q.head+q.length)%len(q.items)] = item
	q.length++
	q.notEmpty.Signal()
}

// Pop removes the oldest item, waiting for one to arrive. It returns false
// once the queue is closed and empty.
func (q *Bounded[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.length == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.length == 0 {
		var zero T
		return zero, false
	}

	return q.take(), true
}

// TryPop removes the oldest item if there is one.
func (q *Bounded[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.length == 0 {
		var zero T
		return zero, false
	}

	return q.take(), true
}

func (q *Bounded[T]) take() T {
	var zero T

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.length--
	q.notFull.Signal()

	return item
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.length
}

// Cap returns the capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// Close stops the queue. Pending items can still be popped; pushes fail and
// every blocked goroutine wakes up.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}
