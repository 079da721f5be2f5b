package fifoqueue

import (
	"fmt"
	mathbits "math/bits"
	"sync"

	"github.com/ef-ds/deque"
)

// FifoQueue is a concurrency-safe FIFO queue with an optional capacity and
// length observer. Elements pushed beyond capacity are rejected.
// Any number of producers may Push concurrently; elements are popped in the
// order their Push calls acquired the queue lock.
type FifoQueue[T any] struct {
	mu             sync.Mutex
	queue          deque.Deque
	maxCapacity    int
	lengthObserver QueueLengthObserver
}

// ConstructorOption configures a FifoQueue.
type ConstructorOption func(*config) error

// QueueLengthObserver is called with the new length whenever it changes.
// Must be non-blocking.
type QueueLengthObserver func(int)

type config struct {
	maxCapacity    int
	lengthObserver QueueLengthObserver
}

// WithCapacity limits the number of elements the queue holds.
func WithCapacity(capacity int) ConstructorOption {
	return func(c *config) error {
		if capacity < 1 {
			return fmt.Errorf("capacity for fifo queue must be positive, got %d", capacity)
		}
		c.maxCapacity = capacity
		return nil
	}
}

// WithLengthObserver registers a callback for length changes.
func WithLengthObserver(callback QueueLengthObserver) ConstructorOption {
	return func(c *config) error {
		if callback == nil {
			return fmt.Errorf("nil is not a valid QueueLengthObserver")
		}
		c.lengthObserver = callback
		return nil
	}
}

// NewFifoQueue creates a queue. Without WithCapacity the capacity is the
// largest platform int.
func NewFifoQueue[T any](options ...ConstructorOption) (*FifoQueue[T], error) {
	cfg := config{
		maxCapacity:    1<<(mathbits.UintSize-1) - 1,
		lengthObserver: func(int) {},
	}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply constructor option to fifo queue: %w", err)
		}
	}
	return &FifoQueue[T]{
		maxCapacity:    cfg.maxCapacity,
		lengthObserver: cfg.lengthObserver,
	}, nil
}

// Push appends element to the tail. Returns false if the queue is full.
func (q *FifoQueue[T]) Push(element T) bool {
	return q.PushFunc(func() T { return element })
}

// PushFunc appends the element produced by build while holding the queue
// lock, so anything build assigns (e.g. a sequence number) is consistent with
// the queue order. build is not called when the queue is full.
func (q *FifoQueue[T]) PushFunc(build func() T) bool {
	q.mu.Lock()
	length := q.queue.Len()
	if length >= q.maxCapacity {
		q.mu.Unlock()
		return false
	}
	q.queue.PushBack(build())
	length++
	q.mu.Unlock()

	q.lengthObserver(length)
	return true
}

// Pop removes and returns the head. Returns false if the queue is empty.
func (q *FifoQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	v, ok := q.queue.PopFront()
	length := q.queue.Len()
	q.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	q.lengthObserver(length)
	return v.(T), true
}

// Front returns the head without removing it.
func (q *FifoQueue[T]) Front() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	v, ok := q.queue.Front()
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Len returns the number of queued elements.
func (q *FifoQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queue.Len()
}
