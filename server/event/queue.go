// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the event plumbing between task handlers, the
// task manager, and transport subscribers.
package event

import (
	"context"
	"errors"
	"sync"

	a2aserver "github.com/go-a2a/a2a-server"
)

// DefaultQueueSize is the default capacity of a handler event queue.
const DefaultQueueSize = 1024

var (
	// ErrQueueClosed is returned on enqueue to a closed queue, or on
	// dequeue once a closed queue has drained.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueFull is returned when an enqueue would block.
	ErrQueueFull = errors.New("event queue is full")
)

// Queue is a bounded FIFO stream of task events. The handler enqueues,
// the task manager dequeues. Closing the queue ends the stream: pending
// events remain dequeueable, then Dequeue returns ErrQueueClosed.
type Queue struct {
	events chan a2aserver.Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue with the given capacity. A size of zero or
// less means DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		events: make(chan a2aserver.Event, size),
		done:   make(chan struct{}),
	}
}

// Enqueue adds an event without blocking. It returns ErrQueueClosed after
// Close and ErrQueueFull when the queue is at capacity.
func (q *Queue) Enqueue(ev a2aserver.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the next event, blocking until one is available, the
// queue is closed and drained, or ctx ends.
func (q *Queue) Dequeue(ctx context.Context) (a2aserver.Event, error) {
	// Fast path: drain buffered events even after Close.
	select {
	case ev := <-q.events:
		return ev, nil
	default:
	}

	select {
	case ev := <-q.events:
		return ev, nil
	case <-q.done:
		// Close may race an in-flight Enqueue; prefer delivery.
		select {
		case ev := <-q.events:
			return ev, nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the queue closed. Buffered events stay dequeueable.
// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	return len(q.events)
}
