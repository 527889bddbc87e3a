// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push after Close, and by Pop once the queue
// is closed and drained.
var ErrQueueClosed = errors.New("worker queue is closed")

// =============================================================================
// MESSAGE QUEUE
// =============================================================================

// Queue is an unbounded FIFO of worker messages.
//
// Push never blocks, so the UI can enqueue from its event loop no matter how
// far behind the worker is. Any number of goroutines may Push; Pop is meant
// for a single consumer.
type Queue struct {
	mu     sync.Mutex
	items  []Message
	closed bool

	// notify has capacity 1 and holds a token whenever items may be
	// non-empty or the queue was just closed.
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  make([]Message, 0),
		notify: make(chan struct{}, 1),
	}
}

// Push appends msg. Returns ErrQueueClosed after Close.
func (q *Queue) Push(msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, msg)
	q.signalLocked()
	return nil
}

// Pop removes and returns the oldest message, blocking until one is
// available. Messages pushed before Close are still delivered; after that
// Pop returns ErrQueueClosed. It also returns early if ctx is done.
func (q *Queue) Pop(ctx context.Context) (Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			if len(q.items) > 0 {
				q.signalLocked()
			}
			q.mu.Unlock()
			return msg, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops further pushes. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.signalLocked()
}

// Len returns the number of waiting messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsClosed reports whether Close has been called.
func (q *Queue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// signalLocked wakes the consumer. Must be called with lock held.
func (q *Queue) signalLocked() {
	select {
	case q.notify <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
}
