package ingest

import (
	"context"
	"sync"
)

// DefaultQueueSize is the capacity used when none is configured.
const DefaultQueueSize = 100

// QueueEntry is a report file waiting to be parsed.
type QueueEntry struct {
	Path string
	Type string
}

// Queue is a bounded FIFO of report files. Put blocks while the queue is full
// and Take while it is empty. After Close, Put fails and Take drains the
// remaining entries before failing.
type Queue struct {
	ch        chan QueueEntry
	closed    chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most capacity entries.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Queue{
		ch:     make(chan QueueEntry, capacity),
		closed: make(chan struct{}),
	}
}

// Put appends e, waiting for room.
func (q *Queue) Put(ctx context.Context, e QueueEntry) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- e:
		return nil
	case <-q.closed:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Take removes the oldest entry, waiting for one to arrive.
func (q *Queue) Take(ctx context.Context) (QueueEntry, error) {
	select {
	case e := <-q.ch:
		return e, nil
	case <-q.closed:
		select {
		case e := <-q.ch:
			return e, nil
		default:
			return QueueEntry{}, ErrQueueClosed
		}
	case <-ctx.Done():
		return QueueEntry{}, ctx.Err()
	}
}

// Close stops the queue from accepting entries. It is safe to call more than
// once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
