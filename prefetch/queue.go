package prefetch

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO with a single producer. Push blocks while the
// queue is full and Pop blocks while it is empty and open. Closing marks
// the end of the stream: items already queued are still delivered, then
// Pop reports the close error (nil for a clean end of epoch).
type Queue[T any] struct {
	ch        chan T
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// New creates a queue holding at most capacity items. A capacity below one
// is treated as one.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Push enqueues v, blocking while the queue is full. It must not be called
// after Close.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the oldest item. ok is false once the queue is closed and
// empty, in which case err carries the close error.
func (q *Queue[T]) Pop(ctx context.Context) (v T, ok bool, err error) {
	select {
	case v, ok = <-q.ch:
		if !ok {
			return v, false, q.closeErr()
		}
		return v, true, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// Close ends the stream cleanly.
func (q *Queue[T]) Close() { q.CloseWithError(nil) }

// CloseWithError ends the stream with err, which Pop returns after the
// remaining items. Only the first close takes effect.
func (q *Queue[T]) CloseWithError(err error) {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.err = err
		q.mu.Unlock()
		close(q.ch)
	})
}

// Drain discards every buffered item and returns how many were dropped.
func (q *Queue[T]) Drain() int {
	n := 0
	for {
		select {
		case _, ok := <-q.ch:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// Level returns the number of buffered items.
func (q *Queue[T]) Level() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

func (q *Queue[T]) closeErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
