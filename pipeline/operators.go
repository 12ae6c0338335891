package pipeline

import "context"

// Map converts each value with fn on the consumer's goroutine.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return FromFunc(func(ctx context.Context) Iterator[O] {
		return &stageIter[I, O]{upstream: p.open(ctx), step: func(ctx context.Context, v I) (O, bool, error) {
			o, err := fn(ctx, v)
			return o, true, err
		}}
	})
}

// Tap observes each value without changing it. An error from fn ends the run.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return FromFunc(func(ctx context.Context) Iterator[T] {
		return &stageIter[T, T]{upstream: p.open(ctx), step: func(ctx context.Context, v T) (T, bool, error) {
			return v, true, fn(ctx, v)
		}}
	})
}

// Chunk groups consecutive values into slices of size values; the final
// slice holds the remainder. A short slice is only yielded at a clean end
// of the source: when the source fails mid-chunk the values gathered so far
// are discarded and the error is returned.
func Chunk[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	size = max(size, 1)
	return FromFunc(func(ctx context.Context) Iterator[[]T] {
		return &chunkIter[T]{upstream: p.open(ctx), size: size}
	})
}

// stageIter applies a one-to-one step to every upstream value.
type stageIter[I, O any] struct {
	upstream Iterator[I]
	step     func(context.Context, I) (O, bool, error)
}

func (s *stageIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	v, ok, err := s.upstream.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	o, ok, err := s.step(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return o, ok, nil
}

func (s *stageIter[I, O]) Close() error { return s.upstream.Close() }

type chunkIter[T any] struct {
	upstream Iterator[T]
	size     int
	finished bool
}

func (c *chunkIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	if c.finished {
		return nil, false, nil
	}
	group := make([]T, 0, c.size)
	for len(group) < c.size {
		v, ok, err := c.upstream.Next(ctx)
		if err != nil {
			c.finished = true
			return nil, false, err
		}
		if !ok {
			c.finished = true
			return group, len(group) > 0, nil
		}
		group = append(group, v)
	}
	return group, true, nil
}

func (c *chunkIter[T]) Close() error { return c.upstream.Close() }
