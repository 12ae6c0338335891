package pipeline

import (
	"context"
	"iter"
)

// Iterator is a pull-based cursor over a stream of values.
type Iterator[T any] interface {
	// Next returns the next value, or ok=false once the stream is exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases the stage and everything upstream of it.
	Close() error
}

// Pipeline is a lazy stage description. Each call to Iter builds a fresh
// chain of iterators, so one Pipeline can be run once per epoch.
type Pipeline[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// From wraps an existing iterator. The resulting pipeline can be run once.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] { return it })
}

// FromSlice streams the elements of items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	})
}

// FromFunc builds a pipeline whose source iterator is created by open on
// every run.
func FromFunc[T any](open func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{open: open}
}

// Iter starts a run. The caller owns the returned iterator and must close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.open(ctx)
}

// All starts a run and exposes it as a range-over-func sequence. The run is
// closed when the loop ends; an error is yielded once as the final element.
func (p *Pipeline[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := p.open(ctx)
		defer it.Close()
		for {
			v, ok, err := it.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// ForEach runs the pipeline to completion, handing every value to fn. The
// first error from the stream or from fn stops the run.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	for v, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// Collect runs the pipeline and gathers its values. On error the values
// produced before the failure are returned alongside it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (s *sliceIter[T]) Next(context.Context) (T, bool, error) {
	if s.pos == len(s.items) {
		var zero T
		return zero, false, nil
	}
	s.pos++
	return s.items[s.pos-1], true, nil
}

func (s *sliceIter[T]) Close() error { return nil }
