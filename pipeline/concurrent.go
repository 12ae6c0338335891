package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// PanicError reports a panic recovered inside a Parallel worker.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("pipeline: worker panic: %v", e.Value)
}

type seqItem[T any] struct {
	seq int
	val T
}

type seqResult[T any] struct {
	seq int
	val T
	err error
}

// Parallel applies fn to each value on n workers and yields the results in
// source order. At most 2n values are in flight, so a slow value holds back
// the pool instead of growing the reorder buffer. An error from the source
// or from fn is delivered at the position of the value that caused it; a
// panic in fn becomes a *PanicError at that position. Close cancels the
// workers and waits for them, so the source is idle once Close returns.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 0 {
		n = 1
	}
	return &Pipeline[O]{
		open: func(ctx context.Context) Iterator[O] {
			source := p.open(ctx)
			workerCtx, cancel := context.WithCancel(ctx)
			in := make(chan seqItem[I], n)
			out := make(chan seqResult[O], n)
			tokens := make(chan struct{}, 2*n)

			var wg sync.WaitGroup

			// Producer: pull from source, numbering values in arrival order.
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(in)
				for seq := 0; ; seq++ {
					select {
					case tokens <- struct{}{}:
					case <-workerCtx.Done():
						return
					}
					val, ok, err := source.Next(workerCtx)
					if err != nil {
						select {
						case out <- seqResult[O]{seq: seq, err: err}:
						case <-workerCtx.Done():
						}
						return
					}
					if !ok {
						return
					}
					select {
					case in <- seqItem[I]{seq: seq, val: val}:
					case <-workerCtx.Done():
						return
					}
				}
			}()

			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for item := range in {
						o, err := safeCall(workerCtx, fn, item.val)
						select {
						case out <- seqResult[O]{seq: item.seq, val: o, err: err}:
						case <-workerCtx.Done():
							return
						}
					}
				}()
			}

			go func() {
				wg.Wait()
				close(out)
			}()

			return &orderedIter[O]{
				parent:  ctx,
				out:     out,
				tokens:  tokens,
				pending: make(map[int]seqResult[O]),
				closer: func() error {
					cancel()
					wg.Wait()
					return source.Close()
				},
			}
		},
	}
}

func safeCall[I, O any](ctx context.Context, fn func(context.Context, I) (O, error), v I) (o O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, v)
}

// orderedIter re-sequences worker results by source position.
type orderedIter[T any] struct {
	parent  context.Context
	out     <-chan seqResult[T]
	tokens  chan struct{}
	pending map[int]seqResult[T]
	next    int
	done    bool
	closer  func() error
}

func (it *orderedIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if r, ok := it.pending[it.next]; ok {
			delete(it.pending, it.next)
			it.next++
			<-it.tokens
			if r.err != nil {
				it.done = true
				return zero, false, r.err
			}
			return r.val, true, nil
		}
		select {
		case r, open := <-it.out:
			if !open {
				it.done = true
				// Workers stop early only when the parent context ends.
				return zero, false, it.parent.Err()
			}
			it.pending[r.seq] = r
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

func (it *orderedIter[T]) Close() error {
	if it.closer != nil {
		return it.closer()
	}
	return nil
}
