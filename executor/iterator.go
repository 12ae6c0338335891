package executor

import (
	"context"
	"iter"
)

// Step is the outcome of Iterator.Next: either NextBatch or EndOfEpoch.
type Step interface {
	// Batch returns the batch, or nil at the end of the epoch.
	Batch() *Batch
	// Done reports the end of the epoch.
	Done() bool
	step()
}

// NextBatch carries one batch.
type NextBatch struct {
	Value *Batch
}

func (s NextBatch) Batch() *Batch { return s.Value }
func (s NextBatch) Done() bool    { return false }
func (NextBatch) step()           {}

// EndOfEpoch marks the end of the current epoch.
type EndOfEpoch struct{}

func (EndOfEpoch) Batch() *Batch { return nil }
func (EndOfEpoch) Done() bool    { return true }
func (EndOfEpoch) step()         {}

// Iterator adapts a Pipeline to an iteration protocol. After the end of an
// epoch it keeps returning EndOfEpoch until Reset.
type Iterator struct {
	p *Pipeline
}

// NewIterator wraps p.
func NewIterator(p *Pipeline) *Iterator {
	return &Iterator{p: p}
}

// Next returns the next step.
func (it *Iterator) Next(ctx context.Context) (Step, error) {
	b, ok, err := it.p.Run(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return EndOfEpoch{}, nil
	}
	return NextBatch{Value: b}, nil
}

// All yields the remaining batches of the current epoch. An error is
// yielded once and ends the sequence.
func (it *Iterator) All(ctx context.Context) iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for {
			step, err := it.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if step.Done() {
				return
			}
			if !yield(step.Batch(), nil) {
				return
			}
		}
	}
}

// Len returns the number of samples in the reader's shard.
func (it *Iterator) Len() int { return it.p.Len() }

// Reset starts the next epoch.
func (it *Iterator) Reset(ctx context.Context) error { return it.p.Reset(ctx) }
