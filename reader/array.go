package reader

import (
	"context"
	"fmt"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/tensor"
)

// ArrayReader serves pre-decoded dense arrays, e.g. audio clips or arrays
// loaded from numpy files by the caller. Samples keep their slice order as
// the listing order.
type ArrayReader struct {
	arrays []*tensor.Array
	labels []int
	opts   Options
	cur    *cursor
}

// NewArrayReader creates a reader over arrays. labels may be nil (all 0);
// otherwise it must have one entry per array.
func NewArrayReader(arrays []*tensor.Array, labels []int, opts Options) *ArrayReader {
	opts = opts.normalized()
	return &ArrayReader{
		arrays: arrays,
		labels: labels,
		opts:   opts,
		cur:    newCursor(opts.ShardID, opts.NumShards, opts.RandomShuffle),
	}
}

// Open starts epoch 0.
func (r *ArrayReader) Open(_ context.Context, seed uint64) error {
	if r.labels != nil && len(r.labels) != len(r.arrays) {
		return errors.Configuration("labels", fmt.Sprintf("%d labels for %d arrays", len(r.labels), len(r.arrays)))
	}
	if len(r.arrays) == 0 {
		return errors.NotFound("arrays", "no arrays to read")
	}
	all := make([]entry, len(r.arrays))
	for i := range r.arrays {
		all[i] = entry{key: fmt.Sprintf("array/%d", i)}
		if r.labels != nil {
			all[i].label = r.labels[i]
		}
	}
	return r.cur.load("arrays", all, seed)
}

// Next returns the next array of the epoch.
func (r *ArrayReader) Next(ctx context.Context) (Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, false, err
	}
	e, ok := r.cur.next()
	if !ok {
		return Sample{}, false, nil
	}
	return Sample{Index: e.index, Key: e.key, Array: r.arrays[e.index], Label: e.label}, true, nil
}

// Reset starts the next epoch.
func (r *ArrayReader) Reset(_ context.Context) error {
	r.cur.rewind()
	return nil
}

func (r *ArrayReader) Len() int { return len(r.cur.entries) }
func (r *ArrayReader) Epoch() int { return r.cur.epoch }
func (r *ArrayReader) Shard() (int, int) { return r.opts.ShardID, r.opts.NumShards }
func (r *ArrayReader) Close() error { return nil }

var _ Reader = (*ArrayReader)(nil)
