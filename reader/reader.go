package reader

import (
	"context"

	"github.com/kbukum/augkit/tensor"
)

// Sample is one input unit. It is immutable once read.
type Sample struct {
	// Index is the global position in the sorted, unsharded sample list.
	Index int
	// Key identifies the sample: a file path or object key.
	Key string
	// Payload holds encoded bytes (JPEG, PNG, ...). Nil for array samples.
	Payload []byte
	// Array holds a pre-decoded dense sample. Nil for encoded samples.
	Array *tensor.Array
	// Label is the integer class label.
	Label int
}

// Reader is a restartable, sharded sample source. Calls other than Len and
// Epoch must not run concurrently.
type Reader interface {
	// Open enumerates the dataset and positions the cursor at the start of
	// epoch 0. The seed drives shuffling.
	Open(ctx context.Context, seed uint64) error
	// Next returns the next sample, or ok=false at the end of the epoch.
	Next(ctx context.Context) (s Sample, ok bool, err error)
	// Reset rewinds to the start of the next epoch.
	Reset(ctx context.Context) error
	// Len returns the number of samples in this shard.
	Len() int
	// Epoch returns the current epoch, starting at 0.
	Epoch() int
	// Shard returns the shard assignment.
	Shard() (shardID, numShards int)
	// Close releases resources.
	Close() error
}
