// Package pipeline provides the lazy, pull-based stages that carry samples
// from a reader through decode and augmentation into batches.
//
// A Pipeline describes a chain of stages; nothing runs until a consumer
// pulls through Iter, All, ForEach or Collect. Every run builds a new chain
// from the source, so the executor reuses one description per epoch.
// Pulling on demand bounds memory without explicit flow control.
//
// Stages:
//
//   - Map and Tap run on the consumer's goroutine
//   - Parallel runs a function on a fixed worker pool and restores source order
//   - Chunk groups values into fixed-size slices
//
// Usage:
//
//	src := pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[reader.Sample] {
//	    return samples
//	})
//	processed := pipeline.Parallel(src, 4, process)
//	err := pipeline.ForEach(ctx, pipeline.Chunk(processed, 32), push)
package pipeline
