// Package reader enumerates the samples of one shard of a dataset.
//
// A Reader yields Samples lazily in a deterministic order: sorted listing
// order, or a seeded permutation when shuffling is enabled. Reset starts a
// new epoch; with shuffling each epoch gets a fresh permutation derived
// from (seed, epoch).
//
// Sharding is a contiguous partition of the sorted sample list, so every
// sample lands in exactly one shard and shard sizes differ by at most one.
//
// Implementations:
//
//   - FileReader: a class-per-directory tree or a file list on local disk
//   - StorageReader: objects under a prefix of a storage.Storage backend
//   - ArrayReader: in-memory dense arrays
package reader
