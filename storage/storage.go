package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage defines the object storage operations used by the pipeline.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns metadata for all objects whose path starts with prefix,
	// sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
