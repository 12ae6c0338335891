package storage

import (
	"context"
	"io"
	"strings"
)

// ByteClient provides []byte-oriented access on top of the streaming
// Storage interface. Readers use it to fetch whole encoded payloads.
type ByteClient interface {
	// Download retrieves the object at path.
	Download(ctx context.Context, path string) ([]byte, error)

	// List returns the objects under prefix, excluding directory markers.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// byteAdapter wraps a streaming Storage and implements ByteClient.
type byteAdapter struct {
	storage Storage
}

// NewByteClient wraps a streaming Storage implementation with []byte convenience methods.
func NewByteClient(s Storage) ByteClient {
	return &byteAdapter{storage: s}
}

func (a *byteAdapter) Download(ctx context.Context, path string) ([]byte, error) {
	rc, err := a.storage.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *byteAdapter) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	files, err := a.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := files[:0]
	for _, f := range files {
		if strings.HasSuffix(f.Path, "/") {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
