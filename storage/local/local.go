// Package local serves dataset objects from a directory on disk.
package local

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(cfg.BasePath)
		if err != nil {
			return nil, err
		}
		log.Debug("local storage ready", map[string]interface{}{logger.FieldPath: s.dir})
		return s, nil
	})
}

// Storage keeps objects as files below a root directory. Keys are
// slash-separated paths relative to the root; keys that would escape the
// root are rejected by os.Root.
type Storage struct {
	dir  string
	root *os.Root
}

// NewStorage opens dir as the storage root, creating it when missing.
func NewStorage(dir string) (*Storage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Configuration("storage.base_path", err.Error())
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Configuration("storage.base_path", err.Error())
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, errors.Configuration("storage.base_path", err.Error())
	}
	return &Storage{dir: abs, root: root}, nil
}

// name converts a storage key into a root-relative file name.
func name(key string) string {
	return filepath.FromSlash(strings.TrimPrefix(path.Clean("/"+key), "/"))
}

// Upload writes r to key, creating parent directories.
func (s *Storage) Upload(_ context.Context, key string, r io.Reader) error {
	file := name(key)
	if dir := filepath.Dir(file); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	f, err := s.root.Create(file)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return f.Close()
}

// Download opens key for reading. A missing key is a NotFound error.
func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := s.root.Open(name(key))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFound(key, "object does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return f, nil
}

// Exists reports whether key names a file.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	_, err := s.root.Stat(name(key))
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("storage: stat %s: %w", key, err)
}

// List walks the root and returns the files whose key starts with prefix,
// sorted by key.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	files := []storage.FileInfo{}
	err := fs.WalkDir(s.root.FS(), ".", func(key string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, storage.FileInfo{Path: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	slices.SortFunc(files, func(a, b storage.FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// Close releases the root directory handle.
func (s *Storage) Close() error { return s.root.Close() }

var _ storage.Storage = (*Storage)(nil)
