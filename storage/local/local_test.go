package local

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/storage"
)

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	for _, key := range []string{"train/daisy/b.jpg", "train/daisy/a.jpg", "train/rose/c.jpg", "val/d.jpg"} {
		if err := s.Upload(ctx, key, bytes.NewReader([]byte(key))); err != nil {
			t.Fatalf("Upload(%s): %v", key, err)
		}
	}

	files, err := s.List(ctx, "train/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"train/daisy/a.jpg", "train/daisy/b.jpg", "train/rose/c.jpg"}
	if len(files) != len(want) {
		t.Fatalf("List returned %d files, want %d", len(files), len(want))
	}
	for i, f := range files {
		if f.Path != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, f.Path, want[i])
		}
	}

	rc, err := s.Download(ctx, "val/d.jpg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "val/d.jpg" {
		t.Errorf("downloaded %q", data)
	}

	ok, err := s.Exists(ctx, "val/missing.jpg")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	if _, err := s.Download(ctx, "val/missing.jpg"); !errors.IsNotFound(err) {
		t.Errorf("Download(missing) = %v, want NotFound", err)
	}
}

func TestFactoryRegistered(t *testing.T) {
	s, err := storage.New(context.Background(), storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, logger.NewNop())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := s.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", s)
	}
}

func TestByteClientSkipsDirectoryMarkers(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStorage(t.TempDir())
	_ = s.Upload(ctx, "a/x.png", bytes.NewReader([]byte("x")))

	client := storage.NewByteClient(s)
	data, err := client.Download(ctx, "a/x.png")
	if err != nil || string(data) != "x" {
		t.Fatalf("Download = %q, %v", data, err)
	}
	files, err := client.List(ctx, "a/")
	if err != nil || len(files) != 1 {
		t.Fatalf("List = %v, %v", files, err)
	}
}

func TestKeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Upload(ctx, "../../escape.png", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ok, err := s.Exists(ctx, "escape.png")
	if err != nil || !ok {
		t.Fatalf("Exists(escape.png) = %v, %v; want the key clamped to the root", ok, err)
	}
	files, err := s.List(ctx, "")
	if err != nil || len(files) != 1 || files[0].Path != "escape.png" {
		t.Errorf("List = %v, %v", files, err)
	}
}
