package reader

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/resilience"
	"github.com/kbukum/augkit/storage/local"
	"github.com/kbukum/augkit/tensor"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readAll(t *testing.T, r Reader) []Sample {
	t.Helper()
	var out []Sample
	for {
		s, ok, err := r.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

func keys(samples []Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.Key
	}
	return out
}

func TestFileReader_ClassLabels(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "dog/a.png", "cat/b.jpg", "cat/nested/c.jpeg", "cat/notes.txt", "stray.png")

	r := NewFileReader(root, "", Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := r.Classes(); !slices.Equal(got, []string{"cat", "dog"}) {
		t.Fatalf("Classes() = %v", got)
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	samples := readAll(t, r)
	labels := map[string]int{}
	for i, s := range samples {
		if s.Index != i {
			t.Errorf("sample %q index = %d, want %d", s.Key, s.Index, i)
		}
		if string(s.Payload) == "" {
			t.Errorf("sample %q has empty payload", s.Key)
		}
		rel, _ := filepath.Rel(root, s.Key)
		labels[filepath.ToSlash(rel)] = s.Label
	}
	want := map[string]int{"cat/b.jpg": 0, "cat/nested/c.jpeg": 0, "dog/a.png": 1}
	for k, v := range want {
		got, ok := labels[k]
		if !ok || got != v {
			t.Errorf("label[%s] = %d (present %v), want %d", k, got, ok, v)
		}
	}
}

func TestFileReader_RootFilesWithoutClasses(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.png", "a.png")

	r := NewFileReader(root, "", Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	samples := readAll(t, r)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if filepath.Base(samples[0].Key) != "a.png" {
		t.Errorf("first key = %s, want a.png", samples[0].Key)
	}
	for _, s := range samples {
		if s.Label != 0 {
			t.Errorf("label = %d, want 0", s.Label)
		}
	}
}

func TestFileReader_OpenErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		r := NewFileReader(filepath.Join(t.TempDir(), "nope"), "", Options{})
		err := r.Open(context.Background(), 1)
		if !errors.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("no eligible files", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "readme.txt")
		err := NewFileReader(root, "", Options{}).Open(context.Background(), 1)
		if !errors.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("empty shard", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "a.png", "b.png")
		r := NewFileReader(root, "", Options{ShardID: 0, NumShards: 4})
		err := r.Open(context.Background(), 1)
		if !errors.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("bad shard", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, "a.png")
		err := NewFileReader(root, "", Options{ShardID: 2, NumShards: 2}).Open(context.Background(), 1)
		if !errors.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})
}

func TestFileReader_ShardsPartitionDataset(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		writeFiles(t, root, n+".png")
	}

	var all []int
	for id := 0; id < 3; id++ {
		r := NewFileReader(root, "", Options{ShardID: id, NumShards: 3})
		if err := r.Open(context.Background(), 1); err != nil {
			t.Fatalf("shard %d: %v", id, err)
		}
		for _, s := range readAll(t, r) {
			all = append(all, s.Index)
		}
	}
	slices.Sort(all)
	if !slices.Equal(all, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("indices across shards = %v", all)
	}
}

func TestFileReader_ShuffleReproducible(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFiles(t, root, string(rune('a'+i))+".png")
	}
	open := func(seed uint64) *FileReader {
		r := NewFileReader(root, "", Options{RandomShuffle: true})
		if err := r.Open(context.Background(), seed); err != nil {
			t.Fatal(err)
		}
		return r
	}

	r1, r2 := open(42), open(42)
	e0 := keys(readAll(t, r1))
	if got := keys(readAll(t, r2)); !slices.Equal(e0, got) {
		t.Fatal("same seed produced different orders")
	}

	if err := r1.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r1.Epoch() != 1 {
		t.Fatalf("Epoch() = %d, want 1", r1.Epoch())
	}
	e1 := keys(readAll(t, r1))
	if slices.Equal(e0, e1) {
		t.Error("expected a different order in epoch 1")
	}
	sorted0, sorted1 := slices.Clone(e0), slices.Clone(e1)
	slices.Sort(sorted0)
	slices.Sort(sorted1)
	if !slices.Equal(sorted0, sorted1) {
		t.Error("epochs visited different sample sets")
	}
}

func TestFileReader_ResetWithoutShuffle(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "c.png", "a.png", "b.png")
	r := NewFileReader(root, "", Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	first := keys(readAll(t, r))
	if err := r.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if second := keys(readAll(t, r)); !slices.Equal(first, second) {
		t.Errorf("order changed after reset: %v vs %v", first, second)
	}
}

func TestFileReader_FileList(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "x/one.png", "two.png")
	list := filepath.Join(t.TempDir(), "list.txt")
	content := "# comment\nx/one.png 3\n\ntwo.png\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFileReader(root, list, Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	samples := readAll(t, r)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Label != 3 || samples[1].Label != 0 {
		t.Errorf("labels = %d, %d; want 3, 0", samples[0].Label, samples[1].Label)
	}

	bad := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(bad, []byte("two.png cat\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewFileReader(root, bad, Options{}).Open(context.Background(), 1)
	if !errors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStorageReader_Local(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, "train/cat/a.png", "train/dog/b.png", "train/dog/c.png", "other/z.png")
	store, err := local.NewStorage(base)
	if err != nil {
		t.Fatal(err)
	}

	retry := resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}
	r := NewStorageReader(store, "train", retry, Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := r.Classes(); !slices.Equal(got, []string{"cat", "dog"}) {
		t.Fatalf("Classes() = %v", got)
	}
	samples := readAll(t, r)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	wantLabels := []int{0, 1, 1}
	for i, s := range samples {
		if s.Label != wantLabels[i] {
			t.Errorf("sample %s label = %d, want %d", s.Key, s.Label, wantLabels[i])
		}
		if string(s.Payload) != s.Key {
			t.Errorf("payload of %s = %q", s.Key, s.Payload)
		}
	}

	empty := NewStorageReader(store, "missing", retry, Options{})
	if err := empty.Open(context.Background(), 1); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArrayReader(t *testing.T) {
	arrays := []*tensor.Array{
		tensor.NewArray(1, 4, 1),
		tensor.NewArray(1, 4, 1),
		tensor.NewArray(1, 4, 1),
	}
	r := NewArrayReader(arrays, []int{2, 0, 1}, Options{})
	if err := r.Open(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	samples := readAll(t, r)
	for i, s := range samples {
		if s.Array != arrays[i] {
			t.Errorf("sample %d array mismatch", i)
		}
		if !strings.HasPrefix(s.Key, "array/") {
			t.Errorf("key = %s", s.Key)
		}
	}
	if samples[0].Label != 2 {
		t.Errorf("label = %d, want 2", samples[0].Label)
	}

	bad := NewArrayReader(arrays, []int{1}, Options{})
	if err := bad.Open(context.Background(), 1); !errors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConfig_New(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		r, err := New(Config{FileRoot: t.TempDir()}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := r.(*FileReader); !ok {
			t.Errorf("got %T, want *FileReader", r)
		}
	})

	t.Run("file without root", func(t *testing.T) {
		_, err := New(Config{}, nil)
		if !errors.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("storage without backend", func(t *testing.T) {
		_, err := New(Config{Kind: KindStorage}, nil)
		if !errors.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(Config{Kind: "tfrecord", FileRoot: "x"}, nil)
		if !errors.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})
}
