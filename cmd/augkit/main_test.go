package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/executor"
)

const trainGraph = `
name: train
nodes:
  - name: mirror
    op: coin_flip
  - name: flip
    op: flip
    inputs: [source, mirror]
  - name: images
    op: resize
    inputs: [flip]
    params: {resize_width: 8, resize_height: 8, interpolation: nearest}
outputs: [images]
`

// writeDataset lays out n PNG files over classes class directories and
// returns the config file path.
func writeDataset(t *testing.T, n, classes int, extra string) string {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "data")
	for i := range n {
		classDir := filepath.Join(root, fmt.Sprintf("class%d", i%classes))
		if err := os.MkdirAll(classDir, 0o755); err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, 6+i%3, 6))
		for y := range 6 {
			for x := range 6 + i%3 {
				img.Set(x, y, color.RGBA{R: uint8(i * 20), G: uint8(x * 30), B: uint8(y * 30), A: 255})
			}
		}
		f, err := os.Create(filepath.Join(classDir, fmt.Sprintf("%02d.png", i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	graph := filepath.Join(dir, "train.yaml")
	if err := os.WriteFile(graph, []byte(trainGraph), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf(`
name: cmd-test
logging: {level: error}
pipeline:
  batch_size: 4
  num_threads: 2
  seed: 7
reader:
  kind: file
  file_root: %s
graph: %s
%s`, root, graph, extra)
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunEpochs(t *testing.T) {
	path := writeDataset(t, 10, 2, "")
	if err := run(context.Background(), []string{"--config", path, "--epochs", "2"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunWithStatusServer(t *testing.T) {
	path := writeDataset(t, 6, 3, "status: {enabled: true, addr: \"127.0.0.1:0\"}\n")
	args := []string{"-c", path, "--batch-size", "3", "--last-batch", "drop"}
	if err := run(context.Background(), args, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "augkit ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  func(t *testing.T) []string
		check func(error) bool
	}{
		{
			name:  "unknown flag",
			args:  func(*testing.T) []string { return []string{"--nope"} },
			check: errors.IsConfiguration,
		},
		{
			name:  "zero epochs",
			args:  func(*testing.T) []string { return []string{"--epochs", "0"} },
			check: errors.IsConfiguration,
		},
		{
			name:  "missing config file",
			args:  func(*testing.T) []string { return []string{"-c", "/nonexistent/augkit.yml"} },
			check: errors.IsNotFound,
		},
		{
			name: "flag overrides to invalid dtype",
			args: func(t *testing.T) []string {
				return []string{"-c", writeDataset(t, 4, 2, ""), "--dtype", "int64"}
			},
			check: errors.IsConfiguration,
		},
		{
			name: "missing graph",
			args: func(t *testing.T) []string {
				return []string{"-c", writeDataset(t, 4, 2, ""), "--graph", "nonexistent"}
			},
			check: errors.IsNotFound,
		},
		{
			name: "cyclic graph",
			args: func(t *testing.T) []string {
				path := writeDataset(t, 4, 2, "")
				graph := filepath.Join(filepath.Dir(path), "cycle.yaml")
				def := "nodes:\n  - {name: a, op: flip, inputs: [b]}\n  - {name: b, op: flip, inputs: [a]}\noutputs: [b]\n"
				if err := os.WriteFile(graph, []byte(def), 0o644); err != nil {
					t.Fatal(err)
				}
				return []string{"-c", path, "--graph", graph}
			},
			check: errors.IsGraphCycle,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.args(t), &bytes.Buffer{})
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunStats(t *testing.T) {
	s := newRunStats()
	s.beginEpoch(0)
	s.addBatch(&executor.Batch{Labels: []int{0, 1, 1, 0}})
	s.addBatch(&executor.Batch{Labels: []int{1, 1, 1, 1}, Padded: 3})
	first := s.endEpoch(0)
	if first.Batches != 2 || first.Samples != 5 || first.Padded != 3 {
		t.Errorf("unexpected epoch stats %+v", first)
	}

	s.beginEpoch(1)
	s.addBatch(&executor.Batch{Labels: []int{2, -1}, Padded: 1})
	s.endEpoch(0)

	sum := s.summary()
	if len(sum.Epochs) != 2 || sum.Batches != 3 || sum.Samples != 6 {
		t.Errorf("unexpected summary %+v", sum)
	}
	want := map[int]int{0: 2, 1: 3, 2: 1}
	if fmt.Sprint(sum.LabelCounts) != fmt.Sprint(want) {
		t.Errorf("label counts = %v, want %v", sum.LabelCounts, want)
	}
}
