package executor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/augkit/augment"
	"github.com/kbukum/augkit/component"
	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/decode"
	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/tensor"
)

// writeImages writes n PNGs spread over classes sub-directories. Widths vary
// so a graph without resize produces non-uniform shapes.
func writeImages(t *testing.T, root string, n, classes int) {
	t.Helper()
	for i := range n {
		dir := filepath.Join(root, fmt.Sprintf("class%d", i%classes))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		w := 8 + (i%3)*2
		img := image.NewRGBA(image.Rect(0, 0, w, 8))
		for y := range 8 {
			for x := range w {
				img.Set(x, y, color.RGBA{R: uint8(i * 10), G: uint8(x * 20), B: uint8(y * 20), A: 255})
			}
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%02d.png", i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
}

func mirrorGraph(b *dag.Builder) error {
	coin := b.Node("mirror", "coin_flip", nil)
	flipped := b.Node("flip", "flip", nil, b.Source(), coin)
	b.Outputs(b.Node("images", "resize", dag.Params{
		"resize_width": 8, "resize_height": 8, "interpolation": "nearest",
	}, flipped))
	return nil
}

func newPipeline(t *testing.T, cfg Config, root string, shuffle bool, graph func(*dag.Builder) error, opts ...Option) *Pipeline {
	t.Helper()
	r := reader.NewFileReader(root, "", reader.Options{RandomShuffle: shuffle})
	p := New(cfg, append([]Option{WithReader(r)}, opts...)...)
	if graph != nil {
		if err := p.Graph(graph); err != nil {
			t.Fatalf("Graph: %v", err)
		}
	}
	t.Cleanup(func() { _ = p.Release() })
	return p
}

func collectEpoch(t *testing.T, p *Pipeline) []*Batch {
	t.Helper()
	var out []*Batch
	for b, err := range NewIterator(p).All(context.Background()) {
		if err != nil {
			t.Fatalf("epoch: %v", err)
		}
		out = append(out, b)
	}
	return out
}

func realIndices(batches []*Batch) []int {
	var idx []int
	for _, b := range batches {
		idx = append(idx, b.Indices[:b.Size()-b.Padded]...)
	}
	slices.Sort(idx)
	return idx
}

func TestPipeline_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 10, 2)
	cfg := Config{BatchSize: 4, NumThreads: 3, Seed: WithSeed(1), LastBatchPolicy: "pad_with_last"}
	p := newPipeline(t, cfg, root, false, mirrorGraph)
	ctx := context.Background()

	if err := p.Build(ctx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.State() != StateBuilt {
		t.Fatalf("state = %s, want built", p.State())
	}

	batches := collectEpoch(t, p)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	for i, b := range batches {
		want := []int{4, 3, 8, 8}
		if !slices.Equal(b.Data().Shape, want) {
			t.Errorf("batch %d shape = %v, want %v", i, b.Data().Shape, want)
		}
		if b.Index != i || b.Epoch != 0 {
			t.Errorf("batch %d index/epoch = %d/%d", i, b.Index, b.Epoch)
		}
		if b.Output("images") != b.Data() {
			t.Error("Output(images) should be the first tensor")
		}
	}
	if batches[2].Padded != 2 {
		t.Errorf("last batch padded = %d, want 2", batches[2].Padded)
	}
	if got := realIndices(batches); !slices.Equal(got, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Errorf("indices = %v", got)
	}

	if p.State() != StateExhausted {
		t.Errorf("state = %s, want exhausted", p.State())
	}
	for range 2 {
		if _, ok, err := p.Run(ctx); ok || err != nil {
			t.Fatalf("Run after end = %v, %v", ok, err)
		}
	}
	if p.RemainingSamples() != 0 {
		t.Errorf("RemainingSamples = %d", p.RemainingSamples())
	}
	if tm := p.Timing(); tm.Decode <= 0 || tm.Process <= 0 {
		t.Errorf("Timing = %+v", tm)
	}
}

func TestPipeline_DropPolicy(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 10, 2)
	cfg := Config{BatchSize: 4, NumThreads: 2, Seed: WithSeed(1), LastBatchPolicy: "drop"}
	p := newPipeline(t, cfg, root, false, mirrorGraph)
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(collectEpoch(t, p)); n != 2 {
		t.Fatalf("got %d batches, want 2", n)
	}
}

func TestPipeline_Determinism(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 10, 2)
	cfg := Config{BatchSize: 4, NumThreads: 4, Seed: WithSeed(99)}

	run := func() [][]*Batch {
		p := newPipeline(t, cfg, root, true, mirrorGraph)
		if err := p.Build(context.Background()); err != nil {
			t.Fatal(err)
		}
		first := collectEpoch(t, p)
		if err := p.Reset(context.Background()); err != nil {
			t.Fatal(err)
		}
		return [][]*Batch{first, collectEpoch(t, p)}
	}

	a, b := run(), run()
	for e := range a {
		if len(a[e]) != len(b[e]) {
			t.Fatalf("epoch %d: %d vs %d batches", e, len(a[e]), len(b[e]))
		}
		for i := range a[e] {
			if !slices.Equal(a[e][i].Keys, b[e][i].Keys) {
				t.Errorf("epoch %d batch %d keys differ: %v vs %v", e, i, a[e][i].Keys, b[e][i].Keys)
			}
			if !slices.Equal(a[e][i].Data().Floats(), b[e][i].Data().Floats()) {
				t.Errorf("epoch %d batch %d data differs", e, i)
			}
		}
	}
	if slices.Equal(a[0][0].Keys, a[1][0].Keys) && slices.Equal(a[0][1].Keys, a[1][1].Keys) {
		t.Error("shuffle should change the composition between epochs")
	}
}

func TestPipeline_ResetRestartsEpoch(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 10, 2)
	cfg := Config{BatchSize: 4, NumThreads: 2, Seed: WithSeed(3), PrefetchQueueDepth: 1}
	p := newPipeline(t, cfg, root, false, mirrorGraph)
	ctx := context.Background()
	if err := p.Build(ctx); err != nil {
		t.Fatal(err)
	}
	first := collectEpoch(t, p)

	if err := p.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := p.Run(ctx); !ok || err != nil {
		t.Fatalf("Run = %v, %v", ok, err)
	}
	// Reset in the middle of an epoch.
	if err := p.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if p.Epoch() != 2 {
		t.Fatalf("epoch = %d, want 2", p.Epoch())
	}

	for epoch := 2; epoch < 6; epoch++ {
		again := collectEpoch(t, p)
		if len(again) != len(first) {
			t.Fatalf("epoch %d: got %d batches, want %d", epoch, len(again), len(first))
		}
		for i := range first {
			if again[i].Epoch != epoch {
				t.Errorf("epoch %d batch %d tagged epoch %d", epoch, i, again[i].Epoch)
			}
			if !slices.Equal(again[i].Keys, first[i].Keys) {
				t.Errorf("epoch %d batch %d keys = %v, want %v", epoch, i, again[i].Keys, first[i].Keys)
			}
			if !slices.Equal(again[i].Data().Floats(), first[i].Data().Floats()) {
				t.Errorf("epoch %d batch %d data differs from the first epoch", epoch, i)
			}
		}
		if err := p.Reset(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPipeline_Lifecycle(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 1)
	ctx := context.Background()
	p := newPipeline(t, Config{BatchSize: 2}, root, false, mirrorGraph)

	if _, _, err := p.Run(ctx); !errors.IsConfiguration(err) {
		t.Errorf("Run before Build = %v, want ConfigurationError", err)
	}
	if err := p.Reset(ctx); !errors.IsConfiguration(err) {
		t.Errorf("Reset before Build = %v, want ConfigurationError", err)
	}
	if err := p.Build(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Build(ctx); !errors.IsConfiguration(err) {
		t.Errorf("second Build = %v, want ConfigurationError", err)
	}
	if err := p.Graph(mirrorGraph); !errors.IsConfiguration(err) {
		t.Errorf("Graph after Build = %v, want ConfigurationError", err)
	}
	if _, err := p.BeginGraph(); !errors.IsConfiguration(err) {
		t.Errorf("BeginGraph after Build = %v, want ConfigurationError", err)
	}

	if err := p.Release(); err != nil {
		t.Fatal(err)
	}
	if err := p.Release(); err != nil {
		t.Errorf("second Release = %v", err)
	}
	if _, _, err := p.Run(ctx); !errors.IsAlreadyReleased(err) {
		t.Errorf("Run after Release = %v", err)
	}
	if err := p.Reset(ctx); !errors.IsAlreadyReleased(err) {
		t.Errorf("Reset after Release = %v", err)
	}
	if err := p.Build(ctx); !errors.IsAlreadyReleased(err) {
		t.Errorf("Build after Release = %v", err)
	}
	if _, err := p.BeginGraph(); !errors.IsAlreadyReleased(err) {
		t.Errorf("BeginGraph after Release = %v", err)
	}
	if p.State() != StateReleased {
		t.Errorf("state = %s", p.State())
	}
}

func TestPipeline_ScopedGraph(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 2, 1)
	p := newPipeline(t, Config{BatchSize: 2}, root, false, nil)

	b, err := p.BeginGraph()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.BeginGraph(); !errors.IsConfiguration(err) {
		t.Errorf("nested BeginGraph = %v", err)
	}
	if err := p.Build(context.Background()); !errors.IsConfiguration(err) {
		t.Errorf("Build with open scope = %v", err)
	}
	b.Outputs(b.Node("crop", "center_crop", dag.Params{"crop_w": 4, "crop_h": 4}, b.Source()))
	if err := p.EndGraph(); err != nil {
		t.Fatal(err)
	}
	if err := p.EndGraph(); !errors.IsConfiguration(err) {
		t.Errorf("unpaired EndGraph = %v", err)
	}
	if err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	batches := collectEpoch(t, p)
	if len(batches) != 1 || !slices.Equal(batches[0].Data().Shape, []int{2, 3, 4, 4}) {
		t.Fatalf("batches = %d, shape %v", len(batches), batches[0].Data().Shape)
	}
}

func TestPipeline_BuildErrors(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 2)
	sharded, err := decode.New(decode.Config{ShardID: 1, NumShards: 2})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		cfg   Config
		root  string
		graph func(*dag.Builder) error
		opts  []Option
		check func(error) bool
	}{
		{
			name: "cycle", cfg: Config{BatchSize: 2}, root: root,
			graph: func(b *dag.Builder) error {
				b.Node("a", "flip", nil, b.Ref("b"))
				b.Node("b", "flip", nil, b.Ref("a"))
				b.Outputs(b.Ref("b"))
				return nil
			},
			check: errors.IsGraphCycle,
		},
		{
			name: "bad params", cfg: Config{BatchSize: 2}, root: root,
			graph: func(b *dag.Builder) error {
				b.Outputs(b.Add("resize", dag.Params{"resize_width": -1}, b.Source()))
				return nil
			},
			check: errors.IsGraphValidation,
		},
		{"zero batch size", Config{}, root, mirrorGraph, nil, errors.IsConfiguration},
		{"bad dtype", Config{BatchSize: 2, TensorDType: "int8"}, root, mirrorGraph, nil, errors.IsConfiguration},
		{"bad policy", Config{BatchSize: 2, LastBatchPolicy: "wrap"}, root, mirrorGraph, nil, errors.IsConfiguration},
		{"no graph", Config{BatchSize: 2}, root, nil, nil, errors.IsConfiguration},
		{"empty root", Config{BatchSize: 2}, t.TempDir(), mirrorGraph, nil, errors.IsNotFound},
		{"missing root", Config{BatchSize: 2}, filepath.Join(root, "missing"), mirrorGraph, nil, errors.IsNotFound},
		{"shard divergence", Config{BatchSize: 2}, root, mirrorGraph, []Option{WithDecoder(sharded)}, errors.IsConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, tt.cfg, tt.root, false, tt.graph, tt.opts...)
			err := p.Build(context.Background())
			if !tt.check(err) {
				t.Fatalf("Build = %v", err)
			}
			if p.State() != StateUnbuilt {
				t.Errorf("state = %s, want unbuilt", p.State())
			}
		})
	}
}

func TestPipeline_NoReader(t *testing.T) {
	p := New(Config{BatchSize: 1})
	_ = p.Graph(mirrorGraph)
	if err := p.Build(context.Background()); !errors.IsConfiguration(err) {
		t.Fatalf("Build = %v", err)
	}
}

func corruptFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(root, "class0", name), []byte("not an image"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func baseKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = filepath.Base(k)
	}
	return out
}

func TestPipeline_DecodeSkipSubstitutes(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 6, 1)
	corruptFiles(t, root, "00.png", "03.png")

	cfg := Config{BatchSize: 3, NumThreads: 2, OnDecodeError: OnDecodeErrorSkip}
	p := newPipeline(t, cfg, root, false, mirrorGraph)
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	batches := collectEpoch(t, p)
	if len(batches) != 2 {
		t.Fatalf("got %d batches", len(batches))
	}
	want := [][]string{{"01.png", "01.png", "02.png"}, {"02.png", "04.png", "05.png"}}
	for i, b := range batches {
		if got := baseKeys(b.Keys); !slices.Equal(got, want[i]) {
			t.Errorf("batch %d keys = %v, want %v", i, got, want[i])
		}
	}
}

func TestPipeline_DecodeSkipWithoutAnySuccess(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 2, 1)
	corruptFiles(t, root, "00.png", "01.png")

	p := newPipeline(t, Config{BatchSize: 2, OnDecodeError: OnDecodeErrorSkip}, root, false, mirrorGraph)
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Run(context.Background()); !errors.IsDecode(err) {
		t.Fatalf("Run = %v, want DecodeError", err)
	}
}

func TestPipeline_DecodeFail(t *testing.T) {
	tests := []struct {
		name    string
		corrupt string
		batches int
	}{
		{"first slot of second batch", "02.png", 1},
		{"last slot of second batch", "03.png", 1},
		{"first sample", "00.png", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeImages(t, root, 4, 1)
			corruptFiles(t, root, tt.corrupt)

			p := newPipeline(t, Config{BatchSize: 2, OnDecodeError: OnDecodeErrorFail, LastBatchPolicy: "pad_with_last"}, root, false, mirrorGraph)
			ctx := context.Background()
			if err := p.Build(ctx); err != nil {
				t.Fatal(err)
			}
			for i := range tt.batches {
				b, ok, err := p.Run(ctx)
				if !ok || err != nil {
					t.Fatalf("batch %d: Run = %v, %v", i, ok, err)
				}
				if b.Padded != 0 {
					t.Errorf("batch %d padded = %d, want a full batch", i, b.Padded)
				}
				for _, k := range b.Keys {
					if filepath.Base(k) == tt.corrupt {
						t.Errorf("batch %d holds the failed sample %s", i, k)
					}
				}
			}
			b, ok, err := p.Run(ctx)
			if ok || b != nil {
				t.Fatalf("Run ok = %v after the failed sample, want no batch", ok)
			}
			if !errors.IsDecode(err) {
				t.Fatalf("Run = %v, want DecodeError", err)
			}
			app, _ := errors.AsAppError(err)
			if filepath.Base(app.Details["sample"].(string)) != tt.corrupt {
				t.Errorf("sample detail = %v", app.Details["sample"])
			}
			if _, _, again := p.Run(ctx); !errors.IsDecode(again) {
				t.Errorf("error should repeat until Reset, got %v", again)
			}
			if h := p.Health(ctx); h.Status != component.StatusUnhealthy {
				t.Errorf("health = %s", h.Status)
			}
		})
	}
}

func TestPipeline_WorkerPanic(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 1)
	reg := augment.NewRegistry()
	reg.MustRegister(dag.OpSpec{
		Name:   "explode",
		Inputs: []dag.ValueKind{dag.KindArray},
		Output: dag.KindArray,
		Fn: func(context.Context, []dag.Value, any, *rand.Rand) (dag.Value, error) {
			panic("kaboom")
		},
	})
	graph := func(b *dag.Builder) error {
		b.Outputs(b.Add("explode", nil, b.Source()))
		return nil
	}
	p := newPipeline(t, Config{BatchSize: 2, NumThreads: 2}, root, false, graph, WithRegistry(reg))
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, _, err := p.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("Run = %v, want InternalError", err)
	}
}

func TestPipeline_NonUniformShapes(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 1)
	graph := func(b *dag.Builder) error {
		b.Outputs(b.Source())
		return nil
	}
	p := newPipeline(t, Config{BatchSize: 4}, root, false, graph)
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Run(context.Background()); !errors.IsGraphValidation(err) {
		t.Fatalf("Run = %v, want GraphValidationError", err)
	}
}

func TestPipeline_OneHot(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 2)
	ctx := context.Background()

	p := newPipeline(t, Config{BatchSize: 4, OneHotClasses: 2}, root, false, mirrorGraph)
	if err := p.Build(ctx); err != nil {
		t.Fatal(err)
	}
	b, ok, err := p.Run(ctx)
	if !ok || err != nil {
		t.Fatalf("Run = %v, %v", ok, err)
	}
	for n, l := range b.Labels {
		if b.OneHot.F32[n*2+l] != 1 || b.OneHot.F32[n*2+1-l] != 0 {
			t.Errorf("row %d = %v for label %d", n, b.OneHot.F32[n*2:n*2+2], l)
		}
	}

	bad := newPipeline(t, Config{BatchSize: 4, OneHotClasses: 1}, root, false, mirrorGraph)
	if err := bad.Build(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := bad.Run(ctx); !errors.IsInvalidLabel(err) {
		t.Fatalf("Run = %v, want InvalidLabelError", err)
	}
}

func TestPipeline_OneHotNegativeLabel(t *testing.T) {
	arrays := []*tensor.Array{
		tensor.FromSlice(1, 1, 1, []float32{1}),
		tensor.FromSlice(1, 1, 1, []float32{2}),
	}
	for _, policy := range []string{"pad_with_zero", "drop"} {
		t.Run(policy, func(t *testing.T) {
			r := reader.NewArrayReader(arrays, []int{-1, 3}, reader.Options{})
			p := New(Config{BatchSize: 2, OneHotClasses: 102, LastBatchPolicy: policy}, WithReader(r))
			defer p.Release()
			if err := p.Graph(func(b *dag.Builder) error {
				b.Outputs(b.Source())
				return nil
			}); err != nil {
				t.Fatal(err)
			}
			if err := p.Build(context.Background()); err != nil {
				t.Fatal(err)
			}
			b, ok, err := p.Run(context.Background())
			if ok || b != nil {
				t.Fatalf("Run ok = %v, want no batch", ok)
			}
			if !errors.IsInvalidLabel(err) {
				t.Fatalf("Run = %v, want InvalidLabelError", err)
			}
		})
	}
}

func TestPipeline_ArrayReader(t *testing.T) {
	arrays := []*tensor.Array{
		tensor.FromSlice(1, 2, 1, []float32{1, 2}),
		tensor.FromSlice(1, 2, 1, []float32{3, 400}),
	}
	r := reader.NewArrayReader(arrays, []int{0, 1}, reader.Options{})
	p := New(Config{BatchSize: 2, TensorDType: "uint8", TensorLayout: "NHWC"}, WithReader(r))
	defer p.Release()
	if err := p.Graph(func(b *dag.Builder) error {
		b.Outputs(b.Source())
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	b, ok, err := p.Run(context.Background())
	if !ok || err != nil {
		t.Fatalf("Run = %v, %v", ok, err)
	}
	if got := b.Data().U8; !slices.Equal(got, []uint8{1, 2, 3, 255}) {
		t.Errorf("data = %v", got)
	}
	if !slices.Equal(b.Labels, []int{0, 1}) {
		t.Errorf("labels = %v", b.Labels)
	}
}

func TestIterator(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 5, 1)
	p := newPipeline(t, Config{BatchSize: 2, LastBatchPolicy: "pad_with_zero"}, root, false, mirrorGraph)
	ctx := context.Background()
	if err := p.Build(ctx); err != nil {
		t.Fatal(err)
	}
	it := NewIterator(p)
	if it.Len() != 5 {
		t.Errorf("Len = %d", it.Len())
	}

	var steps []Step
	for {
		step, err := it.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if step.Done() {
			break
		}
		steps = append(steps, step)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d batches", len(steps))
	}
	last := steps[2].Batch()
	if last.Padded != 1 || last.Labels[1] != -1 {
		t.Errorf("last batch padded=%d labels=%v", last.Padded, last.Labels)
	}
	step, err := it.Next(ctx)
	if err != nil || !step.Done() || step.Batch() != nil {
		t.Errorf("after end = %v, %v", step, err)
	}
	if _, ok := step.(EndOfEpoch); !ok {
		t.Errorf("step = %T, want EndOfEpoch", step)
	}

	if err := it.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	n := 0
	for b, err := range it.All(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		if b.Epoch != 1 {
			t.Errorf("epoch = %d", b.Epoch)
		}
		n++
	}
	if n != 3 {
		t.Errorf("All yielded %d batches", n)
	}
}

func TestPipeline_HealthAndStats(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 4, 1)
	ctx := context.Background()
	p := newPipeline(t, Config{BatchSize: 2}, root, false, mirrorGraph, WithName("train"))

	if h := p.Health(ctx); h.Status != component.StatusDegraded {
		t.Errorf("unbuilt health = %s", h.Status)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h := p.Health(ctx); h.Status != component.StatusHealthy || h.Name != "train" {
		t.Errorf("health = %+v", h)
	}
	if _, ok, err := p.Run(ctx); !ok || err != nil {
		t.Fatal(err)
	}
	s := p.Stats()
	if s.Batches != 1 || s.Samples != 4 || s.RemainingSamples != 2 || s.State != "running" || s.ID != p.ID() {
		t.Errorf("stats = %+v", s)
	}
	if p.RemainingSamples() != 2 {
		t.Errorf("RemainingSamples = %d", p.RemainingSamples())
	}
	if d := p.Describe(); d.Type != "pipeline" || d.Name != "train" {
		t.Errorf("describe = %+v", d)
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if h := p.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("released health = %s", h.Status)
	}
}
