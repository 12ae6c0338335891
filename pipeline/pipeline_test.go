package pipeline

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"
)

type sample struct {
	key   string
	label int
}

func samples(n int) []sample {
	out := make([]sample, n)
	for i := range out {
		out[i] = sample{key: "img_" + strconv.Itoa(i) + ".png", label: i % 3}
	}
	return out
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name string
		in   []sample
	}{
		{"empty", nil},
		{"single", samples(1)},
		{"several", samples(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), FromSlice(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.in) {
				t.Errorf("got %v, want %v", got, tt.in)
			}
		})
	}
}

// countingIter yields 0..n-1 and records Close.
type countingIter struct {
	n, pos int
	closed bool
}

func (c *countingIter) Next(context.Context) (int, bool, error) {
	if c.pos == c.n {
		return 0, false, nil
	}
	c.pos++
	return c.pos - 1, true, nil
}

func (c *countingIter) Close() error {
	c.closed = true
	return nil
}

func TestFrom_ClosesSource(t *testing.T) {
	src := &countingIter{n: 4}
	got, err := Collect(context.Background(), From[int](src))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("got %v", got)
	}
	if !src.closed {
		t.Error("source not closed")
	}
}

func TestFromFunc_FreshRunEachTime(t *testing.T) {
	opened := 0
	p := FromFunc(func(context.Context) Iterator[int] {
		opened++
		return &countingIter{n: 2}
	})
	for range 3 {
		got, err := Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("run produced %d values", len(got))
		}
	}
	if opened != 3 {
		t.Errorf("opened = %d, want 3", opened)
	}
}

func TestMap(t *testing.T) {
	keys := Map(FromSlice(samples(3)), func(_ context.Context, s sample) (string, error) {
		return s.key, nil
	})
	got, err := Collect(context.Background(), keys)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"img_0.png", "img_1.png", "img_2.png"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMap_ErrorStopsRun(t *testing.T) {
	errCorrupt := errors.New("corrupt image")
	decoded := Map(FromSlice(samples(5)), func(_ context.Context, s sample) (int, error) {
		if s.key == "img_2.png" {
			return 0, errCorrupt
		}
		return s.label, nil
	})
	got, err := Collect(context.Background(), decoded)
	if !errors.Is(err, errCorrupt) {
		t.Fatalf("err = %v, want %v", err, errCorrupt)
	}
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("values before failure = %v", got)
	}
}

func TestTap(t *testing.T) {
	seen := map[int]int{}
	counted := Tap(FromSlice(samples(6)), func(_ context.Context, s sample) error {
		seen[s.label]++
		return nil
	})
	got, err := Collect(context.Background(), counted)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d samples", len(got))
	}
	for label := range 3 {
		if seen[label] != 2 {
			t.Errorf("label %d seen %d times, want 2", label, seen[label])
		}
	}
}

func TestForEach_CallbackError(t *testing.T) {
	errFull := errors.New("queue full")
	calls := 0
	err := ForEach(context.Background(), FromSlice(samples(4)), func(context.Context, sample) error {
		calls++
		if calls == 2 {
			return errFull
		}
		return nil
	})
	if !errors.Is(err, errFull) {
		t.Fatalf("err = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestAll_EarlyBreakCloses(t *testing.T) {
	src := &countingIter{n: 10}
	var got []int
	for v, err := range From[int](src).All(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("got %v", got)
	}
	if !src.closed {
		t.Error("source not closed after break")
	}
}

func TestChunk_Sizes(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"exact", 6, 3, []int{3, 3}},
		{"remainder", 7, 3, []int{3, 3, 1}},
		{"smaller than size", 2, 5, []int{2}},
		{"empty", 0, 4, nil},
		{"non-positive size", 3, 0, []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Collect(context.Background(), Chunk(FromSlice(samples(tt.n)), tt.size))
			if err != nil {
				t.Fatal(err)
			}
			var sizes []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			if !slices.Equal(sizes, tt.sizes) {
				t.Errorf("chunk sizes = %v, want %v", sizes, tt.sizes)
			}
		})
	}
}

func TestStages_Compose(t *testing.T) {
	labels := Map(FromSlice(samples(9)), func(_ context.Context, s sample) (int, error) {
		return s.label, nil
	})
	batches, err := Collect(context.Background(), Chunk(labels, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{0, 1, 2, 0}, {1, 2, 0, 1}, {2}}
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d", len(batches), len(want))
	}
	for i := range want {
		if !slices.Equal(batches[i], want[i]) {
			t.Errorf("batch %d = %v, want %v", i, batches[i], want[i])
		}
	}
}
