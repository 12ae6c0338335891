package tensor

import "fmt"

// Array is a dense HWC float32 sample. Audio and other 1-D signals use
// H=1, C=1 and store samples along W.
type Array struct {
	H, W, C int
	Data    []float32
}

// NewArray allocates a zeroed array of the given shape.
func NewArray(h, w, c int) *Array {
	return &Array{H: h, W: w, C: c, Data: make([]float32, h*w*c)}
}

// FromSlice wraps data as an array. It panics if len(data) != h*w*c.
func FromSlice(h, w, c int, data []float32) *Array {
	if len(data) != h*w*c {
		panic(fmt.Sprintf("tensor: %d elements do not fill shape [%d %d %d]", len(data), h, w, c))
	}
	return &Array{H: h, W: w, C: c, Data: data}
}

// Shape returns [H, W, C].
func (a *Array) Shape() []int { return []int{a.H, a.W, a.C} }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Data) }

// Index returns the flat offset of (y, x, ch).
func (a *Array) Index(y, x, ch int) int { return (y*a.W+x)*a.C + ch }

// At returns the element at (y, x, ch).
func (a *Array) At(y, x, ch int) float32 { return a.Data[a.Index(y, x, ch)] }

// Set stores v at (y, x, ch).
func (a *Array) Set(y, x, ch int, v float32) { a.Data[a.Index(y, x, ch)] = v }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	data := make([]float32, len(a.Data))
	copy(data, a.Data)
	return &Array{H: a.H, W: a.W, C: a.C, Data: data}
}

// SameShape reports whether a and b have identical dimensions.
func (a *Array) SameShape(b *Array) bool {
	return a.H == b.H && a.W == b.W && a.C == b.C
}

// Crop copies the window starting at (y0, x0) with size h x w.
// The window must lie inside the array.
func (a *Array) Crop(y0, x0, h, w int) *Array {
	out := NewArray(h, w, a.C)
	rowLen := w * a.C
	for y := range h {
		src := a.Index(y0+y, x0, 0)
		copy(out.Data[y*rowLen:(y+1)*rowLen], a.Data[src:src+rowLen])
	}
	return out
}

// String returns a short shape description.
func (a *Array) String() string {
	return fmt.Sprintf("Array[%d %d %d]", a.H, a.W, a.C)
}
