package tensor

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// DType is a batch element type.
type DType string

const (
	Uint8   DType = "uint8"
	Float32 DType = "float32"
	Float16 DType = "float16"
)

// Layout is a batch memory layout.
type Layout string

const (
	// NCHW is channel-first.
	NCHW Layout = "NCHW"
	// NHWC is channel-last.
	NHWC Layout = "NHWC"
)

// ParseDType validates a configured element type.
func ParseDType(s string) (DType, error) {
	switch d := DType(s); d {
	case Uint8, Float32, Float16:
		return d, nil
	}
	return "", fmt.Errorf("tensor: unknown element type %q", s)
}

// ParseLayout validates a configured layout.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case NCHW, NHWC:
		return l, nil
	}
	return "", fmt.Errorf("tensor: unknown layout %q", s)
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Uint8:
		return 1
	case Float16:
		return 2
	default:
		return 4
	}
}

// Tensor is a contiguous batch. Exactly one of U8, F32 or F16 is populated,
// matching DType.
type Tensor struct {
	DType  DType
	Layout Layout
	// Shape is [N, C, H, W] for NCHW and [N, H, W, C] for NHWC.
	Shape []int
	U8    []uint8
	F32   []float32
	F16   []float16.Float16
}

// New allocates a zeroed batch tensor for n samples of h x w x c.
func New(dtype DType, layout Layout, n, h, w, c int) *Tensor {
	t := &Tensor{DType: dtype, Layout: layout}
	if layout == NCHW {
		t.Shape = []int{n, c, h, w}
	} else {
		t.Shape = []int{n, h, w, c}
	}
	size := n * h * w * c
	switch dtype {
	case Uint8:
		t.U8 = make([]uint8, size)
	case Float16:
		t.F16 = make([]float16.Float16, size)
	default:
		t.F32 = make([]float32, size)
	}
	return t
}

// Len returns the total number of elements.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Batch returns the leading dimension.
func (t *Tensor) Batch() int { return t.Shape[0] }

// Bytes returns the payload size in bytes.
func (t *Tensor) Bytes() int { return t.Len() * t.DType.Size() }

// SetFloat stores v at flat offset i, converting to the element type.
// uint8 values are rounded and saturated to [0, 255].
func (t *Tensor) SetFloat(i int, v float32) {
	switch t.DType {
	case Uint8:
		t.U8[i] = saturateU8(v)
	case Float16:
		t.F16[i] = float16.Fromfloat32(v)
	default:
		t.F32[i] = v
	}
}

// Float returns the element at flat offset i as float32.
func (t *Tensor) Float(i int) float32 {
	switch t.DType {
	case Uint8:
		return float32(t.U8[i])
	case Float16:
		return t.F16[i].Float32()
	default:
		return t.F32[i]
	}
}

// Floats returns all elements widened to float32.
func (t *Tensor) Floats() []float32 {
	if t.DType == Float32 {
		out := make([]float32, len(t.F32))
		copy(out, t.F32)
		return out
	}
	out := make([]float32, t.Len())
	for i := range out {
		out[i] = t.Float(i)
	}
	return out
}

// Put writes sample n from an HWC array into the tensor honoring Layout.
// The array shape must match the tensor's per-sample shape.
func (t *Tensor) Put(n int, a *Array) {
	plane := a.H * a.W
	base := n * plane * a.C
	if t.Layout == NHWC {
		for i, v := range a.Data {
			t.SetFloat(base+i, v)
		}
		return
	}
	for p := range plane {
		for ch := range a.C {
			t.SetFloat(base+ch*plane+p, a.Data[p*a.C+ch])
		}
	}
}

// Sample extracts sample n as an HWC array.
func (t *Tensor) Sample(n int) *Array {
	var h, w, c int
	if t.Layout == NCHW {
		c, h, w = t.Shape[1], t.Shape[2], t.Shape[3]
	} else {
		h, w, c = t.Shape[1], t.Shape[2], t.Shape[3]
	}
	a := NewArray(h, w, c)
	plane := h * w
	base := n * plane * c
	for p := range plane {
		for ch := range c {
			if t.Layout == NHWC {
				a.Data[p*c+ch] = t.Float(base + p*c + ch)
			} else {
				a.Data[p*c+ch] = t.Float(base + ch*plane + p)
			}
		}
	}
	return a
}

func saturateU8(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case math.IsNaN(r) || r <= 0:
		return 0
	case r >= 255:
		return 255
	}
	return uint8(r)
}
