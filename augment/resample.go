package augment

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/kbukum/augkit/tensor"
)

// Interpolation modes.
const (
	InterpNearest = "nearest"
	InterpLinear  = "linear"
	InterpCubic   = "cubic"
	InterpLanczos = "lanczos"
)

// lanczos3 is the 3-lobe Lanczos windowed sinc.
var lanczos3 = &draw.Kernel{Support: 3, At: func(t float64) float64 {
	if t == 0 {
		return 1
	}
	if t >= 3 {
		return 0
	}
	pt := math.Pi * t
	return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
}}

func interpolator(mode string) (draw.Interpolator, error) {
	switch mode {
	case InterpNearest:
		return draw.NearestNeighbor, nil
	case InterpLinear, "":
		return draw.BiLinear, nil
	case InterpCubic:
		return draw.CatmullRom, nil
	case InterpLanczos:
		return lanczos3, nil
	}
	return nil, fmt.Errorf("unknown interpolation %q", mode)
}

// channelImage copies one channel of a into a 16-bit gray image, mapping
// [0, 255] onto the full 16-bit range.
func channelImage(a *tensor.Array, ch int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, a.W, a.H))
	for y := range a.H {
		for x := range a.W {
			v := clamp255(a.At(y, x, ch))
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*257 + 0.5)})
		}
	}
	return img
}

// storeChannel writes img back into channel ch of a.
func storeChannel(a *tensor.Array, ch int, img *image.Gray16) {
	for y := range a.H {
		for x := range a.W {
			a.Set(y, x, ch, float32(img.Gray16At(x, y).Y)/257)
		}
	}
}

// scale resamples a to h x w, one channel at a time.
func scale(a *tensor.Array, h, w int, interp draw.Interpolator) *tensor.Array {
	out := tensor.NewArray(h, w, a.C)
	for ch := range a.C {
		src := channelImage(a, ch)
		dst := image.NewGray16(image.Rect(0, 0, w, h))
		interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		storeChannel(out, ch, dst)
	}
	return out
}

// rotate turns a by deg degrees counter-clockwise about its center. The
// output keeps the input size; uncovered pixels are zero.
func rotate(a *tensor.Array, deg float64, interp draw.Interpolator) *tensor.Array {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx, cy := float64(a.W)/2, float64(a.H)/2
	// Image y grows downwards, so a counter-clockwise turn negates sin.
	s2d := f64.Aff3{
		cos, sin, cx - cos*cx - sin*cy,
		-sin, cos, cy + sin*cx - cos*cy,
	}
	out := tensor.NewArray(a.H, a.W, a.C)
	for ch := range a.C {
		src := channelImage(a, ch)
		dst := image.NewGray16(src.Bounds())
		interp.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
		storeChannel(out, ch, dst)
	}
	return out
}
