package augment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/tensor"
)

// NormalizeParams hold per-channel statistics. A single value applies to
// every channel; otherwise there must be one value per channel.
type NormalizeParams struct {
	Mean []float64 `mapstructure:"mean" validate:"min=1"`
	Std  []float64 `mapstructure:"std" validate:"min=1,dive,gt=0"`
}

func (p *NormalizeParams) Validate() error {
	if len(p.Mean) != len(p.Std) {
		return fmt.Errorf("mean and std must have the same length")
	}
	return nil
}

// apply writes (x - mean) / std of a into out, which may alias a copy of a.
func (p *NormalizeParams) apply(a, out *tensor.Array) error {
	if len(p.Mean) != 1 && len(p.Mean) != a.C {
		return fmt.Errorf("%d normalization values for %d channels", len(p.Mean), a.C)
	}
	for i, v := range a.Data {
		ch := 0
		if len(p.Mean) > 1 {
			ch = i % a.C
		}
		out.Data[i] = float32((float64(v) - p.Mean[ch]) / p.Std[ch])
	}
	return nil
}

func normalizeOp() dag.OpSpec {
	return unary("normalize", false,
		func() any { return &NormalizeParams{Mean: []float64{0}, Std: []float64{1}} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			out := tensor.NewArray(a.H, a.W, a.C)
			if err := params.(*NormalizeParams).apply(a, out); err != nil {
				return nil, err
			}
			return out, nil
		})
}

// CropMirrorNormalizeParams fuse an optional crop, an optional horizontal
// mirror and normalization. A zero crop size keeps the full input. With a
// scalar input the mirror follows it; otherwise Mirror is the probability.
type CropMirrorNormalizeParams struct {
	CropWidth  int       `mapstructure:"crop_w" validate:"gte=0"`
	CropHeight int       `mapstructure:"crop_h" validate:"gte=0"`
	PosX       float64   `mapstructure:"crop_pos_x" validate:"gte=0,lte=1"`
	PosY       float64   `mapstructure:"crop_pos_y" validate:"gte=0,lte=1"`
	Mean       []float64 `mapstructure:"mean" validate:"min=1"`
	Std        []float64 `mapstructure:"std" validate:"min=1,dive,gt=0"`
	Mirror     float64   `mapstructure:"mirror" validate:"gte=0,lte=1"`
}

func (p *CropMirrorNormalizeParams) Validate() error {
	if (p.CropWidth == 0) != (p.CropHeight == 0) {
		return fmt.Errorf("crop_w and crop_h must be set together")
	}
	if len(p.Mean) != len(p.Std) {
		return fmt.Errorf("mean and std must have the same length")
	}
	return nil
}

func cropMirrorNormalizeOp() dag.OpSpec {
	return dag.OpSpec{
		Name:       "crop_mirror_normalize",
		Inputs:     []dag.ValueKind{dag.KindArray, dag.KindScalar},
		MinInputs:  1,
		Output:     dag.KindArray,
		Stochastic: true,
		Params: func() any {
			return &CropMirrorNormalizeParams{PosX: 0.5, PosY: 0.5, Mean: []float64{0}, Std: []float64{1}}
		},
		Fn: func(_ context.Context, in []dag.Value, params any, rng *rand.Rand) (dag.Value, error) {
			p := params.(*CropMirrorNormalizeParams)
			a := in[0].Array
			if p.CropWidth > 0 {
				var err error
				if a, err = cropWindow(a, p.CropWidth, p.CropHeight, p.PosX, p.PosY); err != nil {
					return dag.Value{}, err
				}
			}
			var mirror bool
			if len(in) > 1 {
				mirror = in[1].Scalar >= 0.5
			} else {
				mirror = rng.Float64() < p.Mirror
			}
			if mirror {
				a = flip(a, true, false)
			}
			out := tensor.NewArray(a.H, a.W, a.C)
			norm := NormalizeParams{Mean: p.Mean, Std: p.Std}
			if err := norm.apply(a, out); err != nil {
				return dag.Value{}, err
			}
			return dag.ArrayValue(out), nil
		},
	}
}

// BrightnessParams: out = x*alpha + beta.
type BrightnessParams struct {
	Alpha float64 `mapstructure:"alpha" validate:"gte=0"`
	Beta  float64 `mapstructure:"beta"`
}

func brightnessOp() dag.OpSpec {
	return unary("brightness", false,
		func() any { return &BrightnessParams{Alpha: 1} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			p := params.(*BrightnessParams)
			alpha, beta := float32(p.Alpha), float32(p.Beta)
			return mapValues(a, func(v float32) float32 { return clamp255(v*alpha + beta) }), nil
		})
}

// ContrastParams scale the distance of each value from the array mean.
type ContrastParams struct {
	Factor float64 `mapstructure:"contrast" validate:"gte=0"`
}

func contrast(a *tensor.Array, factor float64) *tensor.Array {
	var sum float64
	for _, v := range a.Data {
		sum += float64(v)
	}
	mean := float32(sum / float64(max(1, len(a.Data))))
	f := float32(factor)
	return mapValues(a, func(v float32) float32 { return clamp255(mean + (v-mean)*f) })
}

func contrastOp() dag.OpSpec {
	return unary("contrast", false,
		func() any { return &ContrastParams{Factor: 1} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			return contrast(a, params.(*ContrastParams).Factor), nil
		})
}

// ExposureParams: out = x * 2^shift.
type ExposureParams struct {
	Shift float64 `mapstructure:"exposure"`
}

func exposureOp() dag.OpSpec {
	return unary("exposure", false,
		func() any { return &ExposureParams{} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			gain := float32(math.Exp2(params.(*ExposureParams).Shift))
			return mapValues(a, func(v float32) float32 { return clamp255(v * gain) }), nil
		})
}

// SaturationParams scale the distance of each RGB pixel from its luma.
type SaturationParams struct {
	Factor float64 `mapstructure:"saturation" validate:"gte=0"`
}

func saturate(a *tensor.Array, factor float64) (*tensor.Array, error) {
	if a.C != 3 {
		return nil, fmt.Errorf("saturation needs 3 channels, got %d", a.C)
	}
	out := tensor.NewArray(a.H, a.W, a.C)
	f := float32(factor)
	for i := 0; i < len(a.Data); i += 3 {
		r, g, b := a.Data[i], a.Data[i+1], a.Data[i+2]
		gray := 0.299*r + 0.587*g + 0.114*b
		out.Data[i] = clamp255(gray + (r-gray)*f)
		out.Data[i+1] = clamp255(gray + (g-gray)*f)
		out.Data[i+2] = clamp255(gray + (b-gray)*f)
	}
	return out, nil
}

func saturationOp() dag.OpSpec {
	return unary("saturation", false,
		func() any { return &SaturationParams{Factor: 1} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			return saturate(a, params.(*SaturationParams).Factor)
		})
}

// ColorJitterParams hold [min, max] ranges of random brightness, contrast
// and saturation factors. Saturation is skipped for non-RGB arrays.
type ColorJitterParams struct {
	Brightness []float64 `mapstructure:"brightness" validate:"len=2,dive,gte=0"`
	Contrast   []float64 `mapstructure:"contrast" validate:"len=2,dive,gte=0"`
	Saturation []float64 `mapstructure:"saturation" validate:"len=2,dive,gte=0"`
}

func (p *ColorJitterParams) Validate() error {
	for name, r := range map[string][]float64{"brightness": p.Brightness, "contrast": p.Contrast, "saturation": p.Saturation} {
		if r[0] > r[1] {
			return fmt.Errorf("%s range must be [min, max]", name)
		}
	}
	return nil
}

func colorJitterOp() dag.OpSpec {
	return unary("color_jitter", true,
		func() any {
			return &ColorJitterParams{Brightness: []float64{1, 1}, Contrast: []float64{1, 1}, Saturation: []float64{1, 1}}
		},
		func(a *tensor.Array, params any, rng *rand.Rand) (*tensor.Array, error) {
			p := params.(*ColorJitterParams)
			// Draw all factors up front so the stream does not depend on
			// the channel count.
			bf := float32(uniform(rng, p.Brightness[0], p.Brightness[1]))
			cf := uniform(rng, p.Contrast[0], p.Contrast[1])
			sf := uniform(rng, p.Saturation[0], p.Saturation[1])

			out := mapValues(a, func(v float32) float32 { return clamp255(v * bf) })
			out = contrast(out, cf)
			if a.C == 3 {
				return saturate(out, sf)
			}
			return out, nil
		})
}
