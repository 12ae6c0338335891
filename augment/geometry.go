package augment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/tensor"
)

// ResizeParams selects exactly one sizing mode: explicit width and/or
// height (a missing side keeps the aspect ratio), the shorter side, or the
// longer side.
type ResizeParams struct {
	Width         int    `mapstructure:"resize_width" validate:"gte=0"`
	Height        int    `mapstructure:"resize_height" validate:"gte=0"`
	Shorter       int    `mapstructure:"resize_shorter" validate:"gte=0"`
	Longer        int    `mapstructure:"resize_longer" validate:"gte=0"`
	Interpolation string `mapstructure:"interpolation" validate:"oneof=nearest linear cubic lanczos"`
}

func (p *ResizeParams) Validate() error {
	modes := 0
	if p.Width > 0 || p.Height > 0 {
		modes++
	}
	if p.Shorter > 0 {
		modes++
	}
	if p.Longer > 0 {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("set exactly one of resize_width/resize_height, resize_shorter or resize_longer")
	}
	return nil
}

// target returns the output size for an h x w input.
func (p *ResizeParams) target(h, w int) (int, int) {
	fh, fw := float64(h), float64(w)
	switch {
	case p.Width > 0 && p.Height > 0:
		return p.Height, p.Width
	case p.Width > 0:
		return max(1, int(math.Round(fh*float64(p.Width)/fw))), p.Width
	case p.Height > 0:
		return p.Height, max(1, int(math.Round(fw*float64(p.Height)/fh)))
	case p.Shorter > 0:
		s := float64(p.Shorter) / math.Min(fh, fw)
		return max(1, int(math.Round(fh*s))), max(1, int(math.Round(fw*s)))
	default:
		s := float64(p.Longer) / math.Max(fh, fw)
		return max(1, int(math.Round(fh*s))), max(1, int(math.Round(fw*s)))
	}
}

func resizeOp() dag.OpSpec {
	return unary("resize", false,
		func() any { return &ResizeParams{Interpolation: InterpLinear} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			p := params.(*ResizeParams)
			interp, err := interpolator(p.Interpolation)
			if err != nil {
				return nil, err
			}
			h, w := p.target(a.H, a.W)
			if h == a.H && w == a.W {
				return a, nil
			}
			return scale(a, h, w, interp), nil
		})
}

// CropParams configure a fixed-size window. The anchor is relative: 0 is
// the top/left edge, 1 the bottom/right edge, 0.5 centers the window.
type CropParams struct {
	Width  int     `mapstructure:"crop_w" validate:"gt=0"`
	Height int     `mapstructure:"crop_h" validate:"gt=0"`
	PosX   float64 `mapstructure:"crop_pos_x" validate:"gte=0,lte=1"`
	PosY   float64 `mapstructure:"crop_pos_y" validate:"gte=0,lte=1"`
	// Random draws the anchor uniformly instead of using PosX/PosY.
	Random bool `mapstructure:"random"`
}

func cropWindow(a *tensor.Array, w, h int, posX, posY float64) (*tensor.Array, error) {
	if w > a.W || h > a.H {
		return nil, fmt.Errorf("crop %dx%d exceeds input %dx%d", w, h, a.W, a.H)
	}
	x0 := int(math.Round(posX * float64(a.W-w)))
	y0 := int(math.Round(posY * float64(a.H-h)))
	return a.Crop(y0, x0, h, w), nil
}

func cropOp() dag.OpSpec {
	return unary("crop", true,
		func() any { return &CropParams{PosX: 0.5, PosY: 0.5} },
		func(a *tensor.Array, params any, rng *rand.Rand) (*tensor.Array, error) {
			p := params.(*CropParams)
			x, y := p.PosX, p.PosY
			if p.Random {
				x, y = rng.Float64(), rng.Float64()
			}
			return cropWindow(a, p.Width, p.Height, x, y)
		})
}

// CenterCropParams configure a centered window.
type CenterCropParams struct {
	Width  int `mapstructure:"crop_w" validate:"gt=0"`
	Height int `mapstructure:"crop_h" validate:"gt=0"`
}

func centerCropOp() dag.OpSpec {
	return unary("center_crop", false,
		func() any { return &CenterCropParams{} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			p := params.(*CenterCropParams)
			return cropWindow(a, p.Width, p.Height, 0.5, 0.5)
		})
}

// FlipParams configure mirroring. With a scalar input the flip happens when
// the input is at least 0.5; otherwise with the given probability.
type FlipParams struct {
	Horizontal  bool    `mapstructure:"horizontal"`
	Vertical    bool    `mapstructure:"vertical"`
	Probability float64 `mapstructure:"probability" validate:"gte=0,lte=1"`
}

func flip(a *tensor.Array, horizontal, vertical bool) *tensor.Array {
	out := tensor.NewArray(a.H, a.W, a.C)
	for y := range a.H {
		sy := y
		if vertical {
			sy = a.H - 1 - y
		}
		for x := range a.W {
			sx := x
			if horizontal {
				sx = a.W - 1 - x
			}
			copy(out.Data[out.Index(y, x, 0):out.Index(y, x, 0)+a.C], a.Data[a.Index(sy, sx, 0):a.Index(sy, sx, 0)+a.C])
		}
	}
	return out
}

func flipOp() dag.OpSpec {
	return dag.OpSpec{
		Name:       "flip",
		Inputs:     []dag.ValueKind{dag.KindArray, dag.KindScalar},
		MinInputs:  1,
		Output:     dag.KindArray,
		Stochastic: true,
		Params:     func() any { return &FlipParams{Horizontal: true, Probability: 1} },
		Fn: func(_ context.Context, in []dag.Value, params any, rng *rand.Rand) (dag.Value, error) {
			p := params.(*FlipParams)
			var do bool
			if len(in) > 1 {
				do = in[1].Scalar >= 0.5
			} else {
				do = rng.Float64() < p.Probability
			}
			if !do || (!p.Horizontal && !p.Vertical) {
				return in[0], nil
			}
			return dag.ArrayValue(flip(in[0].Array, p.Horizontal, p.Vertical)), nil
		},
	}
}

// CoinFlipParams configure a Bernoulli draw producing 1 or 0.
type CoinFlipParams struct {
	Probability float64 `mapstructure:"probability" validate:"gte=0,lte=1"`
}

func coinFlipOp() dag.OpSpec {
	return dag.OpSpec{
		Name:       "coin_flip",
		Output:     dag.KindScalar,
		Stochastic: true,
		Params:     func() any { return &CoinFlipParams{Probability: 0.5} },
		Fn: func(_ context.Context, _ []dag.Value, params any, rng *rand.Rand) (dag.Value, error) {
			if rng.Float64() < params.(*CoinFlipParams).Probability {
				return dag.ScalarValue(1), nil
			}
			return dag.ScalarValue(0), nil
		},
	}
}

// RotateParams configure a rotation about the center, counter-clockwise in
// degrees. A two-element AngleRange draws the angle uniformly.
type RotateParams struct {
	Angle         float64   `mapstructure:"angle"`
	AngleRange    []float64 `mapstructure:"angle_range" validate:"omitempty,len=2"`
	Interpolation string    `mapstructure:"interpolation" validate:"oneof=nearest linear cubic lanczos"`
}

func (p *RotateParams) Validate() error {
	if len(p.AngleRange) == 2 && p.AngleRange[0] > p.AngleRange[1] {
		return fmt.Errorf("angle_range must be [min, max]")
	}
	return nil
}

func rotateOp() dag.OpSpec {
	return unary("rotate", true,
		func() any { return &RotateParams{Interpolation: InterpLinear} },
		func(a *tensor.Array, params any, rng *rand.Rand) (*tensor.Array, error) {
			p := params.(*RotateParams)
			angle := p.Angle
			if len(p.AngleRange) == 2 {
				angle = uniform(rng, p.AngleRange[0], p.AngleRange[1])
			}
			if angle == 0 {
				return a, nil
			}
			interp, err := interpolator(p.Interpolation)
			if err != nil {
				return nil, err
			}
			return rotate(a, angle, interp), nil
		})
}
