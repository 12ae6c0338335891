package augment

import (
	"math/rand/v2"

	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/tensor"
)

// Pre-emphasis border handling for the sample before the first.
const (
	BorderClamp   = "clamp"
	BorderZero    = "zero"
	BorderReflect = "reflect"
)

// PreemphasisParams configure y[n] = x[n] - coeff*x[n-1] along each row.
type PreemphasisParams struct {
	Coeff  float64 `mapstructure:"preemph_coeff" validate:"gte=0,lte=1"`
	Border string  `mapstructure:"border" validate:"oneof=clamp zero reflect"`
}

func preemphasisOp() dag.OpSpec {
	return unary("preemphasis_filter", false,
		func() any { return &PreemphasisParams{Coeff: 0.97, Border: BorderClamp} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			p := params.(*PreemphasisParams)
			c := float32(p.Coeff)
			out := tensor.NewArray(a.H, a.W, a.C)
			for y := range a.H {
				for ch := range a.C {
					var prev float32
					switch p.Border {
					case BorderClamp:
						prev = a.At(y, 0, ch)
					case BorderReflect:
						if a.W > 1 {
							prev = a.At(y, 1, ch)
						}
					}
					for x := range a.W {
						v := a.At(y, x, ch)
						out.Set(y, x, ch, v-c*prev)
						prev = v
					}
				}
			}
			return out, nil
		})
}

// SliceParams select Length samples starting at Anchor along each row.
// Positions outside the input are filled with FillValue.
type SliceParams struct {
	Anchor    int     `mapstructure:"anchor" validate:"gte=0"`
	Length    int     `mapstructure:"length" validate:"gt=0"`
	FillValue float64 `mapstructure:"fill_value"`
}

func sliceOp() dag.OpSpec {
	return unary("slice", false,
		func() any { return &SliceParams{} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			p := params.(*SliceParams)
			out := tensor.NewArray(a.H, p.Length, a.C)
			fill := float32(p.FillValue)
			for y := range a.H {
				for x := range p.Length {
					sx := p.Anchor + x
					for ch := range a.C {
						if sx < a.W {
							out.Set(y, x, ch, a.At(y, sx, ch))
						} else {
							out.Set(y, x, ch, fill)
						}
					}
				}
			}
			return out, nil
		})
}
