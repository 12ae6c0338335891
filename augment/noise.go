package augment

import (
	"fmt"
	"math/rand/v2"

	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/tensor"
)

// SNPNoiseParams configure salt-and-pepper noise. Each pixel is hit with
// probability NoiseProb; a hit becomes Salt with probability SaltProb and
// Pepper otherwise, across all channels.
type SNPNoiseParams struct {
	NoiseProb float64 `mapstructure:"noise_prob" validate:"gte=0,lte=1"`
	SaltProb  float64 `mapstructure:"salt_prob" validate:"gte=0,lte=1"`
	Salt      float64 `mapstructure:"salt_value"`
	Pepper    float64 `mapstructure:"pepper_value"`
}

func snpNoiseOp() dag.OpSpec {
	return unary("snp_noise", true,
		func() any { return &SNPNoiseParams{NoiseProb: 0.05, SaltProb: 0.5, Salt: 255} },
		func(a *tensor.Array, params any, rng *rand.Rand) (*tensor.Array, error) {
			p := params.(*SNPNoiseParams)
			out := a.Clone()
			for i := 0; i < len(out.Data); i += a.C {
				if rng.Float64() >= p.NoiseProb {
					continue
				}
				v := float32(p.Pepper)
				if rng.Float64() < p.SaltProb {
					v = float32(p.Salt)
				}
				for ch := range a.C {
					out.Data[i+ch] = v
				}
			}
			return out, nil
		})
}

// BlurParams configure a box blur with an odd square kernel. Borders
// replicate the edge pixels.
type BlurParams struct {
	KernelSize int `mapstructure:"kernel_size" validate:"gt=0"`
}

func (p *BlurParams) Validate() error {
	if p.KernelSize%2 == 0 {
		return fmt.Errorf("kernel_size must be odd")
	}
	return nil
}

func blurOp() dag.OpSpec {
	return unary("blur", false,
		func() any { return &BlurParams{KernelSize: 3} },
		func(a *tensor.Array, params any, _ *rand.Rand) (*tensor.Array, error) {
			r := params.(*BlurParams).KernelSize / 2
			if r == 0 {
				return a, nil
			}
			tmp := boxPass(a, r, true)
			return boxPass(tmp, r, false), nil
		})
}

// boxPass averages over a 2r+1 window along one axis.
func boxPass(a *tensor.Array, r int, horizontal bool) *tensor.Array {
	out := tensor.NewArray(a.H, a.W, a.C)
	n := float32(2*r + 1)
	for y := range a.H {
		for x := range a.W {
			for ch := range a.C {
				var sum float32
				for k := -r; k <= r; k++ {
					sy, sx := y, x
					if horizontal {
						sx = min(max(x+k, 0), a.W-1)
					} else {
						sy = min(max(y+k, 0), a.H-1)
					}
					sum += a.At(sy, sx, ch)
				}
				out.Set(y, x, ch, sum/n)
			}
		}
	}
	return out
}
