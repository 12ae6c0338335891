package augment

import (
	"context"
	"math/rand/v2"

	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/tensor"
)

// Ops returns the specs of every op in the library.
func Ops() []dag.OpSpec {
	return []dag.OpSpec{
		resizeOp(),
		cropOp(),
		centerCropOp(),
		flipOp(),
		coinFlipOp(),
		cropMirrorNormalizeOp(),
		normalizeOp(),
		brightnessOp(),
		contrastOp(),
		exposureOp(),
		saturationOp(),
		colorJitterOp(),
		rotateOp(),
		snpNoiseOp(),
		blurOp(),
		preemphasisOp(),
		sliceOp(),
	}
}

// Register adds every op of the library to reg.
func Register(reg *dag.Registry) error {
	for _, spec := range Ops() {
		if err := reg.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the whole library.
func NewRegistry() *dag.Registry {
	reg := dag.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

// arrayFunc transforms the first input array.
type arrayFunc func(a *tensor.Array, params any, rng *rand.Rand) (*tensor.Array, error)

// unary declares an op with one array input and an array output.
func unary(name string, stochastic bool, params func() any, fn arrayFunc) dag.OpSpec {
	return dag.OpSpec{
		Name:       name,
		Inputs:     []dag.ValueKind{dag.KindArray},
		Output:     dag.KindArray,
		Stochastic: stochastic,
		Params:     params,
		Fn: func(ctx context.Context, in []dag.Value, params any, rng *rand.Rand) (dag.Value, error) {
			if err := ctx.Err(); err != nil {
				return dag.Value{}, err
			}
			out, err := fn(in[0].Array, params, rng)
			if err != nil {
				return dag.Value{}, err
			}
			return dag.ArrayValue(out), nil
		},
	}
}

// mapValues applies f to every element of a copy of a.
func mapValues(a *tensor.Array, f func(float32) float32) *tensor.Array {
	out := tensor.NewArray(a.H, a.W, a.C)
	for i, v := range a.Data {
		out.Data[i] = f(v)
	}
	return out
}

func clamp255(v float32) float32 {
	return min(max(v, 0), 255)
}

// uniform draws from [lo, hi].
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
