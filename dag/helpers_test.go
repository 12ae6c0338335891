package dag

import (
	"context"
	"math/rand/v2"

	"github.com/kbukum/augkit/tensor"
)

// funcNode is a simple Node implementation for testing.
type funcNode struct {
	name string
	fn   func(ctx context.Context, state *State) (Value, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Run(ctx context.Context, state *State) (Value, error) {
	return n.fn(ctx, state)
}

func newFuncNode(name string, fn func(ctx context.Context, state *State) (Value, error)) Node {
	return &funcNode{name: name, fn: fn}
}

type scaleParams struct {
	Factor float64 `mapstructure:"factor" validate:"gt=0"`
}

// testRegistry registers a handful of small ops over 1x1x1 arrays.
func testRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(OpSpec{
		Name:   "scale",
		Inputs: []ValueKind{KindArray},
		Output: KindArray,
		Params: func() any { return &scaleParams{Factor: 1} },
		Fn: func(_ context.Context, in []Value, params any, _ *rand.Rand) (Value, error) {
			p := params.(*scaleParams)
			out := in[0].Array.Clone()
			for i := range out.Data {
				out.Data[i] *= float32(p.Factor)
			}
			return ArrayValue(out), nil
		},
	})
	reg.MustRegister(OpSpec{
		Name:   "add",
		Inputs: []ValueKind{KindArray, KindArray},
		Output: KindArray,
		Fn: func(_ context.Context, in []Value, _ any, _ *rand.Rand) (Value, error) {
			out := in[0].Array.Clone()
			for i := range out.Data {
				out.Data[i] += in[1].Array.Data[i]
			}
			return ArrayValue(out), nil
		},
	})
	reg.MustRegister(OpSpec{
		Name:       "coin",
		Output:     KindScalar,
		Stochastic: true,
		Fn: func(_ context.Context, _ []Value, _ any, rng *rand.Rand) (Value, error) {
			return ScalarValue(rng.Float64()), nil
		},
	})
	reg.MustRegister(OpSpec{
		Name:      "gate",
		Inputs:    []ValueKind{KindArray, KindScalar},
		MinInputs: 1,
		Output:    KindArray,
		Fn: func(_ context.Context, in []Value, _ any, _ *rand.Rand) (Value, error) {
			if len(in) > 1 && in[1].Scalar < 0.5 {
				return ArrayValue(tensor.NewArray(in[0].Array.H, in[0].Array.W, in[0].Array.C)), nil
			}
			return in[0], nil
		},
	})
	reg.MustRegister(OpSpec{
		Name:   "boom",
		Inputs: []ValueKind{KindArray},
		Output: KindArray,
		Fn: func(context.Context, []Value, any, *rand.Rand) (Value, error) {
			panic("boom")
		},
	})
	return reg
}

func one(v float32) Value {
	return ArrayValue(tensor.FromSlice(1, 1, 1, []float32{v}))
}
