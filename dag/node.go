package dag

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kbukum/augkit/errors"
)

// Node is the execution unit in a frozen graph. The engine stores the
// returned value in the state under the node's name.
type Node interface {
	Name() string
	Run(ctx context.Context, state *State) (Value, error)
}

// opNamer is implemented by nodes that apply a registered op.
type opNamer interface {
	Op() string
}

// OpName returns the op applied by n, or "" for custom nodes.
func OpName(n Node) string {
	if o, ok := n.(opNamer); ok {
		return o.Op()
	}
	return ""
}

// opNode applies a registered op to the values of its inputs.
type opNode struct {
	name   string
	spec   *OpSpec
	params any
	inputs []string
}

func (n *opNode) Name() string { return n.name }
func (n *opNode) Op() string { return n.spec.Name }

func (n *opNode) Run(ctx context.Context, state *State) (Value, error) {
	in := make([]Value, len(n.inputs))
	for i, name := range n.inputs {
		v, ok := state.Get(name)
		if !ok {
			return Value{}, errors.Internal(fmt.Errorf("dag: node %q input %q has no value", n.name, name))
		}
		in[i] = v
	}

	var rng *rand.Rand
	if n.spec.Stochastic {
		rng = SampleRNG(state.Seed, state.Index, n.name)
	}

	out, err := n.spec.Fn(ctx, in, n.params, rng)
	if err != nil {
		return Value{}, err
	}
	if out.Kind != n.spec.Output || (out.Kind == KindArray && out.Array == nil) {
		return Value{}, errors.Internal(fmt.Errorf("dag: op %q returned a %s, declared %s", n.spec.Name, out.Kind, n.spec.Output))
	}
	return out, nil
}
