package dag

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/tensor"
	"github.com/kbukum/augkit/validation"
)

// Graph is a frozen, validated graph ready for execution.
type Graph struct {
	Name  string
	Nodes map[string]Node
	Edges []Edge
	// Levels groups node names by dependency level.
	Levels [][]string
	// Order lists node names in declaration order.
	Order []string
	// Outputs names the output nodes in output order.
	Outputs []string
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// Decorate replaces every node with wrap(node).
func (g *Graph) Decorate(wrap func(Node) Node) {
	for name, n := range g.Nodes {
		g.Nodes[name] = wrap(n)
	}
}

// FreezeOptions carry the pipeline-wide output element type and layout.
// Output nodes that pin a different one are rejected. Empty values skip the
// check.
type FreezeOptions struct {
	DType  tensor.DType
	Layout tensor.Layout
}

// Freeze validates def against reg and returns the executable graph.
//
// Checks run in this order: node names, unknown ops and inputs, arity and
// value kinds and parameters, cycles, forward references, outputs. A cycle
// is reported as a GraphCycleError even though its back edge is also a
// forward reference.
func Freeze(def *GraphDef, reg *Registry, opts FreezeOptions) (*Graph, error) {
	pos := make(map[string]int, len(def.Nodes))
	for i, nd := range def.Nodes {
		switch {
		case nd.Name == "":
			return nil, errors.GraphValidation("", fmt.Sprintf("node %d has no name", i))
		case nd.Name == SourceName:
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("node name %q is reserved", SourceName))
		}
		if _, dup := pos[nd.Name]; dup {
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("duplicate node name %q", nd.Name))
		}
		pos[nd.Name] = i
	}

	specs := make([]*OpSpec, len(def.Nodes))
	for i, nd := range def.Nodes {
		spec, ok := reg.Get(nd.Op)
		if !ok {
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("node %q uses unknown op %q", nd.Name, nd.Op))
		}
		for _, in := range nd.Inputs {
			if _, ok := pos[in]; !ok && in != SourceName {
				return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("node %q references unknown input %q", nd.Name, in))
			}
		}
		specs[i] = spec
	}
	kindOf := func(name string) ValueKind {
		if name == SourceName {
			return KindArray
		}
		return specs[pos[name]].Output
	}

	params := make([]any, len(def.Nodes))
	for i, nd := range def.Nodes {
		spec := specs[i]
		lo, hi := spec.arity()
		if n := len(nd.Inputs); n < lo || n > hi {
			want := fmt.Sprint(lo)
			if hi != lo {
				want = fmt.Sprintf("%d to %d", lo, hi)
			}
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("op %q of node %q takes %s inputs, got %d", nd.Op, nd.Name, want, n))
		}
		for j, in := range nd.Inputs {
			if got := kindOf(in); got != spec.Inputs[j] {
				return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("input %d of node %q must be a %s, %q produces a %s",
					j, nd.Name, spec.Inputs[j], in, got))
			}
		}
		p, err := decodeParams(nd, spec, slices.Contains(def.Outputs, nd.Name), opts)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}

	g := &Graph{
		Name:  def.Name,
		Nodes: make(map[string]Node, len(def.Nodes)),
		Order: make([]string, len(def.Nodes)),
	}
	for i, nd := range def.Nodes {
		g.Order[i] = nd.Name
		for _, in := range nd.Inputs {
			if in != SourceName {
				g.Edges = append(g.Edges, Edge{From: in, To: nd.Name})
			}
		}
	}
	levels, err := BuildLevels(g.Order, g.Edges)
	if err != nil {
		return nil, err
	}
	g.Levels = levels

	for i, nd := range def.Nodes {
		for _, in := range nd.Inputs {
			if in != SourceName && pos[in] > i {
				return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("node %q references %q before it is declared", nd.Name, in))
			}
		}
	}

	if len(def.Outputs) == 0 {
		return nil, errors.Configuration("outputs", "graph declares no output nodes")
	}
	for _, out := range def.Outputs {
		if _, ok := pos[out]; !ok && out != SourceName {
			return nil, errors.GraphValidation(out, fmt.Sprintf("output %q is not a node of the graph", out))
		}
		if kindOf(out) != KindArray {
			return nil, errors.GraphValidation(out, fmt.Sprintf("output %q must produce an array", out))
		}
	}
	g.Outputs = append([]string(nil), def.Outputs...)

	for i, nd := range def.Nodes {
		g.Nodes[nd.Name] = &opNode{name: nd.Name, spec: specs[i], params: params[i], inputs: nd.Inputs}
	}
	return g, nil
}

// decodeParams decodes and validates the raw params of nd into the op's
// parameter struct.
func decodeParams(nd NodeDef, spec *OpSpec, isOutput bool, opts FreezeOptions) (any, error) {
	raw := make(map[string]any, len(nd.Params))
	for k, v := range nd.Params {
		switch k {
		case ParamOutputDType, ParamOutputLayout:
			if !isOutput {
				return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("%s is only valid on output nodes (node %q)", k, nd.Name))
			}
			if err := checkOutputFormat(nd.Name, k, fmt.Sprint(v), opts); err != nil {
				return nil, err
			}
		default:
			raw[k] = v
		}
	}

	if spec.Params == nil {
		if len(raw) > 0 {
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("op %q of node %q takes no parameters", spec.Name, nd.Name))
		}
		return nil, nil
	}

	p := spec.Params()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("invalid parameters for node %q: %v", nd.Name, err))
	}
	if err := validation.Params(nd.Name, p); err != nil {
		return nil, err
	}
	if v, ok := p.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, errors.GraphValidation(nd.Name, fmt.Sprintf("invalid parameters for node %q: %v", nd.Name, err))
		}
	}
	return p, nil
}

func checkOutputFormat(node, key, value string, opts FreezeOptions) error {
	var pinned, pipeline string
	switch key {
	case ParamOutputDType:
		d, err := tensor.ParseDType(value)
		if err != nil {
			return errors.GraphValidation(node, err.Error())
		}
		pinned, pipeline = string(d), string(opts.DType)
	default:
		l, err := tensor.ParseLayout(value)
		if err != nil {
			return errors.GraphValidation(node, err.Error())
		}
		pinned, pipeline = string(l), string(opts.Layout)
	}
	if pipeline != "" && pinned != pipeline {
		return errors.GraphValidation(node, fmt.Sprintf("node %q pins %s %s, but the pipeline produces %s", node, key, pinned, pipeline))
	}
	return nil
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level can execute in parallel and keep their order
// from names. Returns a GraphCycleError naming the nodes on or behind a
// cycle.
func BuildLevels(names []string, edges []Edge) ([][]string, error) {
	pos := make(map[string]int, len(names))
	inDegree := make(map[string]int, len(names))
	for i, name := range names {
		pos[name] = i
		inDegree[name] = 0
	}

	dependents := make(map[string][]string) // from -> [to...]
	for _, e := range edges {
		if _, ok := pos[e.From]; !ok {
			return nil, errors.GraphValidation(e.To, fmt.Sprintf("edge references unknown node %q", e.From))
		}
		if _, ok := pos[e.To]; !ok {
			return nil, errors.GraphValidation(e.From, fmt.Sprintf("edge references unknown node %q", e.To))
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	// Collect nodes with no incoming edges (level 0)
	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0
	byPos := func(a, b string) int { return pos[a] - pos[b] }

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		slices.SortFunc(next, byPos)
		queue = next
	}

	if visited != len(names) {
		var stuck []string
		for _, name := range names {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		slices.Sort(stuck)
		return nil, errors.GraphCycle(stuck)
	}

	return levels, nil
}
