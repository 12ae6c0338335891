package dag

import "fmt"

// Ref points at a node of a graph under construction.
type Ref struct {
	name string
}

// Name returns the referenced node name.
func (r Ref) Name() string { return r.name }

// Builder records a graph definition in declaration order. It performs no
// validation; errors surface when the definition is frozen.
type Builder struct {
	def    GraphDef
	counts map[string]int
}

// NewBuilder creates a builder for a graph named name.
func NewBuilder(name string) *Builder {
	return &Builder{def: GraphDef{Name: name}, counts: make(map[string]int)}
}

// Source returns the reference to the decoded sample.
func (b *Builder) Source() Ref { return Ref{name: SourceName} }

// Ref returns a reference to a node by name, declared or not.
func (b *Builder) Ref(name string) Ref { return Ref{name: name} }

// Add appends a node with a generated name "<op>_<n>".
func (b *Builder) Add(op string, params Params, inputs ...Ref) Ref {
	b.counts[op]++
	return b.Node(fmt.Sprintf("%s_%d", op, b.counts[op]), op, params, inputs...)
}

// Node appends a node with an explicit name.
func (b *Builder) Node(name, op string, params Params, inputs ...Ref) Ref {
	nd := NodeDef{Name: name, Op: op, Params: params, Inputs: make([]string, len(inputs))}
	for i, in := range inputs {
		nd.Inputs[i] = in.name
	}
	b.def.Nodes = append(b.def.Nodes, nd)
	return Ref{name: name}
}

// Outputs designates the output nodes, replacing any earlier designation.
func (b *Builder) Outputs(refs ...Ref) {
	b.def.Outputs = b.def.Outputs[:0]
	for _, r := range refs {
		b.def.Outputs = append(b.def.Outputs, r.name)
	}
}

// Merge appends the nodes of def and adopts its outputs when it has any.
func (b *Builder) Merge(def *GraphDef) {
	b.def.Nodes = append(b.def.Nodes, def.Clone().Nodes...)
	if len(def.Outputs) > 0 {
		b.def.Outputs = append([]string(nil), def.Outputs...)
	}
	if b.def.Name == "" {
		b.def.Name = def.Name
	}
}

// Len returns the number of declared nodes.
func (b *Builder) Len() int { return len(b.def.Nodes) }

// Definition returns a copy of the recorded definition.
func (b *Builder) Definition() *GraphDef { return b.def.Clone() }
