package dag

// SourceName is the reserved name of the node that yields the decoded
// sample.
const SourceName = "source"

// Reserved node params that pin the element type and layout of an output.
const (
	ParamOutputDType  = "output_dtype"
	ParamOutputLayout = "output_layout"
)

// Params are the raw parameters of a node, keyed by parameter name.
type Params map[string]any

// GraphDef is a composable graph definition, built in code or loaded from
// YAML.
type GraphDef struct {
	// Name is the graph identifier.
	Name string `yaml:"name"`
	// Includes lists graph definitions whose nodes are merged in first.
	Includes []string `yaml:"includes,omitempty"`
	// Nodes are kept in declaration order.
	Nodes []NodeDef `yaml:"nodes"`
	// Outputs names the nodes whose values form the batch, in order.
	Outputs []string `yaml:"outputs"`
}

// NodeDef declares one node.
type NodeDef struct {
	// Name is the unique node identifier in the graph.
	Name string `yaml:"name"`
	// Op is the registry key of the operation.
	Op string `yaml:"op"`
	// Inputs names the nodes feeding this one, in positional order.
	Inputs []string `yaml:"inputs"`
	// Params are decoded into the op's parameter struct at freeze time.
	Params Params `yaml:"params,omitempty"`
}

// Clone returns a deep copy of the node list and outputs. Param maps are
// shared.
func (d *GraphDef) Clone() *GraphDef {
	out := &GraphDef{
		Name:     d.Name,
		Includes: append([]string(nil), d.Includes...),
		Nodes:    make([]NodeDef, len(d.Nodes)),
		Outputs:  append([]string(nil), d.Outputs...),
	}
	for i, n := range d.Nodes {
		n.Inputs = append([]string(nil), n.Inputs...)
		out.Nodes[i] = n
	}
	return out
}
