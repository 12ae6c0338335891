package dag

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/kbukum/augkit/errors"
)

// OpFunc computes one node output. params is the decoded parameter struct
// returned by OpSpec.Params; rng is nil unless the op is stochastic. Op
// functions must not modify their inputs.
type OpFunc func(ctx context.Context, in []Value, params any, rng *rand.Rand) (Value, error)

// OpSpec describes an augmentation operation.
type OpSpec struct {
	// Name is the registry key used by graph definitions.
	Name string
	// Inputs lists the kinds of the positional inputs.
	Inputs []ValueKind
	// MinInputs is the number of required leading inputs; the rest are
	// optional. Zero means all inputs are required.
	MinInputs int
	// Output is the kind of value the op produces.
	Output ValueKind
	// Stochastic ops receive a per-sample, per-node random stream.
	Stochastic bool
	// Params returns a pointer to a parameter struct holding the defaults.
	// Node params are decoded into it by mapstructure tag and validated
	// with validator tags and an optional Validate() error method. Nil means
	// the op takes no parameters.
	Params func() any
	// Fn computes the output.
	Fn OpFunc
}

// arity returns the accepted input count range.
func (s *OpSpec) arity() (lo, hi int) {
	hi = len(s.Inputs)
	lo = s.MinInputs
	if lo == 0 {
		lo = hi
	}
	return lo, hi
}

// Registry maps op names to their specs.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*OpSpec
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*OpSpec)}
}

// Register adds an op. Names must be unique and non-empty.
func (r *Registry) Register(spec OpSpec) error {
	if spec.Name == "" || spec.Fn == nil {
		return errors.Configuration("op", "op spec needs a name and a function")
	}
	if spec.MinInputs > len(spec.Inputs) {
		return errors.Configuration("op", fmt.Sprintf("op %q requires more inputs than it declares", spec.Name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[spec.Name]; exists {
		return errors.Configuration("op", fmt.Sprintf("op %q already registered", spec.Name))
	}
	r.ops[spec.Name] = &spec
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(spec OpSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Get retrieves an op by name.
func (r *Registry) Get(name string) (*OpSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.ops[name]
	return s, ok
}

// List returns sorted names of all registered ops.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
