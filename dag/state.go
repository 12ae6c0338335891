package dag

import (
	"sync"
)

// State holds the values produced while one sample moves through a graph.
// It is safe for concurrent use by the nodes of one level.
type State struct {
	// Index is the sample's global index.
	Index int
	// Seed is the pipeline seed.
	Seed uint64

	mu     sync.RWMutex
	values map[string]Value
}

// NewState creates the state for one sample with the decoded array stored
// under SourceName.
func NewState(seed uint64, index int, source Value) *State {
	return &State{
		Index:  index,
		Seed:   seed,
		values: map[string]Value{SourceName: source},
	}
}

// Get retrieves a node value by name.
func (s *State) Get(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set stores a node value.
func (s *State) Set(name string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = v
}
