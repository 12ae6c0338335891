package dag

import "time"

// Result holds the outcome of a graph execution.
type Result struct {
	NodeResults map[string]NodeResult
	// Outputs holds the values of the output nodes, in output order.
	Outputs  []Value
	Duration time.Duration
}

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	Name     string
	Status   string // "completed" | "failed"
	Duration time.Duration
	Error    error
}
