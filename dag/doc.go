// Package dag builds, validates and executes per-sample augmentation graphs.
//
// A graph is declared with a Builder (or loaded from YAML), frozen against
// an op Registry, and executed once per sample by an Engine. Freezing checks
// that every op and input exists, that arities, value kinds and parameters
// match each op's schema, that the graph is acyclic and declared in
// dependency order, and that at least one output is designated.
//
// Nodes are grouped into dependency levels with Kahn's algorithm; nodes in
// the same level run concurrently. Stochastic ops draw from a random stream
// keyed by (seed, sample index, node name), so identical seeds reproduce
// identical decisions regardless of scheduling.
//
// Node decorators (WithTracing, WithMetrics, WithLogging) add observability
// without changing op code.
package dag
