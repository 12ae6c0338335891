// Package component defines the lifecycle interface shared by the
// long-lived parts of an augkit process: storage backends, the pipeline
// executor and the status server.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order.
package component
