// Package server provides the HTTP status server of an augkit run.
//
// It serves /health from the component registry, /stats from the running
// pipeline and /version from build information, with panic recovery and
// request logging middleware.
package server
