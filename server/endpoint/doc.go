// Package endpoint provides the Gin handlers of the status server.
package endpoint
