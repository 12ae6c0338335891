// Package errors provides the error taxonomy for augkit pipelines.
// Every failure surfaced by a pipeline is an *AppError carrying a
// machine-readable code and the offending path or parameter in Details.
package errors
