// Package logger provides structured logging for augkit pipelines
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Pipeline code tags its loggers with the
// pipeline ID, epoch and shard so that interleaved output from several
// pipelines in one process stays attributable.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("reader").WithPipeline(id)
//	log.Info("epoch started", logger.Fields("epoch", 3))
package logger
