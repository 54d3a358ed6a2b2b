// Package logger provides structured logging functionality for the harness.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, CI metadata enrichment and context propagation
// of a per-run logger.
package logger
