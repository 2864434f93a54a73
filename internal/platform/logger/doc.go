// Package logger provides structured logging functionality for the fixture tooling.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, a CI handler that stamps records with CI metadata, and
// helpers for carrying a logger through a context.
package logger
