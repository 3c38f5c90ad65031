// Package utils provides shared helpers for logging, text, and vector math.
package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNopLogger returns a logger that discards everything. Used in tests and
// as a fallback when a component is constructed without a logger.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
