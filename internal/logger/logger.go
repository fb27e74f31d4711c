// Package logger builds the zap loggers used by the CLI and the server.
package logger

import (
	"go.uber.org/zap"
)

// New returns a development logger (console, debug level) or a production
// one (JSON, info level).
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
