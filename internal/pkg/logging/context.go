package logging

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey is the private context key request-scoped loggers travel under.
type loggerKey struct{}

// ContextWithLogger returns a child context carrying the logger. Passing a
// nil logger leaves the context unchanged.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the process-wide zap.L()
// when none was attached. Callers always get a usable logger, never nil.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.L()
}
