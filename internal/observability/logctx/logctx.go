// Package logctx carries the request or event scoped logger on a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
)

type loggerKey struct{}

// With stores logger on ctx.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the logger on ctx, or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context logger, else fallback, else a no-op logger.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return observability.NopLogger()
	}
	return fallback
}

// Derive narrows the context logger (or fallback) with fields plus the ids of the
// span already on ctx, stores it back and returns both.
func Derive(ctx context.Context, fallback observability.Logger, fields ...observability.Field) (context.Context, observability.Logger) {
	fields = append(fields, observability.TraceFields(ctx)...)
	logger := FromOr(ctx, fallback).With(fields...)
	return With(ctx, logger), logger
}
