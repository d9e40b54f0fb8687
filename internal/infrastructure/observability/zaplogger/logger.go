package zaplogger

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"go.uber.org/zap"
)

type logger struct{ l *zap.Logger }

// New adapts a zap logger to the observability.Logger port.
func New(l *zap.Logger) observability.Logger {
	if l == nil {
		l = zap.L()
	}
	return &logger{l: l}
}

func (z *logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return &logger{l: z.l}
	}
	return &logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

// Sync flushes any buffered log entries. Safe to call on shutdown.
func (z *logger) Sync() error {
	return z.l.Sync()
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		out = append(out, toZapField(f))
	}
	return out
}

// toZapField picks a typed zap field for the values the dashboard logs most, so
// they skip reflection. Decimals and other Stringers render as text.
func toZapField(f observability.Field) zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case time.Time:
		return zap.Time(f.Key, v)
	case error:
		return zap.NamedError(f.Key, v)
	case fmt.Stringer:
		return zap.Stringer(f.Key, v)
	default:
		return zap.Any(f.Key, v)
	}
}
