package logging

import (
	"context"
)

type contextKey string

const loggerKey contextKey = "logger"

// Context value keys that are copied onto log lines by ForContext. They are
// plain strings because the HTTP middleware stores them that way.
var contextFieldKeys = []string{"trace_id", "request_id", "quote_id"}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context.
// Returns a no-op logger if not found.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

// ForContext returns base enriched with the correlation IDs found in ctx.
// A logger already attached to ctx takes precedence over base.
func ForContext(ctx context.Context, base Logger) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	if base == nil {
		return &noOpLogger{}
	}
	fields := enrichFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func enrichFields(ctx context.Context) []Field {
	var fields []Field
	for _, key := range contextFieldKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, NewField(key, v))
		}
	}
	return fields
}

type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, fields ...Field) {}
func (n *noOpLogger) Info(msg string, fields ...Field)  {}
func (n *noOpLogger) Warn(msg string, fields ...Field)  {}
func (n *noOpLogger) Error(msg string, fields ...Field) {}
func (n *noOpLogger) Fatal(msg string, fields ...Field) {}
func (n *noOpLogger) With(fields ...Field) Logger       { return n }
func (n *noOpLogger) WithError(err error) Logger        { return n }
