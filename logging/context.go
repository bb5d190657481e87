package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	TraceIDKey   ctxKey = "trace_id"
	RequestIDKey ctxKey = "request_id"
	UserIDKey    ctxKey = "user_id"
)

var contextKeys = []ctxKey{TraceIDKey, RequestIDKey, UserIDKey}

// WithContext returns a child logger carrying the trace, request and user ids
// found in ctx. The logger is returned unchanged when none are present.
func WithContext(logger Logger, ctx context.Context) Logger {
	if ctx == nil {
		return logger
	}

	var fields []zap.Field
	for _, key := range contextKeys {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

func GetTraceID(ctx context.Context) string   { return stringValue(ctx, TraceIDKey) }
func GetRequestID(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }
func GetUserID(ctx context.Context) string    { return stringValue(ctx, UserIDKey) }

func SetTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

type loggerKey struct{}

// FromContext returns the Logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Global()
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Global()
}

// ToContext stores logger in ctx.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
