package contextutil

import "context"

type contextKey string

const TraceIDKey contextKey = "traceID"

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown-trace-id"
	}
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return "unknown-trace-id"
	}
	return traceID
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}
