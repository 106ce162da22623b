package context

import (
	"context"
)

// TraceContext carries the ids that tie a log line to a request.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// LogFields returns the request scope of ctx as logger key-value pairs:
// trace, request, user and garage ids, skipping the ones that are unset.
func LogFields(ctx context.Context) []any {
	var fields []any
	if t := GetTrace(ctx); t != nil {
		fields = append(fields, "trace_id", t.TraceID, "request_id", t.RequestID)
	}
	if u := GetUser(ctx); u != nil {
		fields = append(fields, "user_id", u.UserID)
		if u.GarageID != "" {
			fields = append(fields, "garage_id", u.GarageID)
		}
	}
	return fields
}
