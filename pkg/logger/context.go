package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// ContextWithRequestID tags ctx with the id of the HTTP request it serves.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestFields returns the correlation fields for ctx. It is empty outside a request.
func RequestFields(ctx context.Context) []zap.Field {
	if id := RequestIDFrom(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}
