package context

import (
	"context"
	"strings"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	businessIDKey contextKey = "business_id"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithBusinessID stores the business identifier on the context.
func WithBusinessID(ctx context.Context, businessID string) context.Context {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return ctx
	}
	return context.WithValue(ctx, businessIDKey, businessID)
}

// BusinessIDFromContext returns the business identifier, if any.
func BusinessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(businessIDKey).(string); ok {
		return value
	}
	return ""
}
