package context

import (
	"context"
	"strings"
)

type contextKey string

const (
	requestIDKey contextKey = "observability.request_id"
	actorTypeKey contextKey = "observability.actor_type"
	actorIDKey   contextKey = "observability.actor_id"
)

// WithRequestID stores the request correlation id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request correlation id, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithActor stores the caller type and id for log correlation.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	actorType = strings.TrimSpace(actorType)
	actorID = strings.TrimSpace(actorID)
	if actorType == "" && actorID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorFromContext returns the caller type and id, if any.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}
