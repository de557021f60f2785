// Package actorctx carries the acting identity and request correlation data
// through a request's context so audit rows can attribute every transition.
package actorctx

import (
	"context"
	"strings"
)

type actorKey struct{}
type requestIDKey struct{}

// ActorTypeSystem is recorded for transitions the engine applies on its own,
// such as auto-approvals.
const ActorTypeSystem = "system"

// ActorTypeAdmin is recorded for transitions triggered by a human operator.
const ActorTypeAdmin = "admin"

type actor struct {
	actorType string
	actorID   string
}

// WithActor stores the acting identity in the context.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		actorType: strings.TrimSpace(actorType),
		actorID:   strings.TrimSpace(actorID),
	})
}

// ActorFromContext returns the acting identity, if set.
func ActorFromContext(ctx context.Context) (actorType, actorID string) {
	if ctx == nil {
		return "", ""
	}
	if a, ok := ctx.Value(actorKey{}).(actor); ok {
		return a.actorType, a.actorID
	}
	return "", ""
}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

// RequestIDFromContext returns the request correlation ID, if set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
