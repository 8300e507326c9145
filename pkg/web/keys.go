package web

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}
type userIDKey struct{}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and a boolean indicating whether it was found.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// WithUserID adds the authenticated user ID to the context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// ContextUserID retrieves the authenticated user ID from the context.
// Returns uuid.Nil for anonymous requests.
func ContextUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
