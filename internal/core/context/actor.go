// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who performed an operation. It is provenance only:
// the engine records the actor on ledger entries and audit records but
// never makes authorization decisions from it.
type Actor struct {
	UserID string
	Name   string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context, or nil if none.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns the acting user's ID from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// GetActorName returns the acting user's display name or empty string.
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.Name
	}
	return ""
}
