// Package http provides HTTP handlers and middleware for the msc envelope API.
package http

import (
	"context"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// replayTupleKey is a context key type for storing verified replay tuples.
type replayTupleKey struct{}

// WithReplayTuple stores a verified replay tuple in the context.
func WithReplayTuple(ctx context.Context, tuple *envelopeDomain.ReplayTuple) context.Context {
	return context.WithValue(ctx, replayTupleKey{}, tuple)
}

// GetReplayTuple retrieves the replay tuple verified by ReplayMiddleware.
func GetReplayTuple(ctx context.Context) (*envelopeDomain.ReplayTuple, bool) {
	tuple, ok := ctx.Value(replayTupleKey{}).(*envelopeDomain.ReplayTuple)
	return tuple, ok
}
