package middleware

import (
	"context"

	"github.com/marketdesk/marketdesk/pkg/auth/session"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromContext returns the session loaded for this request, or nil.
func SessionFromContext(ctx context.Context) *session.Data {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Data); ok {
		return v
	}
	return nil
}

// WithSession injects the session into the context for downstream handlers.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, data)
}
