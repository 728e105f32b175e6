package middleware

import (
	"context"
	"net/http"

	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

type sessionLoader interface {
	TokenFromRequest(r *http.Request) string
	Load(ctx context.Context, token string) (*session.Data, error)
	ClearCookie(w http.ResponseWriter)
}

// Session resolves the session cookie and stores the result in the request
// context. Anonymous requests pass through untouched; a cookie that no longer
// resolves is cleared.
func Session(loader sessionLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := loader.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			data, err := loader.Load(ctx, token)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "session.load_failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if data == nil {
				loader.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithSession(ctx, data)
			if logg != nil {
				ctx = logg.WithUserID(ctx, data.UserID)
				ctx = logg.WithActorRole(ctx, data.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
