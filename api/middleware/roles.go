package middleware

import (
	"net/http"

	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/pkg/auth"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/metrics"
)

// Guards turns the access predicates into route middleware. Denials are
// logged, counted and answered with a flash plus redirect.
type Guards struct {
	flasher *responses.Flasher
	access  *metrics.AccessMetrics
	logg    *logger.Logger
}

func NewGuards(flasher *responses.Flasher, access *metrics.AccessMetrics, logg *logger.Logger) *Guards {
	return &Guards{flasher: flasher, access: access, logg: logg}
}

// RequireAuthenticated sends anonymous visitors to the login page with the
// original URI as next.
func (g *Guards) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := SessionFromContext(r.Context())
		if err := auth.RequireAuthenticated(data); err != nil {
			g.deny(w, r, err, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits sessions whose role is one of roles. Mount it after
// RequireAuthenticated.
func (g *Guards) RequireRole(roles ...enums.Role) func(http.Handler) http.Handler {
	allowed := enums.Roles(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireRole(SessionFromContext(r.Context()), allowed); err != nil {
				g.deny(w, r, err, allowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guards) deny(w http.ResponseWriter, r *http.Request, err error, required enums.RoleSet) {
	reason := auth.DenialReason(err)
	g.access.IncDenial(reason)

	if g.logg != nil {
		fields := map[string]any{
			"path":           r.URL.Path,
			"reason":         reason,
			"required_roles": required.Strings(),
		}
		if data := SessionFromContext(r.Context()); data != nil {
			fields["user_id"] = data.UserID
		}
		g.logg.Warn(g.logg.WithFields(r.Context(), fields), "access.denied")
	}

	responses.Fail(w, r, g.flasher, nil, err, responses.HomePath)
}
