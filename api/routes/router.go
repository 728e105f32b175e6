package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketdesk/marketdesk/api/controllers"
	"github.com/marketdesk/marketdesk/api/middleware"
	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/api/views"
	authsvc "github.com/marketdesk/marketdesk/internal/auth"
	"github.com/marketdesk/marketdesk/internal/inventory"
	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/auth"
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/metrics"
)

const (
	csrfFieldName = "csrf_token"
	uploadsPrefix = "/static/uploads/"
	formOverhead  = 1 << 20
)

type sessionManager interface {
	Create(ctx context.Context, data session.Data) (string, error)
	Load(ctx context.Context, token string) (*session.Data, error)
	Destroy(ctx context.Context, token string) error
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
	TokenFromRequest(r *http.Request) string
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type roleCounter interface {
	CountByRole(ctx context.Context) ([]users.RoleCount, error)
}

// RouterParams bundles what the HTTP surface needs. RateLimiter and Redis
// are optional and must be left nil when Redis is not configured.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter rateLimiter
	Sessions    sessionManager
	Templates   *views.TemplateCache
	Flasher     *responses.Flasher
	Auth        authsvc.Service
	Inventory   inventory.Service
	Accounts    roleCounter
	Registry    *prometheus.Registry
}

// NewRouter builds the HTTP surface. It fails when CSRF protection is
// enabled without a usable key.
func NewRouter(p RouterParams) (http.Handler, error) {
	cfg, logg := p.Config, p.Logger

	var protectCSRF []func(http.Handler) http.Handler
	if cfg.CSRF.Enabled {
		key, err := cfg.CSRF.KeyBytes()
		if err != nil {
			return nil, fmt.Errorf("csrf protection: %w", err)
		}
		protectCSRF = csrfProtection(key, cfg, logg)
	}

	var reg prometheus.Registerer
	if p.Registry != nil {
		reg = p.Registry
	}
	httpMetrics := metrics.NewHTTPMetrics(reg)
	guards := middleware.NewGuards(p.Flasher, metrics.NewAccessMetrics(reg), logg)
	pages := controllers.NewPages(p.Templates, p.Flasher, logg)

	maxUpload := cfg.Uploads.MaxBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.SecurityHeaders,
		middleware.MaxBodyBytes(maxUpload+formOverhead),
	)
	if len(protectCSRF) > 0 {
		r.Use(protectCSRF...)
	}
	r.Use(middleware.Session(p.Sessions, logg))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.NamedPinger{Name: "database", Pinger: p.DB},
			controllers.NamedPinger{Name: "redis", Pinger: p.Redis},
		))
	})
	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}
	r.Handle(uploadsPrefix+"*", http.StripPrefix(uploadsPrefix, noDirListing(http.FileServer(http.Dir(cfg.Uploads.Dir)))))

	r.Get("/", controllers.Home(pages, p.Inventory))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/signup", controllers.SignupForm(pages))
		r.With(middleware.AuthRateLimit(signupPolicy, p.RateLimiter, p.Flasher, logg)).Post("/signup", controllers.Signup(pages, p.Auth))
		r.Get("/login", controllers.LoginForm(pages))
		r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, p.Flasher, logg)).Post("/login", controllers.Login(pages, p.Auth, p.Sessions, logg))
		r.With(guards.RequireAuthenticated).Get("/logout", controllers.Logout(pages, p.Sessions, logg))
	})

	r.Route("/seller", func(r chi.Router) {
		r.Use(guards.RequireAuthenticated)

		r.With(guards.RequireRole(auth.RolesFor(auth.ActionViewSellerDashboard)...)).
			Get("/dashboard", controllers.SellerDashboard(pages, p.Inventory))

		r.Group(func(r chi.Router) {
			r.Use(guards.RequireRole(auth.RolesFor(auth.ActionCreateInventory)...))
			r.Get("/add-inventory", controllers.AddInventoryForm(pages))
			r.Post("/add-inventory", controllers.AddInventory(pages, p.Inventory, maxUpload))
		})

		r.Group(func(r chi.Router) {
			r.Use(guards.RequireRole(auth.RolesFor(auth.ActionUpdateInventory)...))
			r.Get("/update-inventory/{item_id}", controllers.UpdateInventoryForm(pages, p.Inventory))
			r.Post("/update-inventory/{item_id}", controllers.UpdateInventory(pages, p.Inventory, maxUpload))
		})

		r.With(guards.RequireRole(auth.RolesFor(auth.ActionDeleteInventory)...)).
			Post("/delete-inventory/{item_id}", controllers.DeleteInventory(pages, p.Inventory))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(guards.RequireAuthenticated, guards.RequireRole(auth.RolesFor(auth.ActionViewAdminDashboard)...))
		r.Get("/dashboard", controllers.AdminDashboard(pages, p.Accounts, p.Inventory))
	})

	r.Route("/customer", func(r chi.Router) {
		r.Use(guards.RequireAuthenticated, guards.RequireRole(auth.RolesFor(auth.ActionViewCustomerDashboard)...))
		r.Get("/dashboard", controllers.CustomerDashboard(pages))
	})

	return r, nil
}

// csrfProtection returns the gorilla/csrf middleware. Without secure cookies
// the site is served over plain HTTP, which gorilla/csrf must be told about
// or it enforces HTTPS referer checks.
func csrfProtection(key []byte, cfg *config.Config, logg *logger.Logger) []func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(cfg.Session.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg != nil {
				reason := ""
				if err := csrf.FailureReason(r); err != nil {
					reason = err.Error()
				}
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"path": r.URL.Path, "reason": reason}), "csrf.rejected")
			}
			http.Error(w, "Forbidden - invalid or missing form token, reload the page and try again", http.StatusForbidden)
		})),
	)
	if cfg.Session.CookieSecure {
		return []func(http.Handler) http.Handler{protect}
	}
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
	return []func(http.Handler) http.Handler{plaintext, protect}
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
