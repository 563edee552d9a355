package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/clubops/clubcore/internal/audit/http"
	"github.com/clubops/clubcore/internal/auth"
	"github.com/clubops/clubcore/internal/authz"
	"github.com/clubops/clubcore/internal/idrange"
	"github.com/clubops/clubcore/internal/observability"
	"github.com/clubops/clubcore/internal/principals"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Tokens            *auth.TokenManager
	AuthHandler       *auth.Handler
	AuditHandler      *audithttp.Handler
	PrincipalsHandler *principals.Handler
	RangesHandler     *idrange.Handler
	Authz             authz.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with clubcore defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimiter())
		params.AuthHandler.MountRoutes(r)
	})

	// Operator-only API surface. Capability gates sit behind realm
	// authentication; members never reach these routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(params.Tokens, auth.RealmOperator))

		r.Route("/audit", func(r chi.Router) {
			params.AuditHandler.MountRoutes(r)
		})
		r.Route("/principals", func(r chi.Router) {
			params.PrincipalsHandler.MountRoutes(r)
		})
		r.Route("/ranges", func(r chi.Router) {
			r.Use(params.Authz.Require(authz.CapAllocateIdentifier))
			params.RangesHandler.MountRoutes(r)
		})
	})

	return r
}
