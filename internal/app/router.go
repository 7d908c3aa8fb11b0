package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wasteops/wasteops/internal/authz"
	"github.com/wasteops/wasteops/internal/directory"
	"github.com/wasteops/wasteops/internal/identity"
	"github.com/wasteops/wasteops/internal/observability"
	"github.com/wasteops/wasteops/internal/scope"
	"github.com/wasteops/wasteops/internal/shared"
	"github.com/wasteops/wasteops/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	IdentityHandler    *identity.Handler
	IdentityMiddleware identity.Middleware
	AuthzHandler       *authz.Handler
	Guard              *authz.Guard
	ScopeHandler       *scope.Handler
	DirectoryHandler   *directory.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(params.IdentityMiddleware.LoadPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/identity", params.IdentityHandler.MountRoutes)
	r.Route("/authz", params.AuthzHandler.MountRoutes)
	r.Route("/scope", params.ScopeHandler.MountRoutes)
	r.Route("/directory", func(r chi.Router) {
		r.Use(params.Guard.RequirePrincipal)
		params.DirectoryHandler.MountRoutes(r)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Guard.RequirePermission(authz.PermManageScope))
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
