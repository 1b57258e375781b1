package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/klinika-id/klinika/internal/auth"
	"github.com/klinika-id/klinika/internal/observability"
	"github.com/klinika-id/klinika/internal/patients"
	"github.com/klinika-id/klinika/internal/rbac"
	"github.com/klinika-id/klinika/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthMiddleware  auth.Middleware
	AuthHandler     *auth.Handler
	RBACHandler     *rbac.Handler
	UsersHandler    *users.Handler
	PatientsHandler *patients.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Klinika defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Auth:    params.AuthMiddleware,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.RBACHandler.MountRoutes(r)
	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
		params.RBACHandler.MountUserRoutes(r)
	})
	r.Route("/patients", params.PatientsHandler.MountRoutes)

	return r
}
