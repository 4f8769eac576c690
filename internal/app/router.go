package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quillstack/userd/internal/auth"
	"github.com/quillstack/userd/internal/observability"
	"github.com/quillstack/userd/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AuthHandler  *auth.Handler
	UsersHandler *users.Handler
	// Guard protects routes that require a valid bearer session token.
	Guard   func(http.Handler) http.Handler
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with userd defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mount := func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", func(r chi.Router) {
			if params.Guard != nil {
				r.Use(params.Guard)
			}
			params.UsersHandler.MountRoutes(r)
		})
	}

	// The API is served both at the root and under the versioned prefix,
	// matching the original deployment's contract.
	mount(r)
	r.Route("/api/v1", mount)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
