package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/media-gateway/app"
	"github.com/upb/media-gateway/handlers"
	"github.com/upb/media-gateway/middleware"
)

// routableMethods are matched when a request's own method has no route
var routableMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	// The request deadline covers the slowest fallback chain
	r.Use(chimiddleware.Timeout(deps.Config.RequestBudget()))

	// CORS answers pre-flight before any auth check
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.TraceIDHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.TraceIDHeader},
		MaxAge:         300,
	}))

	// Wrong methods get 405 ahead of auth
	r.Use(methodGuard(r))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	configured := deps.Config.ConfiguredProviders()

	health := handlers.NewHealthHandler(db, configured, deps.Logger)
	status := handlers.NewStatusHandler(deps.ProviderRegistry, configured, deps.Profiles(), deps.AuditStats(), deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		r.Get("/status", status.HandleStatus)

		if deps.ChatRouter != nil {
			r.Post("/llm/route", handlers.NewRouteHandler(deps.ChatRouter, deps.Logger).HandleRoute)
		}
		if deps.TranslateRouter != nil {
			r.Post("/translate", handlers.NewRouteHandler(deps.TranslateRouter, deps.Logger).HandleRoute)
		}
		if deps.ReviewService != nil {
			r.Post("/review/generate", handlers.NewReviewHandler(deps.ReviewService, deps.Logger).HandleGenerate)
		}

		// Route audit trail, only when a database is configured
		if audits := deps.AuditReader(); audits != nil {
			auditHandler := handlers.NewAuditHandler(audits, deps.Logger)
			r.Route("/audit/routes", func(r chi.Router) {
				r.Get("/", auditHandler.HandleListRecent)
				r.Get("/{traceID}", auditHandler.HandleGetByTraceID)
			})
		}
	})

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	return r
}

// methodGuard answers 405 for a path that routes other methods, before any
// group middleware such as auth runs. OPTIONS is left to CORS.
func methodGuard(mux *chi.Mux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			path := r.URL.RawPath
			if path == "" {
				path = r.URL.Path
			}
			if mux.Match(chi.NewRouteContext(), r.Method, path) {
				next.ServeHTTP(w, r)
				return
			}
			for _, method := range routableMethods {
				if method != r.Method && mux.Match(chi.NewRouteContext(), method, path) {
					handlers.MethodNotAllowed(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
