package httpserver

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"gitea.jw6.us/james/calllog/internal/api"
	"gitea.jw6.us/james/calllog/internal/config"
	"gitea.jw6.us/james/calllog/internal/http/errors"
	"gitea.jw6.us/james/calllog/internal/http/ratelimit"
	"gitea.jw6.us/james/calllog/internal/metrics"
	"gitea.jw6.us/james/calllog/internal/store"
)

// NewRouter wires the JSON API, health probes and metrics. ctx bounds the
// lifetime of background work owned by the router.
func NewRouter(ctx context.Context, cfg *config.Config, store *store.Store, opts ...api.Option) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&logFormatter{}))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.Message(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			errors.LogError(r, "readiness check failed", err)
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	h := api.NewHandler(store, opts...)
	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.RPS > 0 {
			burst := cfg.RateLimit.Burst
			if burst < 1 {
				burst = int(math.Ceil(cfg.RateLimit.RPS))
			}
			limiter := ratelimit.NewIPRateLimiter(ctx, rate.Limit(cfg.RateLimit.RPS), burst, 5*time.Minute, cfg.TrustedProxies)
			r.Use(limiter.Middleware())
		}

		r.Get("/call-logs", h.ListCallLogs)
		r.Post("/call-logs", h.CreateCallLog)
		r.Get("/call-logs/{id}", h.GetCallLog)
		r.Patch("/call-logs/{id}", h.UpdateCallLog)
		r.Delete("/call-logs/{id}", h.DeleteCallLog)
		r.Get("/call-logs/{id}/whatsapp", h.ComposeWhatsApp)

		r.Post("/whatsapp/link", h.WhatsAppLink)

		r.Get("/templates", h.ListTemplates)
		r.Post("/templates", h.CreateTemplate)
		r.Delete("/templates/{id}", h.DeleteTemplate)

		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
	})

	return r
}
