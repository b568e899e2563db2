package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/jw6ventures/timeclock/internal/api"
	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/config"
	"github.com/jw6ventures/timeclock/internal/http/csrf"
	"github.com/jw6ventures/timeclock/internal/http/ratelimit"
	"github.com/jw6ventures/timeclock/internal/metrics"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/store"
)

// NewRouter wires the probes, auth endpoints and the session-protected JSON API. sender
// may be nil when push is not configured.
func NewRouter(cfg *config.Config, store *store.Store, authService *auth.Service, sender push.Sender) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// API endpoints: 20 requests per second, burst of 50 (offline queues replay in bursts)
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
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

	r.Route("/api/auth", func(r chi.Router) {
		r.With(authRateLimiter.Middleware()).Post("/register", authService.HandleRegister)
		r.With(authRateLimiter.Middleware()).Post("/login", authService.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authService.RequireSession)
			r.Use(csrf.Middleware(cfg))
			r.Get("/me", authService.HandleMe)
			r.Post("/logout", authService.HandleLogout)
		})
	})

	apiHandler := api.NewHandler(cfg, store, sender)
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireSession)
		r.Use(csrf.Middleware(cfg))
		apiHandler.Routes(r)
	})

	return r
}
