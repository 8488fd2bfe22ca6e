package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/physio-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/physio-booking/internal/http/middleware"
	"github.com/wolfman30/physio-booking/internal/webchat"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	Catalog            *handlers.CatalogHandler
	Sessions           *handlers.SessionHandler
	AdminAppointments  *handlers.AdminAppointmentsHandler
	WebChat            *webchat.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Applied to session creation and chat input when set.
	SessionLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.SessionLimiter == nil {
			return h
		}
		return httpmiddleware.RateLimit(cfg.SessionLimiter, httpmiddleware.ByClientIP)(h)
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Health)
			public.Get("/ready", cfg.Health.Ready)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WebChat != nil {
			public.Get("/chat/ws", cfg.WebChat.HandleWebSocket)
		}
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Compress(5))
		if cfg.Catalog != nil {
			api.Get("/catalog", cfg.Catalog.GetCatalog)
			api.Route("/practitioners/{id}", func(p chi.Router) {
				p.Get("/availability", cfg.Catalog.GetAvailability)
				p.Get("/week", cfg.Catalog.GetWeek)
			})
		}
		if cfg.Sessions != nil {
			api.Route("/sessions", func(s chi.Router) {
				s.Method(http.MethodPost, "/", limited(cfg.Sessions.Create))
				s.Get("/{id}", cfg.Sessions.Get)
				s.Post("/{id}/actions", cfg.Sessions.Act)
				s.Method(http.MethodPost, "/{id}/messages", limited(cfg.Sessions.Message))
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.AdminAppointments != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Patch("/appointments/{id}", cfg.AdminAppointments.Reschedule)
			admin.Delete("/appointments/{id}", cfg.AdminAppointments.Cancel)
		})
	}

	return r
}
