package router

import (
	"net/http"

	"labtrade-api/internal/handler"
	"labtrade-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ExchangeHandler *handler.ExchangeHandler
	AuthHandler     *handler.AuthHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token", "X-User-ID", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
				r.Get("/status", cfg.Handler.Status)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Exchange endpoints
			if cfg.ExchangeHandler != nil {
				r.Route("/exchanges", func(r chi.Router) {
					r.Post("/", cfg.ExchangeHandler.Create)
					r.Get("/", cfg.ExchangeHandler.List)
					r.Get("/{id}", cfg.ExchangeHandler.Get)
					r.Post("/{id}/respond", cfg.ExchangeHandler.Respond)
				})
			}

			// Admin endpoints (guarded by X-Admin-Key, not the regular auth)
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Use(cfg.AdminHandler.RequireAdminKey)
					r.Post("/items", cfg.AdminHandler.CreateItem)
					r.Post("/exchanges/{id}/restock", cfg.AdminHandler.RestockExchange)
					r.Get("/stats", cfg.AdminHandler.GetStats)
				})
			}
		})
	})

	return r
}
