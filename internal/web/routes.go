package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/best-smile/internal/web/handlers"
	"github.com/kozaktomas/best-smile/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	smileHandler := handlers.NewSmileHandler(s.config.Images.BasePath, s.config.Images.MaxPerRequest, s.picker, s.validate, s.log)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health and config are cheap and stay outside the rate limit
	s.router.Get("/health", handlers.HealthCheck)
	s.router.Get("/config", configHandler.Get)

	s.router.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(middleware.RateLimit(s.rateLimiter, s.log))
		}
		r.Post("/", smileHandler.Pick)
	})
}
