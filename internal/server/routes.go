package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/server/handlers"
)

// AdminTokenEnv enables POST /admin/signal when set.
const AdminTokenEnv = config.EnvPrefix + "_ADMIN_TOKEN"

func (s *Server) registerRoutes() {
	if s.health != nil {
		s.router.Get("/health", s.health.HealthHandler)
		s.router.Get("/health/live", s.health.LivenessHandler)
		s.router.Get("/health/ready", s.health.ReadinessHandler)
		s.router.Get("/health/startup", s.health.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", s.MetricsHandler)

	if s.market != nil {
		market := handlers.NewMarketHandler(s.market)
		s.router.Route("/v1", market.Routes)
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes gofulmen's signal endpoint behind a bearer
// token so operators can trigger reload or shutdown remotely.
func (s *Server) registerAdminEndpoint() {
	logger := observability.Logger()

	adminToken := os.Getenv(AdminTokenEnv)
	if adminToken == "" {
		logger.Debug("Admin signal endpoint disabled", zap.String("env", AdminTokenEnv))
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,
		RateBurst: 5,
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	logger.Info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("rate_limit", "10/min, burst 5"))
	logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
