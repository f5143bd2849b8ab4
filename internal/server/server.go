package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/config"
	apperrors "github.com/marketmux/marketmux/internal/errors"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/server/handlers"
	servermw "github.com/marketmux/marketmux/internal/server/middleware"
)

// Server is the marketmux HTTP API.
type Server struct {
	router  *chi.Mux
	cfg     config.ServerConfig
	metrics config.MetricsConfig
	market  handlers.MarketService
	health  *handlers.HealthManager

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New builds the router. The market service is registered as the health
// checker for the readiness and startup probes.
func New(cfg *config.Config, market handlers.MarketService, health *handlers.HealthManager) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	if health == nil {
		health = handlers.NewHealthManager(handlers.AppVersion)
	}
	if checker, ok := market.(handlers.HealthChecker); ok && cfg.Health.Enabled {
		health.RegisterChecker("market", checker)
	}

	s := &Server{
		router:  r,
		cfg:     cfg.Server,
		metrics: cfg.Metrics,
		market:  market,
		health:  health,
	}

	handlers.SetHTTPErrorResponder(HandleError)
	s.registerRoutes()

	return s
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln. http.ErrServerClosed is reported as nil.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	observability.Logger().Info("Starting HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("read_timeout", s.cfg.ReadTimeout),
		zap.Duration("write_timeout", s.cfg.WriteTimeout))

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	observability.Logger().Info("Shutting down HTTP server")
	return srv.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAddr returns the bound address once Serve has started.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
