package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/server/endpoint"
	"github.com/kbukum/augkit/server/middleware"
)

// Server is the HTTP status server backed by Gin.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu   sync.Mutex
	addr string
}

// New creates a new Server. No routes are registered until
// RegisterEndpoints is called.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()

	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log.WithComponent("server"),
	}
}

// Handler returns the HTTP handler serving the registered routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RegisterEndpoints registers /health, /stats and /version.
func (s *Server) RegisterEndpoints(serviceName string, checker endpoint.HealthChecker, stats endpoint.StatsProvider) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/stats", endpoint.Stats(stats))
	s.engine.GET("/version", endpoint.Version())
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Configuration("status.addr", "failed to bind "+s.httpServer.Addr).WithCause(err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("status server started", map[string]interface{}{
		"addr": s.Addr(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("status server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.Internal(err)
	}

	s.log.Info("status server stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.httpServer.Addr
}
