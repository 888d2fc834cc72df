package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/oilchain/config"
	"example.com/oilchain/internal/api/handlers"
	"example.com/oilchain/internal/dashboard"
	"example.com/oilchain/internal/metrics"
	"example.com/oilchain/internal/services"
	"example.com/oilchain/internal/tracing"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	listing    *services.ListingService
	hub        *dashboard.Hub
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, listing *services.ListingService, hub *dashboard.Hub, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:  cfg,
		listing: listing,
		hub:     hub,
		metrics: m,
		tracer:  tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Router exposes the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(s.metrics))
	if s.config.Server.CorsEnabled {
		router.Use(CORSMiddleware(s.config.Server.CorsOrigins))
	}
	if s.tracer != nil && s.tracer.Application() != nil {
		router.Use(NewRelicMiddleware(s.tracer.Application()))
	}

	handlers.NewMetricsHandler(s.metrics).RegisterRoutes(router, s.config.Server.MetricsEnabled)

	v1 := router.Group("/api/v1")
	handlers.NewViewHandler(s.listing).RegisterRoutes(v1)
	handlers.NewDashboardHandler(s.hub).RegisterRoutes(v1)
	handlers.NewSearchHandler(s.listing).RegisterRoutes(v1)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Server.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
