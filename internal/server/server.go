// Package server exposes the redaction pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/events"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/metrics"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server is the HTTP front end for the redaction pipeline.
type Server struct {
	config      *config.Config
	logger      *logger.Logger
	coordinator *pipeline.Coordinator
	hub         *events.Hub
	metrics     *metrics.Recorder
	router      *mux.Router
	server      *http.Server
	limiter     *rate.Limiter
}

// New creates a server instance around an already-assembled coordinator.
func New(cfg *config.Config, coordinator *pipeline.Coordinator, hub *events.Hub, recorder *metrics.Recorder, log *logger.Logger) *Server {
	s := &Server{
		config:      cfg,
		logger:      log.WithComponent("server"),
		coordinator: coordinator,
		hub:         hub,
		metrics:     recorder,
		router:      mux.NewRouter(),
	}

	if cfg.Server.RateLimit.Enabled {
		perSecond := rate.Limit(float64(cfg.Server.RateLimit.RequestsPerMin) / 60.0)
		s.limiter = rate.NewLimiter(perSecond, cfg.Server.RateLimit.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health and info endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Prometheus metrics
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	// WebSocket processing feed
	if s.hub != nil && s.config.Events.Enabled {
		s.router.HandleFunc(s.config.Events.Path, s.hub.HandleWebSocket).Methods("GET")
	}

	// Redaction endpoints
	redactRouter := s.router.PathPrefix("/redact").Subrouter()
	redactRouter.Use(s.loggingMiddleware)
	redactRouter.Use(s.rateLimitMiddleware)
	redactRouter.HandleFunc("/single", s.handleRedactSingle).Methods("POST")
	redactRouter.HandleFunc("/multiple", s.handleRedactMultiple).Methods("POST")
}

// Start starts the HTTP server and the event hub.
func (s *Server) Start() error {
	s.logger.Info("Starting DocVeil server",
		zap.Int("port", s.config.Server.Port),
		zap.String("default_regime", s.config.Compliance.DefaultRegime),
		zap.Bool("strict_filter", s.config.Compliance.StrictFilter),
	)

	if s.hub != nil {
		go s.hub.Run()
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping DocVeil server")
	return s.server.Shutdown(ctx)
}

// Router exposes the route table, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
