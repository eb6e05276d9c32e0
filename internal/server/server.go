package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/cache"
	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/events"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/metrics"
	"github.com/raaihank/pii-sentinel/internal/privacy"
)

// Server exposes the redaction engine over HTTP: a redact endpoint, health
// and info endpoints, Prometheus metrics, and a WebSocket event stream.
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	engine  *privacy.Engine
	cache   *cache.OutcomeCache // nil when disabled
	router  *mux.Router
	server  *http.Server
	hub     *events.Hub
	limiter *ipRateLimiter

	startTime    time.Time
	totalRecords atomic.Int64
	totalPII     atomic.Int64
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	engine, err := privacy.NewEngine(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return nil, fmt.Errorf("failed to create redaction engine: %w", err)
	}

	hub := events.NewHub(&events.HubConfig{
		BroadcastRedaction: cfg.Events.BroadcastRedaction,
		BroadcastSystem:    cfg.Events.BroadcastSystem,
		BroadcastConns:     cfg.Events.BroadcastConns,
		Username:           cfg.Events.Username,
		Password:           cfg.Events.Password,
	}, log.WithComponent("events").Logger)

	var outcomeCache *cache.OutcomeCache
	if cfg.Cache.Enabled {
		outcomeCache, err = cache.NewOutcomeCache(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create outcome cache: %w", err)
		}
	}

	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		engine:    engine,
		cache:     outcomeCache,
		router:    mux.NewRouter(),
		hub:       hub,
		limiter:   newIPRateLimiter(cfg.Server.RateLimit.RequestsPerMin, cfg.Server.RateLimit.Burst),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	if s.config.Events.Enabled {
		s.router.HandleFunc(s.config.Events.Path, s.hub.HandleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	if s.config.Server.RateLimit.Enabled {
		api.Use(s.rateLimitMiddleware)
	}
	api.HandleFunc("/redact", s.handleRedact).Methods("POST")
}

// Start starts the HTTP server and the event hub.
func (s *Server) Start() error {
	s.logger.Info("Starting PII-Sentinel server",
		zap.Int("port", s.config.Server.Port),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("events_enabled", s.config.Events.Enabled),
	)

	go s.hub.Run()
	go s.statusBroadcastLoop()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping PII-Sentinel server")
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("Failed to close outcome cache", zap.Error(err))
		}
	}
	return s.server.Shutdown(ctx)
}

// Hub returns the event hub for broadcasting events.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// statusBroadcastLoop periodically pushes a system status event to
// connected dashboard clients.
func (s *Server) statusBroadcastLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := s.hub.GetStats()
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeSystemStatus,
			Timestamp: time.Now(),
			Data: events.SystemStatusEvent{
				Status:           "healthy",
				Uptime:           time.Since(s.startTime).Round(time.Second).String(),
				TotalRecords:     s.totalRecords.Load(),
				TotalPIIRecords:  s.totalPII.Load(),
				ConnectedClients: int(stats.ActiveConnections),
			},
		})
	}
}
