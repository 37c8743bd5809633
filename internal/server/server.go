package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/coordinator"
	"github.com/vzahanych/weather-state/internal/location"
	"github.com/vzahanych/weather-state/internal/server/handlers"
	"github.com/vzahanych/weather-state/internal/server/middlewares"
	"github.com/vzahanych/weather-state/internal/server/utils"
	"github.com/vzahanych/weather-state/internal/state"
	"github.com/vzahanych/weather-state/pkg/telemetry"
	"go.uber.org/zap"
)

// Deps are the components the HTTP surface reads from and drives.
type Deps struct {
	Current     *state.CurrentWeatherState
	Forecast    *state.ForecastState
	Coordinator *coordinator.Coordinator
	Resolver    *location.Resolver
	Metrics     *handlers.Metrics
	SourceName  string
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	stream *handlers.StreamHandler
	cfg    config.ServerConfig
	deps   Deps
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

func NewServer(cfg config.ServerConfig, deps Deps, logger *zap.Logger, tele *telemetry.Telemetry) (*Server, error) {
	if err := utils.RegisterBindingValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if deps.Metrics == nil {
		deps.Metrics = handlers.NewMetrics(logger)
	}

	httpMetrics, err := middlewares.NewHTTPMetrics(deps.Metrics.Registry())
	if err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, "/metrics", "/health/live", "/health/ready"))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		engine: engine,
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		tele:   tele,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	s.server.RegisterOnShutdown(s.stream.Close)

	return s, nil
}

func (s *Server) setupRoutes() {
	weather := handlers.NewWeatherHandler(s.deps.Current, s.deps.Forecast, s.deps.Coordinator, s.logger)
	s.engine.GET("/weather/current", weather.GetCurrent)
	s.engine.GET("/weather/forecast", weather.GetForecast)
	s.engine.POST("/weather/fetch", weather.Fetch)
	s.engine.POST("/weather/refresh", weather.Refresh)
	s.engine.DELETE("/weather/current/error", weather.ClearCurrentError)
	s.engine.DELETE("/weather/forecast/error", weather.ClearForecastError)

	loc := handlers.NewLocationHandler(s.deps.Resolver, s.logger)
	s.engine.GET("/location", loc.Get)
	s.engine.POST("/location/request", loc.Request)

	s.stream = handlers.NewStreamHandler(s.deps.Current, s.deps.Forecast, s.logger, s.cfg.AllowedOrigins...)
	s.engine.GET("/ws/state", s.stream.Serve)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.readinessChecks())
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	s.engine.GET("/metrics", s.deps.Metrics.ServeMetrics())
}

func (s *Server) readinessChecks() map[string]handlers.Check {
	return map[string]handlers.Check{
		"coordinator": func() (string, bool) {
			if s.deps.Coordinator.Running() {
				return fmt.Sprintf("running (%d queued)", s.deps.Coordinator.QueueLength()), true
			}
			return "stopped", false
		},
		"location": func() (string, bool) {
			return s.deps.Resolver.State().String(), true
		},
		"source": func() (string, bool) {
			return s.deps.SourceName, true
		},
	}
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
