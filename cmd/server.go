package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/coordinator"
	"github.com/vzahanych/weather-state/internal/location"
	"github.com/vzahanych/weather-state/internal/server"
	"github.com/vzahanych/weather-state/internal/server/handlers"
	"github.com/vzahanych/weather-state/internal/service"
	"github.com/vzahanych/weather-state/internal/state"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather state server",
		Long:  `Start the HTTP and WebSocket server. On startup the configured location is resolved and weather is fetched for it; clients can trigger further fetches, refreshes and location requests.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig()
	logger := log.Logger

	logger.Info("Starting weather state server",
		zap.String("version", Version),
		zap.String("config_path", configPath),
		zap.String("source", cfg.Weather.Source),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	source, err := service.New(cfg.Weather, logger, tele)
	if err != nil {
		return err
	}

	metrics := handlers.NewMetrics(logger)

	current := state.NewCurrentWeatherState(source, logger, tele)
	current.SetMetricsRecorder(metrics)
	forecast := state.NewForecastState(source, logger, tele)
	forecast.SetMetricsRecorder(metrics)

	co := coordinator.NewCoordinator(current, forecast, cfg.Weather, logger, tele)
	co.Start(ctx)
	defer co.Stop()

	provider, err := location.NewStaticProviderWithConfig(cfg.Location)
	if err != nil {
		return fmt.Errorf("invalid location config: %w", err)
	}
	resolver := location.NewResolver(provider, logger)
	go resolver.Run(ctx)
	go co.Watch(ctx, resolver.Coordinates())

	scheduler := coordinator.NewScheduler(co, current.LastCoordinate, cfg.Weather.RefreshEvery(), logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	srv, err := server.NewServer(cfg.Server, server.Deps{
		Current:     current,
		Forecast:    forecast,
		Coordinator: co,
		Resolver:    resolver,
		Metrics:     metrics,
		SourceName:  source.Name(),
	}, logger, tele)
	if err != nil {
		return err
	}

	// Resolve the location once at startup, as the app does on launch.
	resolver.Request(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		logger.Info("Server shutdown complete")
		return nil
	}
}
