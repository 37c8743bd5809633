package service

import (
	"fmt"
	"time"

	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/pkg/telemetry"
	"go.uber.org/zap"
)

// New builds the weather source selected by cfg.Source.
func New(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) (WeatherSource, error) {
	switch cfg.Source {
	case "mock":
		return NewMockSource(time.Duration(cfg.Mock.LatencyMS)*time.Millisecond, logger), nil
	case "open-meteo":
		return NewOpenMeteoSourceWithConfig(cfg.OpenMeteo, logger, tele), nil
	default:
		return nil, fmt.Errorf("unknown weather source %q", cfg.Source)
	}
}
