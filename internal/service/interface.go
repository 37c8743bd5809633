package service

import (
	"context"

	"github.com/vzahanych/weather-state/internal/weather"
)

// WeatherSource fetches weather for a coordinate. Implementations validate the
// coordinate before any remote call, make a single attempt per call, and
// return *weather.SourceError values.
type WeatherSource interface {
	Name() string
	FetchCurrent(ctx context.Context, c weather.Coordinate) (weather.Reading, error)
	FetchForecast(ctx context.Context, c weather.Coordinate) ([]weather.ForecastDay, error)
}
