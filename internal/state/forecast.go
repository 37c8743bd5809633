package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-state/internal/weather"
	"github.com/vzahanych/weather-state/pkg/telemetry"
)

type ForecastSource interface {
	FetchForecast(ctx context.Context, c weather.Coordinate) ([]weather.ForecastDay, error)
}

// ForecastState holds the 7-day forecast. A published forecast always has
// exactly seven consecutive days starting today; anything else from the
// source is treated as invalid data.
type ForecastState struct {
	*holder[[]weather.ForecastDay]

	source  ForecastSource
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics Recorder
	now     func() time.Time

	coordMu sync.Mutex
	last    *weather.Coordinate
}

func NewForecastState(source ForecastSource, logger *zap.Logger, tele *telemetry.Telemetry) *ForecastState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastState{
		holder: newHolder(cloneForecast),
		source: source,
		logger: logger.With(zap.String("holder", "forecast")),
		tele:   tele,
		now:    time.Now,
	}
}

func cloneForecast(days []weather.ForecastDay) []weather.ForecastDay {
	return slices.Clone(days)
}

func (s *ForecastState) SetMetricsRecorder(metrics Recorder) {
	s.metrics = metrics
}

// SetClock replaces the clock used to decide which day is today.
func (s *ForecastState) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ForecastState) Snapshot() Snapshot[[]weather.ForecastDay] {
	return s.snapshot()
}

func (s *ForecastState) Subscribe() (<-chan Snapshot[[]weather.ForecastDay], func()) {
	return s.subscribe()
}

func (s *ForecastState) LastCoordinate() (weather.Coordinate, bool) {
	s.coordMu.Lock()
	defer s.coordMu.Unlock()
	if s.last == nil {
		return weather.Coordinate{}, false
	}
	return *s.last, true
}

func (s *ForecastState) Fetch(ctx context.Context, c weather.Coordinate) error {
	ctx, span := s.tele.GetTracer().Start(ctx, "state.ForecastState.Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", c.Latitude),
		attribute.Float64("lon", c.Longitude),
	)

	if c.Validate() == nil {
		s.coordMu.Lock()
		s.last = &c
		s.coordMu.Unlock()
	}

	start := time.Now()
	err := run(ctx, s.holder, func(ctx context.Context) ([]weather.ForecastDay, error) {
		requested := s.now()
		days, err := s.source.FetchForecast(ctx, c)
		if err != nil {
			return nil, err
		}
		// A fetch spanning midnight may be answered for the day it was asked on.
		if err := weather.ValidateSequence(days, s.now()); err != nil {
			if weather.ValidateSequence(days, requested) != nil {
				return nil, err
			}
		}
		for _, d := range days {
			if d.Inverted() {
				s.logger.Warn("Forecast day has low above high",
					zap.Time("date", d.Date),
					zap.Float64("low", d.LowTemperature),
					zap.Float64("high", d.HighTemperature))
			}
		}
		return slices.Clone(days), nil
	}, weather.Message)

	if s.metrics != nil {
		s.metrics.RecordFetch(ctx, "forecast", time.Since(start), err)
	}

	if err != nil {
		s.tele.RecordError(ctx, err, attribute.String("kind", weather.KindOf(err).String()))
		s.logger.Warn("Forecast fetch failed",
			zap.String("coordinate", c.Key()),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Forecast fetched",
		zap.String("coordinate", c.Key()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Refresh re-fetches the last coordinate; see CurrentWeatherState.Refresh.
func (s *ForecastState) Refresh(ctx context.Context) error {
	c, ok := s.LastCoordinate()
	if !ok {
		s.update(func(snap *Snapshot[[]weather.ForecastDay]) {
			snap.ErrorMessage = weather.Message(weather.ErrInvalidLocation)
		})
		return weather.ErrInvalidLocation
	}
	return s.Fetch(ctx, c)
}

func (s *ForecastState) ClearError() {
	s.update(func(snap *Snapshot[[]weather.ForecastDay]) {
		snap.ErrorMessage = ""
	})
}
