package state

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-state/internal/weather"
	"github.com/vzahanych/weather-state/pkg/telemetry"
)

// CurrentSource fetches the current reading for a coordinate.
type CurrentSource interface {
	FetchCurrent(ctx context.Context, c weather.Coordinate) (weather.Reading, error)
}

// CurrentWeatherState holds the current reading, its loading flag and a
// user-facing error message. Overlapping fetches are not cancelled or
// de-duplicated: the last one to complete wins.
type CurrentWeatherState struct {
	*holder[*weather.Reading]

	source  CurrentSource
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics Recorder

	coordMu sync.Mutex
	last    *weather.Coordinate
}

func NewCurrentWeatherState(source CurrentSource, logger *zap.Logger, tele *telemetry.Telemetry) *CurrentWeatherState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurrentWeatherState{
		holder: newHolder(cloneReading),
		source: source,
		logger: logger.With(zap.String("holder", "current")),
		tele:   tele,
	}
}

func cloneReading(r *weather.Reading) *weather.Reading {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SetMetricsRecorder sets the metrics recorder for the holder
func (s *CurrentWeatherState) SetMetricsRecorder(metrics Recorder) {
	s.metrics = metrics
}

// Snapshot returns the current published state. Data is nil when there is
// no reading.
func (s *CurrentWeatherState) Snapshot() Snapshot[*weather.Reading] {
	return s.snapshot()
}

// Subscribe streams snapshots; call cancel to stop.
func (s *CurrentWeatherState) Subscribe() (<-chan Snapshot[*weather.Reading], func()) {
	return s.subscribe()
}

// LastCoordinate is the most recent valid coordinate passed to Fetch.
func (s *CurrentWeatherState) LastCoordinate() (weather.Coordinate, bool) {
	s.coordMu.Lock()
	defer s.coordMu.Unlock()
	if s.last == nil {
		return weather.Coordinate{}, false
	}
	return *s.last, true
}

// Fetch loads the reading for c. The returned error is already reflected in
// the published error message.
func (s *CurrentWeatherState) Fetch(ctx context.Context, c weather.Coordinate) error {
	ctx, span := s.tele.GetTracer().Start(ctx, "state.CurrentWeatherState.Fetch")
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
	err := run(ctx, s.holder, func(ctx context.Context) (*weather.Reading, error) {
		r, err := s.source.FetchCurrent(ctx, c)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}, weather.Message)

	if s.metrics != nil {
		s.metrics.RecordFetch(ctx, "current", time.Since(start), err)
	}

	if err != nil {
		s.tele.RecordError(ctx, err, attribute.String("kind", weather.KindOf(err).String()))
		s.logger.Warn("Current weather fetch failed",
			zap.String("coordinate", c.Key()),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Current weather fetched",
		zap.String("coordinate", c.Key()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Refresh re-fetches the last coordinate. Without one it publishes and
// returns weather.ErrInvalidLocation and does not call the source.
func (s *CurrentWeatherState) Refresh(ctx context.Context) error {
	c, ok := s.LastCoordinate()
	if !ok {
		s.update(func(snap *Snapshot[*weather.Reading]) {
			snap.ErrorMessage = weather.Message(weather.ErrInvalidLocation)
		})
		return weather.ErrInvalidLocation
	}
	return s.Fetch(ctx, c)
}

// ClearError clears the error message only.
func (s *CurrentWeatherState) ClearError() {
	s.update(func(snap *Snapshot[*weather.Reading]) {
		snap.ErrorMessage = ""
	})
}
