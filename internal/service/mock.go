package service

import (
	"context"
	"sync"
	"time"

	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap"
)

var defaultMockReading = weather.Reading{
	Temperature: 22.5,
	Condition:   weather.ConditionSunny,
	Humidity:    0.6,
	WindSpeed:   12.0,
	Description: "Clear and sunny",
}

var mockForecastPattern = []struct {
	condition weather.Condition
	high, low float64
	desc      string
}{
	{weather.ConditionSunny, 28, 18, "Clear"},
	{weather.ConditionCloudy, 26, 16, "Cloudy"},
	{weather.ConditionRainy, 22, 12, "Light rain"},
	{weather.ConditionSunny, 30, 20, "Sunny"},
	{weather.ConditionCloudy, 25, 15, "Partly cloudy"},
	{weather.ConditionSunny, 27, 17, "Clear"},
	{weather.ConditionRainy, 24, 14, "Showers"},
}

// MockSource serves canned weather after a simulated latency. It doubles as
// a test source: readings and failures can be swapped at runtime.
type MockSource struct {
	mu            sync.Mutex
	latency       time.Duration
	reading       weather.Reading
	currentErr    error
	forecastErr   error
	now           func() time.Time
	currentCalls  int
	forecastCalls int
	logger        *zap.Logger
}

func NewMockSource(latency time.Duration, logger *zap.Logger) *MockSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockSource{
		latency: latency,
		reading: defaultMockReading,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *MockSource) Name() string {
	return "mock"
}

func (s *MockSource) SetReading(r weather.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = r
}

// SetError makes both fetch operations fail with err; nil restores success.
func (s *MockSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentErr = err
	s.forecastErr = err
}

func (s *MockSource) SetCurrentError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentErr = err
}

func (s *MockSource) SetForecastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecastErr = err
}

func (s *MockSource) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

func (s *MockSource) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CurrentCalls counts FetchCurrent calls that passed coordinate validation.
func (s *MockSource) CurrentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCalls
}

func (s *MockSource) ForecastCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecastCalls
}

func (s *MockSource) FetchCurrent(ctx context.Context, c weather.Coordinate) (weather.Reading, error) {
	if err := c.Validate(); err != nil {
		return weather.Reading{}, err
	}

	s.mu.Lock()
	s.currentCalls++
	latency, reading, failure := s.latency, s.reading, s.currentErr
	s.mu.Unlock()

	if err := sleep(ctx, latency); err != nil {
		return weather.Reading{}, err
	}

	if failure != nil {
		s.logger.Debug("Mock source failing current fetch", zap.Error(failure))
		return weather.Reading{}, failure
	}

	return reading, nil
}

func (s *MockSource) FetchForecast(ctx context.Context, c weather.Coordinate) ([]weather.ForecastDay, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.forecastCalls++
	latency, failure, now := s.latency, s.forecastErr, s.now
	s.mu.Unlock()

	if err := sleep(ctx, latency); err != nil {
		return nil, err
	}

	if failure != nil {
		s.logger.Debug("Mock source failing forecast fetch", zap.Error(failure))
		return nil, failure
	}

	today := weather.Day(now())
	days := make([]weather.ForecastDay, 0, weather.ForecastDays)
	for i, p := range mockForecastPattern {
		days = append(days, weather.ForecastDay{
			Date:            today.AddDate(0, 0, i),
			Condition:       p.condition,
			HighTemperature: p.high,
			LowTemperature:  p.low,
			Description:     p.desc,
		})
	}

	return days, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
