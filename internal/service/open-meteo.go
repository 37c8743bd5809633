package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/weather"
	"github.com/vzahanych/weather-state/pkg/telemetry"
)

const maxResponseBytes = 1 << 20

type OpenMeteoSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	now     func() time.Time
}

type openMeteoCurrentResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
}

type openMeteoDailyResponse struct {
	Daily struct {
		Time           []string  `json:"time"`
		WeatherCode    []int     `json:"weather_code"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

type openMeteoErrorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func NewOpenMeteoSourceWithConfig(cfg config.OpenMeteoConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxFailures := uint32(cfg.BreakerMaxFailures)
	if maxFailures == 0 {
		maxFailures = 5
	}

	s := &OpenMeteoSource{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		logger: logger,
		tele:   tele,
		now:    time.Now,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerTimeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return s
}

func (s *OpenMeteoSource) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoSource) FetchCurrent(ctx context.Context, c weather.Coordinate) (weather.Reading, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.FetchCurrent")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", c.Latitude),
		attribute.Float64("lon", c.Longitude),
	)

	if err := c.Validate(); err != nil {
		return weather.Reading{}, err
	}

	q := s.coordinateQuery(c)
	q.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code")
	q.Set("wind_speed_unit", "kmh")

	var payload openMeteoCurrentResponse
	if err := s.get(ctx, q, &payload); err != nil {
		s.tele.RecordError(ctx, err)
		return weather.Reading{}, err
	}

	cur := payload.Current
	if cur.Temperature == nil || cur.Humidity == nil || cur.WindSpeed == nil || cur.WeatherCode == nil {
		return weather.Reading{}, weather.Wrap(weather.KindInvalidData, errors.New("current weather fields missing"))
	}

	condition, description := describeWeatherCode(*cur.WeatherCode)
	reading, err := weather.NewReading(*cur.Temperature, condition, *cur.Humidity/100, *cur.WindSpeed, description)
	if err != nil {
		s.logger.Warn("Open-Meteo returned an invalid reading", zap.Error(err))
		return weather.Reading{}, weather.Wrap(weather.KindInvalidData, err)
	}

	return reading, nil
}

func (s *OpenMeteoSource) FetchForecast(ctx context.Context, c weather.Coordinate) ([]weather.ForecastDay, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.FetchForecast")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", c.Latitude),
		attribute.Float64("lon", c.Longitude),
	)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	today := s.now()
	start := weather.Day(today)
	end := start.AddDate(0, 0, weather.ForecastDays-1)

	q := s.coordinateQuery(c)
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min")
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))

	var payload openMeteoDailyResponse
	if err := s.get(ctx, q, &payload); err != nil {
		s.tele.RecordError(ctx, err)
		return nil, err
	}

	daily := payload.Daily
	n := len(daily.Time)
	if len(daily.WeatherCode) != n || len(daily.TemperatureMax) != n || len(daily.TemperatureMin) != n {
		return nil, weather.Wrap(weather.KindInvalidData, errors.New("daily series have different lengths"))
	}

	days := make([]weather.ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.Parse(time.DateOnly, daily.Time[i])
		if err != nil {
			return nil, weather.Wrap(weather.KindInvalidData, err)
		}

		condition, description := describeWeatherCode(daily.WeatherCode[i])
		days = append(days, weather.ForecastDay{
			Date:            date,
			Condition:       condition,
			HighTemperature: daily.TemperatureMax[i],
			LowTemperature:  daily.TemperatureMin[i],
			Description:     description,
		})
	}

	if err := weather.ValidateSequence(days, today); err != nil {
		return nil, weather.Wrap(weather.KindInvalidData, err)
	}

	span.SetAttributes(attribute.Int("days_fetched", len(days)))

	return days, nil
}

func (s *OpenMeteoSource) coordinateQuery(c weather.Coordinate) url.Values {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.6f", c.Latitude))
	q.Set("longitude", fmt.Sprintf("%.6f", c.Longitude))
	q.Set("timezone", "auto")
	return q
}

// get performs exactly one request through the circuit breaker and decodes
// the JSON body into out.
func (s *OpenMeteoSource) get(ctx context.Context, q url.Values, out interface{}) error {
	u, err := url.Parse(fmt.Sprintf("%s/forecast", s.baseURL))
	if err != nil {
		return weather.Wrap(weather.KindSourceUnavailable, err)
	}
	u.RawQuery = q.Encode()

	s.logger.Debug("Requesting Open-Meteo", zap.String("url", u.String()))

	result, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, weather.Wrap(weather.KindNetwork, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, weather.Wrap(weather.KindNetwork, err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, weather.APIError(errorReason(resp.StatusCode, body))
		}

		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return weather.Wrap(weather.KindSourceUnavailable, err)
		}
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return weather.Wrap(weather.KindInvalidData, fmt.Errorf("unexpected result type %T", result))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return weather.Wrap(weather.KindInvalidData, err)
	}

	return nil
}

func errorReason(status int, body []byte) string {
	var apiErr openMeteoErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Reason != "" {
		return fmt.Sprintf("status %d: %s", status, apiErr.Reason)
	}
	return fmt.Sprintf("status %d", status)
}

// describeWeatherCode maps a WMO weather interpretation code to a condition
// tag and a short description.
func describeWeatherCode(code int) (weather.Condition, string) {
	switch {
	case code == 0:
		return weather.ConditionSunny, "Clear sky"
	case code == 1:
		return weather.ConditionSunny, "Mainly clear"
	case code == 2:
		return weather.ConditionCloudy, "Partly cloudy"
	case code == 3:
		return weather.ConditionCloudy, "Overcast"
	case code == 45 || code == 48:
		return weather.ConditionOther, "Fog"
	case code >= 51 && code <= 57:
		return weather.ConditionRainy, "Drizzle"
	case code >= 61 && code <= 67:
		return weather.ConditionRainy, "Rain"
	case code >= 71 && code <= 77:
		return weather.ConditionSnowy, "Snow"
	case code >= 80 && code <= 82:
		return weather.ConditionRainy, "Rain showers"
	case code == 85 || code == 86:
		return weather.ConditionSnowy, "Snow showers"
	case code >= 95 && code <= 99:
		return weather.ConditionStormy, "Thunderstorm"
	default:
		return weather.ConditionOther, "Unknown"
	}
}
