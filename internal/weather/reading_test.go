package weather

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewReading_Valid(t *testing.T) {
	r, err := NewReading(22.5, ConditionSunny, 0.6, 12, "Clear and sunny")
	require.NoError(t, err)

	assert.Equal(t, 22.5, r.Temperature)
	assert.Equal(t, ConditionSunny, r.Condition)
	assert.Equal(t, 0.6, r.Humidity)
	assert.Equal(t, 12.0, r.WindSpeed)
	assert.Equal(t, "Clear and sunny", r.Description)
	assert.True(t, r.IsValid())
	assert.Empty(t, r.Validate())
}

func TestNewReading_SingleViolation(t *testing.T) {
	tests := []struct {
		name      string
		temp      float64
		condition Condition
		humidity  float64
		wind      float64
		contains  string
	}{
		{"temperature too high", 70, ConditionSunny, 0.5, 10, "temperature"},
		{"temperature too low", -60, ConditionSnowy, 0.5, 10, "temperature"},
		{"humidity above one", 20, ConditionCloudy, 1.5, 10, "humidity"},
		{"negative humidity", 20, ConditionCloudy, -0.1, 10, "humidity"},
		{"wind too fast", 20, ConditionWindy, 0.5, 250, "wind speed"},
		{"negative wind", 20, ConditionWindy, 0.5, -1, "wind speed"},
		{"empty condition", 20, "", 0.5, 10, "condition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReading(tt.temp, tt.condition, tt.humidity, tt.wind, "desc")
			require.Error(t, err)

			var ire *InvalidReadingError
			require.True(t, errors.As(err, &ire))
			require.Len(t, ire.Reasons, 1)
			assert.Contains(t, ire.Reasons[0], tt.contains)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestNewReading_AllViolationsReported(t *testing.T) {
	_, err := NewReading(100, "", 2, 500, "")
	require.Error(t, err)

	var ire *InvalidReadingError
	require.True(t, errors.As(err, &ire))
	assert.Len(t, ire.Reasons, 4)

	seen := make(map[string]bool)
	for _, reason := range ire.Reasons {
		assert.False(t, seen[reason], "duplicate reason %q", reason)
		seen[reason] = true
	}
}

func TestReading_BoundariesAreValid(t *testing.T) {
	for _, r := range []Reading{
		{Temperature: -50, Condition: ConditionSnowy, Humidity: 0, WindSpeed: 0},
		{Temperature: 60, Condition: ConditionSunny, Humidity: 1, WindSpeed: 200},
	} {
		assert.True(t, r.IsValid(), "%+v", r)
	}
}

func TestReading_EmptyDescriptionIsValid(t *testing.T) {
	_, err := NewReading(20, ConditionCloudy, 0.5, 5, "")
	assert.NoError(t, err)
}

func TestReading_Quality(t *testing.T) {
	tests := []struct {
		temp, humidity, wind float64
		want                 Quality
	}{
		{25, 0.5, 10, QualityExcellent},
		{18, 0.7, 19.9, QualityExcellent},
		{25, 0.5, 20, QualityGood},
		{32, 0.5, 10, QualityFair},
		{28, 0.5, 10, QualityGood},
		{15, 0.8, 30, QualityGood},
		{22, 0.9, 5, QualityFair},
		{40, 0.5, 10, QualityPoor},
		{35, 0.9, 10, QualityFair},
		{5, 0.2, 50, QualityFair},
		{4.9, 0.2, 0, QualityPoor},
		{-10, 0.5, 10, QualityPoor},
	}

	for _, tt := range tests {
		r := Reading{Temperature: tt.temp, Condition: ConditionSunny, Humidity: tt.humidity, WindSpeed: tt.wind}
		assert.Equal(t, tt.want, r.Quality(), "T=%v H=%v W=%v", tt.temp, tt.humidity, tt.wind)
	}
}

func TestReading_DerivedValues(t *testing.T) {
	r := Reading{Temperature: 25, Condition: ConditionSunny, Humidity: 0.65, WindSpeed: 15}

	assert.InDelta(t, 77.0, r.Fahrenheit(), 1e-9)
	assert.True(t, r.IsComfortable())
	assert.Equal(t, "25.0°C", r.TemperatureDisplay())
	assert.Equal(t, "77.0°F", r.FahrenheitDisplay())
	assert.Equal(t, "65%", r.HumidityDisplay())
	assert.Equal(t, "15.0 km/h", r.WindSpeedDisplay())

	hot := Reading{Temperature: 27, Condition: ConditionSunny, Humidity: 0.5}
	assert.False(t, hot.IsComfortable())
	humid := Reading{Temperature: 22, Condition: ConditionRainy, Humidity: 0.71}
	assert.False(t, humid.IsComfortable())
}

func TestReading_RoundTrip(t *testing.T) {
	r, err := NewReading(18.25, ConditionRainy, 0.85, 20, "Light rain")
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var decoded Reading
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, r, decoded)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(r)
		require.NoError(t, err)

		var decoded Reading
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, r, decoded)
	})
}
