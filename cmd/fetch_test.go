package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-state/internal/weather"
	"gopkg.in/yaml.v3"
)

func TestRender(t *testing.T) {
	reading := weather.Reading{
		Temperature: 22.5,
		Condition:   weather.ConditionSunny,
		Humidity:    0.6,
		WindSpeed:   12,
		Description: "Clear and sunny",
	}
	out := currentOutput{
		Coordinate: weather.Fallback,
		Reading:    &reading,
		Fahrenheit: reading.Fahrenheit(),
		Quality:    reading.Quality(),
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, "yaml", out))

		var got currentOutput
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, out, got)
		assert.Contains(t, buf.String(), "quality: excellent")
		assert.NotContains(t, buf.String(), "error:")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, "json", out))

		var got currentOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, out, got)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, render(&bytes.Buffer{}, "xml", out))
	})
}

func TestRender_ErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", forecastOutput{
		Coordinate: weather.Fallback,
		Error:      "network connection failed",
	}))

	assert.Contains(t, buf.String(), `"error": "network connection failed"`)
	assert.NotContains(t, buf.String(), `"days"`)
}
