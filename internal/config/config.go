package config

import (
	"sync/atomic"
	"time"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Location    LocationConfig  `mapstructure:"location"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	IdleTimeout    int      `mapstructure:"idle_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WeatherConfig selects the weather source and how fetches are driven.
type WeatherConfig struct {
	Source          string          `mapstructure:"source"`
	Timeout         int             `mapstructure:"timeout"`
	Workers         int             `mapstructure:"workers"`
	RefreshInterval int             `mapstructure:"refresh_interval"`
	Mock            MockConfig      `mapstructure:"mock"`
	OpenMeteo       OpenMeteoConfig `mapstructure:"open_meteo"`
}

type MockConfig struct {
	LatencyMS int `mapstructure:"latency_ms"`
}

type OpenMeteoConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	RequestTimeout     int    `mapstructure:"request_timeout"`
	BreakerMaxFailures int    `mapstructure:"breaker_max_failures"`
	BreakerTimeout     int    `mapstructure:"breaker_timeout"`
}

// LocationConfig describes the static location provider used outside a device.
type LocationConfig struct {
	Permission string  `mapstructure:"permission"`
	Grant      string  `mapstructure:"grant"`
	Latitude   float64 `mapstructure:"latitude"`
	Longitude  float64 `mapstructure:"longitude"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// FetchTimeout is zero when fetches are unbounded.
func (c WeatherConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c WeatherConfig) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    30,
			WriteTimeout:   30,
			IdleTimeout:    60,
			AllowedOrigins: []string{},
		},
		Weather: WeatherConfig{
			Source:          "mock",
			Timeout:         10,
			Workers:         2,
			RefreshInterval: 0,
			Mock: MockConfig{
				LatencyMS: 100,
			},
			OpenMeteo: OpenMeteoConfig{
				BaseURL:            "https://api.open-meteo.com/v1",
				RequestTimeout:     10,
				BreakerMaxFailures: 5,
				BreakerTimeout:     60,
			},
		},
		Location: LocationConfig{
			Permission: "not_determined",
			Grant:      "authorized",
			Latitude:   52.52,
			Longitude:  13.41,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "weather-state",
		},
	}
}
