package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/location"
	"github.com/vzahanych/weather-state/internal/service"
	"github.com/vzahanych/weather-state/internal/state"
	"github.com/vzahanych/weather-state/internal/weather"
	"gopkg.in/yaml.v3"
)

type fetchFlags struct {
	lat    float64
	lon    float64
	output string
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude in decimal degrees (default: resolve from location config)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude in decimal degrees (default: resolve from location config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "yaml", "output format: yaml or json")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
}

// coordinate returns the flag coordinate, or resolves one through the
// configured location provider when no flags were given.
func (f *fetchFlags) coordinate(cmd *cobra.Command) (weather.Coordinate, error) {
	if cmd.Flags().Changed("lat") {
		return weather.Coordinate{Latitude: f.lat, Longitude: f.lon}, nil
	}

	provider, err := location.NewStaticProviderWithConfig(config.GetConfig().Location)
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid location config: %w", err)
	}

	ctx := cmd.Context()
	resolver := location.NewResolver(provider, log.Logger)
	if c, ok := resolver.Request(ctx); ok {
		return c, nil
	}

	// The static provider answers the permission prompt immediately.
	if c, ok := resolver.HandleStatus(ctx, provider.Status()); ok {
		return c, nil
	}
	return weather.Fallback, nil
}

type currentOutput struct {
	Coordinate weather.Coordinate `json:"coordinate" yaml:"coordinate"`
	Reading    *weather.Reading   `json:"reading,omitempty" yaml:"reading,omitempty"`
	Fahrenheit float64            `json:"fahrenheit,omitempty" yaml:"fahrenheit,omitempty"`
	Quality    weather.Quality    `json:"quality,omitempty" yaml:"quality,omitempty"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
}

type forecastOutput struct {
	Coordinate weather.Coordinate    `json:"coordinate" yaml:"coordinate"`
	Days       []weather.ForecastDay `json:"days,omitempty" yaml:"days,omitempty"`
	Error      string                `json:"error,omitempty" yaml:"error,omitempty"`
}

func currentCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Fetch the current weather once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.coordinate(cmd)
			if err != nil {
				return err
			}

			source, err := service.New(config.GetConfig().Weather, log.Logger, tele)
			if err != nil {
				return err
			}

			holder := state.NewCurrentWeatherState(source, log.Logger, tele)
			ctx, cancel := fetchContext(cmd.Context())
			defer cancel()
			fetchErr := holder.Fetch(ctx, c)

			snap := holder.Snapshot()
			out := currentOutput{Coordinate: c, Reading: snap.Data, Error: snap.ErrorMessage}
			if snap.Data != nil {
				out.Fahrenheit = snap.Data.Fahrenheit()
				out.Quality = snap.Data.Quality()
			}

			if err := render(cmd.OutOrStdout(), flags.output, out); err != nil {
				return err
			}
			return fetchErr
		},
	}

	flags.register(cmd)
	return cmd
}

func forecastCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fetch the 7-day forecast once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.coordinate(cmd)
			if err != nil {
				return err
			}

			source, err := service.New(config.GetConfig().Weather, log.Logger, tele)
			if err != nil {
				return err
			}

			holder := state.NewForecastState(source, log.Logger, tele)
			ctx, cancel := fetchContext(cmd.Context())
			defer cancel()
			fetchErr := holder.Fetch(ctx, c)

			snap := holder.Snapshot()
			out := forecastOutput{Coordinate: c, Days: snap.Data, Error: snap.ErrorMessage}

			if err := render(cmd.OutOrStdout(), flags.output, out); err != nil {
				return err
			}
			return fetchErr
		},
	}

	flags.register(cmd)
	return cmd
}

func fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := config.GetConfig().Weather.FetchTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
