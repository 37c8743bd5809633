package handlers

import (
	"github.com/vzahanych/weather-state/internal/server/utils"
	"github.com/vzahanych/weather-state/internal/state"
	"github.com/vzahanych/weather-state/internal/weather"
)

// FetchRequest carries the coordinate of a dual fetch. Pointers make a
// zero latitude or longitude distinguishable from a missing one.
type FetchRequest struct {
	Lat  *float64 `form:"lat" json:"lat" binding:"required,latitude"`
	Lon  *float64 `form:"lon" json:"lon" binding:"required,longitude"`
	Sync bool     `form:"sync" json:"sync"`
}

func (r FetchRequest) Coordinate() weather.Coordinate {
	return weather.Coordinate{Latitude: *r.Lat, Longitude: *r.Lon}
}

// ReadingView adds the derived values a UI displays next to a reading.
type ReadingView struct {
	weather.Reading
	Fahrenheit    float64         `json:"fahrenheit"`
	IsComfortable bool            `json:"is_comfortable"`
	Quality       weather.Quality `json:"quality"`
}

func NewReadingView(r *weather.Reading) *ReadingView {
	if r == nil {
		return nil
	}
	return &ReadingView{
		Reading:       *r,
		Fahrenheit:    r.Fahrenheit(),
		IsComfortable: r.IsComfortable(),
		Quality:       r.Quality(),
	}
}

type CurrentResponse struct {
	Data         *ReadingView `json:"data"`
	IsLoading    bool         `json:"is_loading"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Version      uint64       `json:"version"`
}

func NewCurrentResponse(s state.Snapshot[*weather.Reading]) CurrentResponse {
	return CurrentResponse{
		Data:         NewReadingView(s.Data),
		IsLoading:    s.IsLoading,
		ErrorMessage: s.ErrorMessage,
		Version:      s.Version,
	}
}

type ForecastDayView struct {
	Date             string            `json:"date"`
	Condition        weather.Condition `json:"condition"`
	HighTemperature  float64           `json:"high_temperature"`
	LowTemperature   float64           `json:"low_temperature"`
	Description      string            `json:"description"`
	TemperatureRange string            `json:"temperature_range"`
}

type ForecastResponse struct {
	Data         []ForecastDayView `json:"data"`
	IsLoading    bool              `json:"is_loading"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Version      uint64            `json:"version"`
}

func NewForecastResponse(s state.Snapshot[[]weather.ForecastDay]) ForecastResponse {
	days := make([]ForecastDayView, 0, len(s.Data))
	for _, d := range s.Data {
		days = append(days, ForecastDayView{
			Date:             d.Date.Format("2006-01-02"),
			Condition:        d.Condition,
			HighTemperature:  d.HighTemperature,
			LowTemperature:   d.LowTemperature,
			Description:      d.Description,
			TemperatureRange: d.TemperatureRange(),
		})
	}
	return ForecastResponse{
		Data:         days,
		IsLoading:    s.IsLoading,
		ErrorMessage: s.ErrorMessage,
		Version:      s.Version,
	}
}

// FetchResponse reports a queued fetch, or the outcome of a synchronous one.
type FetchResponse struct {
	TaskID     string             `json:"task_id,omitempty"`
	Coordinate weather.Coordinate `json:"coordinate"`
	Current    *CurrentResponse   `json:"current,omitempty"`
	Forecast   *ForecastResponse  `json:"forecast,omitempty"`
}

type LocationResponse struct {
	State      string              `json:"state"`
	Resolved   bool                `json:"resolved"`
	Coordinate *weather.Coordinate `json:"coordinate,omitempty"`
}

// StateMessage is one frame of the /ws/state stream.
type StateMessage struct {
	Type     string            `json:"type"`
	Current  *CurrentResponse  `json:"current,omitempty"`
	Forecast *ForecastResponse `json:"forecast,omitempty"`
}

const (
	MessageTypeCurrent  = "current"
	MessageTypeForecast = "forecast"
)

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details string                  `json:"details,omitempty"`
	Fields  []utils.ValidationError `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}
