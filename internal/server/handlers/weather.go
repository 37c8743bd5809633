package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-state/internal/coordinator"
	"github.com/vzahanych/weather-state/internal/server/utils"
	"github.com/vzahanych/weather-state/internal/state"
	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	current     *state.CurrentWeatherState
	forecast    *state.ForecastState
	coordinator *coordinator.Coordinator
	logger      *zap.Logger
}

func NewWeatherHandler(current *state.CurrentWeatherState, forecast *state.ForecastState, co *coordinator.Coordinator, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		current:     current,
		forecast:    forecast,
		coordinator: co,
		logger:      logger,
	}
}

func (h *WeatherHandler) GetCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, NewCurrentResponse(h.current.Snapshot()))
}

func (h *WeatherHandler) GetForecast(c *gin.Context) {
	c.JSON(http.StatusOK, NewForecastResponse(h.forecast.Snapshot()))
}

// Fetch starts a dual fetch for the requested coordinate. By default the work
// is queued and 202 is returned; with sync=true the handler waits and returns
// both resulting states.
func (h *WeatherHandler) Fetch(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req FetchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
			Fields:  utils.FormatValidationErrors(err),
		})
		return
	}

	coord := req.Coordinate()
	reqLogger.Info("Processing fetch request",
		zap.String("coordinate", coord.Key()),
		zap.Bool("sync", req.Sync))

	if req.Sync {
		// The holders are shared, so a client hanging up must not cancel the
		// fetch and publish its failure to everyone else.
		h.coordinator.FetchAll(context.WithoutCancel(ctx), coord)
		c.JSON(http.StatusOK, h.states(coord))
		return
	}

	taskID, err := h.coordinator.Submit(ctx, coord)
	if err != nil {
		reqLogger.Error("Failed to queue fetch", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, coordinator.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ErrorResponse{
			Error:   "Failed to queue weather fetch",
			Code:    "QUEUE_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, FetchResponse{
		TaskID:     taskID,
		Coordinate: coord,
	})
}

// Refresh re-fetches both holders against their last coordinate.
func (h *WeatherHandler) Refresh(c *gin.Context) {
	ctx := context.WithoutCancel(utils.GetContextFromGinContext(c))

	res := h.coordinator.RefreshAll(ctx)
	if errors.Is(res.Current, weather.ErrInvalidLocation) && errors.Is(res.Forecast, weather.ErrInvalidLocation) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   weather.Message(weather.ErrInvalidLocation),
			Code:    "NO_LOCATION",
			Details: "no coordinate has been fetched yet",
		})
		return
	}

	coord, _ := h.current.LastCoordinate()
	c.JSON(http.StatusOK, h.states(coord))
}

func (h *WeatherHandler) ClearCurrentError(c *gin.Context) {
	h.current.ClearError()
	c.JSON(http.StatusOK, NewCurrentResponse(h.current.Snapshot()))
}

func (h *WeatherHandler) ClearForecastError(c *gin.Context) {
	h.forecast.ClearError()
	c.JSON(http.StatusOK, NewForecastResponse(h.forecast.Snapshot()))
}

func (h *WeatherHandler) states(coord weather.Coordinate) FetchResponse {
	current := NewCurrentResponse(h.current.Snapshot())
	forecast := NewForecastResponse(h.forecast.Snapshot())
	return FetchResponse{
		Coordinate: coord,
		Current:    &current,
		Forecast:   &forecast,
	}
}
