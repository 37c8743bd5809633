package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-state/internal/location"
	"github.com/vzahanych/weather-state/internal/server/utils"
	"go.uber.org/zap"
)

type LocationHandler struct {
	resolver *location.Resolver
	logger   *zap.Logger
}

func NewLocationHandler(resolver *location.Resolver, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Request asks the resolver for a coordinate. The resolved coordinate also
// flows to the coordinator, which fetches weather for it. While permission is
// pending the response is 202 and the fetch follows once it is answered.
func (h *LocationHandler) Request(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	coord, ok := h.resolver.Request(ctx)
	if !ok {
		h.logger.Info("Location permission pending",
			zap.String("request_id", utils.GetRequestIDFromGinContext(c)))
		c.JSON(http.StatusAccepted, LocationResponse{
			State: h.resolver.State().String(),
		})
		return
	}

	c.JSON(http.StatusOK, LocationResponse{
		State:      h.resolver.State().String(),
		Resolved:   true,
		Coordinate: &coord,
	})
}

func (h *LocationHandler) Get(c *gin.Context) {
	resp := LocationResponse{State: h.resolver.State().String()}
	if coord, ok := h.resolver.Last(); ok {
		resp.Resolved = true
		resp.Coordinate = &coord
	}
	c.JSON(http.StatusOK, resp)
}
