package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Check reports whether a dependency is ready; the string is shown in the
// readiness response.
type Check func() (string, bool)

type HealthHandler struct {
	logger    *zap.Logger
	startTime time.Time
	checks    map[string]Check
}

func NewHealthHandler(logger *zap.Logger, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		startTime: time.Now(),
		checks:    checks,
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails with 503 while any check is not ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	results, ready := h.run()

	if !ready {
		h.logger.Warn("Readiness check failed", zap.Any("checks", results))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Uptime: time.Since(h.startTime).String(),
			Checks: results,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
		Checks: results,
	})
}

// Health always answers 200; failing checks downgrade the status.
func (h *HealthHandler) Health(c *gin.Context) {
	results, ready := h.run()

	status := "ok"
	if !ready {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	})
}

func (h *HealthHandler) run() (map[string]string, bool) {
	if len(h.checks) == 0 {
		return nil, true
	}

	ready := true
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		detail, ok := check()
		if !ok {
			ready = false
		}
		results[name] = detail
	}
	return results, ready
}
