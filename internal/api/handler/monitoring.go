package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smolin/antiplag/internal/service"
)

// MonitoringHandler exposes manual control over the monitoring loop.
type MonitoringHandler struct {
	orchestrator *service.Orchestrator
}

// NewMonitoringHandler creates a new monitoring handler.
// Parameters:
//   - orchestrator: the monitoring orchestrator.
// Returns:
//   - *MonitoringHandler: initialized handler.
func NewMonitoringHandler(orchestrator *service.Orchestrator) *MonitoringHandler {
	return &MonitoringHandler{
		orchestrator: orchestrator,
	}
}

// Run handles POST /api/v1/monitoring/run, triggering an out-of-schedule
// run. The trigger is rejected while a run is already active.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *MonitoringHandler) Run(c *gin.Context) {
	if !h.orchestrator.RunAsync() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "A monitoring run is already in progress",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// Status handles GET /api/v1/monitoring/status.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *MonitoringHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.orchestrator.State(),
	})
}
