package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/pkg/response"
)

// MonitoringHandler surfaces runtime statistics for operators.
type MonitoringHandler struct {
	module          *monitoring.Module
	metricsEndpoint string
}

// NewMonitoringHandler constructs a monitoring handler. Returns nil when monitoring is disabled.
// metricsEndpoint is empty when Prometheus exposition is off.
func NewMonitoringHandler(module *monitoring.Module, metricsEndpoint string) *MonitoringHandler {
	if module == nil {
		return nil
	}
	return &MonitoringHandler{module: module, metricsEndpoint: metricsEndpoint}
}

// Summary returns cache, catalogue and maintenance statistics.
func (h *MonitoringHandler) Summary(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"summary": h.module.Summary(),
		"prometheus": gin.H{
			"enabled":  h.metricsEndpoint != "",
			"endpoint": h.metricsEndpoint,
		},
	})
}
