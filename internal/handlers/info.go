package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/pkg/response"
)

// ServiceName and Version are reported by the root endpoint.
const (
	ServiceName = "Book Review Service"
	Version     = "1.0.0"
)

// ServiceInfo returns the root payload pointing clients at the API and health endpoints.
func ServiceInfo(apiPrefix, metricsPath string) gin.HandlerFunc {
	apiPrefix = "/" + strings.Trim(apiPrefix, "/")
	links := gin.H{
		"books":   apiPrefix + "/books",
		"health":  "/health",
		"summary": apiPrefix + "/monitoring/summary",
	}
	if metricsPath != "" {
		links["metrics"] = metricsPath
	}

	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"message": "Welcome to " + ServiceName + " API",
			"version": Version,
			"links":   links,
		})
	}
}
