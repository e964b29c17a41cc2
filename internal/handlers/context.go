package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/internal/middleware"
	"github.com/charlesng35/bookreview/pkg/logger"
)

// requestContext is the context handed to the services: the request's own context tagged with
// its X-Request-ID, so cache and store diagnostics can be correlated with the access log.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return logger.ContextWithRequestID(c.Request.Context(), middleware.GetRequestID(c))
}
