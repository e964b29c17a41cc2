package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/charlesng35/bookreview/pkg/errors"
	"github.com/charlesng35/bookreview/pkg/logger"
	"github.com/charlesng35/bookreview/pkg/response"
)

// Recovery converts panics into a 500 response and logs the error. The panic value is only
// echoed to the client when debug is set.
func Recovery(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.Any("error", r),
					zap.Stack("stack"),
				)
				response.Error(c, appErrors.Internal(fmt.Errorf("panic: %v", r), debug))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, appErrors.New("ROUTE_NOT_FOUND", fmt.Sprintf("route %s not found", c.Request.URL.Path), http.StatusNotFound))
}
