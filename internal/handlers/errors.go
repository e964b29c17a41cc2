package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/bookreview/internal/services"
	appErrors "github.com/charlesng35/bookreview/pkg/errors"
	"github.com/charlesng35/bookreview/pkg/logger"
	"github.com/charlesng35/bookreview/pkg/response"
)

// errorResponder writes service failures as API errors. Internal faults are logged and,
// unless debug is set, reported without detail.
type errorResponder struct {
	debug bool
}

func (r errorResponder) respond(c *gin.Context, err error) {
	appErr := translateError(err, r.debug)
	if appErr.IsServerError() {
		fields := append([]zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		}, logger.RequestFields(requestContext(c))...)
		logger.WithModule("handlers").Error("request failed", fields...)
	}
	response.Error(c, appErr)
}

// translateError maps an error returned by the service layer to its transport form.
func translateError(err error, debug bool) *appErrors.AppError {
	if err == nil {
		return nil
	}
	if svcErr, ok := services.AsError(err); ok {
		return fromServiceError(svcErr)
	}
	if appErr := appErrors.FromError(err); appErr != nil && !appErr.IsServerError() {
		return appErr
	}
	return appErrors.Internal(err, debug)
}

func fromServiceError(err *services.Error) *appErrors.AppError {
	status := http.StatusBadRequest
	if err.Kind == services.KindNotFound {
		status = http.StatusNotFound
	}
	return appErrors.New(err.Code, err.Message, status)
}
