package router

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "charitychain/internal/errors"
)

// ErrorHandler renders every error as the JSON failure envelope. Server side
// failures are logged with their cause.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body, cause := resolve(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Error(cause),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func resolve(err error) (int, apperrors.ErrorResponse, error) {
	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		cause := error(he)
		if he.Internal != nil {
			cause = he.Internal
		}
		switch msg := he.Message.(type) {
		case apperrors.ErrorResponse:
			return he.Code, msg, cause
		case string:
			return he.Code, apperrors.ErrorResponse{Message: msg, Code: statusCode(he.Code)}, cause
		default:
			return he.Code, apperrors.ErrorResponse{Message: http.StatusText(he.Code), Code: statusCode(he.Code)}, cause
		}
	}

	httpErr := apperrors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse(), err
}

// statusCode turns a status like 404 into "NOT_FOUND".
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
