package utils

import (
	"errors"
	"net/http"

	"github.com/otadrift/otadrift/internal/api/dto/common"
	"github.com/otadrift/otadrift/internal/logging"
	"github.com/otadrift/otadrift/internal/service"
	"github.com/otadrift/otadrift/internal/update"

	"github.com/gin-gonic/gin"
)

// LogError logs an error with a message using the singleton logger
func LogError(err error, message string) {
	logger := logging.GetGlobalLogger()
	logger.Error("%s: %v", message, err)
}

// statusForCode maps an API error code to its HTTP status
func statusForCode(code common.ErrorCode) int {
	switch code {
	case common.ErrCodeValidation, common.ErrCodeBadRequest:
		return http.StatusBadRequest
	case common.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case common.ErrCodeNotFound:
		return http.StatusNotFound
	case common.ErrCodeConflict:
		return http.StatusConflict
	case common.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case common.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleAPIError is a utility function for consistent error handling across the API.
// Well-known service errors override the caller's default code; sensitive error
// details are only exposed outside of release mode.
func HandleAPIError(c *gin.Context, err error, defaultCode common.ErrorCode, defaultMessage string) {
	code := defaultCode
	message := defaultMessage

	switch {
	case errors.Is(err, service.ErrNotFound):
		code = common.ErrCodeNotFound
		message = "Resource not found"
	case errors.Is(err, service.ErrConflict):
		code = common.ErrCodeConflict
	case errors.Is(err, service.ErrValidation), errors.Is(err, update.ErrValidation):
		code = common.ErrCodeValidation
	case errors.Is(err, update.ErrStoreUnavailable):
		code = common.ErrCodeStoreUnavailable
		message = "Bundle store temporarily unavailable"
	}

	status := statusForCode(code)

	logger := logging.GetGlobalLogger()
	logger.LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	var errorDetails interface{}
	if gin.Mode() != gin.ReleaseMode && err != nil {
		errorDetails = err.Error()
	}

	c.JSON(status, common.NewErrorResponse(code, message, errorDetails))
}
