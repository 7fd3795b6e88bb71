// Package httputil writes the JSON error bodies shared by every API handler.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/msc/internal/errors"
)

// ErrorResponse is the body of every non-2xx API response.
//
// Code is set when the error carries a protocol code (e.g. "replay_detected") so clients
// can tell a stale request from a replay without parsing Message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorCodeKey is the gin context key under which HandleErrorGin records the response code
// so middleware (request metrics) can label the outcome.
const ErrorCodeKey = "msc.error_code"

type errorCategory struct {
	target  error
	status  int
	label   string
	message string
}

// Checked in order. An empty message means err.Error() is safe to return.
var errorCategories = []errorCategory{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "The request was already processed"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "The request could not be authorized"},
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please retry later."},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", "You don't have permission to access this resource"},
}

// HandleErrorGin maps err to a status code by category and writes the JSON error body.
// Uncategorized errors become a 500 whose details stay in the log.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode := http.StatusInternalServerError
	response := ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}

	for _, category := range errorCategories {
		if !apperrors.Is(err, category.target) {
			continue
		}
		statusCode = category.status
		response = ErrorResponse{
			Error:   category.label,
			Message: category.message,
			Code:    apperrors.CodeOf(err),
		}
		if response.Message == "" {
			response.Message = err.Error()
		}
		break
	}

	if response.Code != "" {
		c.Set(ErrorCodeKey, response.Code)
	}

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c, level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", response.Error),
			slog.String("code", response.Code),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, response)
}

// HandleBadRequestGin writes a 400 for a body or parameter that could not be decoded.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 for a request DTO that failed validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
