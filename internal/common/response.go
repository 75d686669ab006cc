package common

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the standardized error envelope returned by handlers.
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse builds a standardized error response body.
func CreateErrorResponse(code, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendError maps a core error to the proper HTTP status and envelope. The
// transport mapping lives here so services stay free of HTTP concerns.
func SendError(c echo.Context, err error) error {
	var forbidden *ForbiddenError
	var invalid *InvalidTransitionError
	var validation *ValidationError

	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.As(err, &forbidden):
		return c.JSON(http.StatusForbidden, CreateErrorResponse("FORBIDDEN", err.Error(), map[string]string{"reason": forbidden.Reason}))
	case errors.As(err, &invalid):
		return c.JSON(http.StatusConflict, CreateErrorResponse("INVALID_TRANSITION", err.Error(), map[string]string{
			"status": invalid.Status,
			"action": invalid.Action,
		}))
	case errors.Is(err, ErrTerminalStateImmutable):
		return c.JSON(http.StatusConflict, CreateErrorResponse("TERMINAL_STATE_IMMUTABLE", err.Error(), nil))
	case errors.Is(err, ErrConcurrentModification):
		return c.JSON(http.StatusConflict, CreateErrorResponse("CONCURRENT_MODIFICATION", err.Error(), nil))
	case errors.Is(err, ErrAllocationFailed):
		return c.JSON(http.StatusServiceUnavailable, CreateErrorResponse("ALLOCATION_FAILED", err.Error(), nil))
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", err.Error(), map[string]string{validation.Field: validation.Message}))
	default:
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "Internal server error", nil))
	}
}
