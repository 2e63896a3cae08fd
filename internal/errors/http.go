package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts a WebhookError to an Echo HTTP error, mapping the
// error code to its HTTP status
func ToHTTPError(err error) error {
	if we, ok := err.(*WebhookError); ok {
		return echo.NewHTTPError(we.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    we.Code,
				Message: we.Message,
				Details: we.Details,
			},
		})
	}

	// For non-WebhookError, create a generic internal error
	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}
