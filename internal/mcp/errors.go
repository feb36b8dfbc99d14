package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/board"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Errors it does not know
// yield nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *board.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{
			Code:         "VALIDATION_ERROR",
			Message:      verr.Message,
			Details:      map[string]string{"field": verr.Field},
			RecoveryHint: "Fix the field and submit again",
		}
	case errors.Is(err, board.ErrBiddingClosed):
		return &APIError{Code: "BIDDING_CLOSED", Message: "bidding is closed for this project", RecoveryHint: "Pick an open project"}
	case errors.Is(err, board.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid IDs"}
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid activity query"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
