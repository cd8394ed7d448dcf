package apperror

import (
	"fmt"

	"docchat/pkg/apperror/status"
)

// ErrorResponse is the standardized HTTP error payload
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type FiberSuccessMessage struct {
	Code       status.SuccessCode `json:"code"`
	Message    string             `json:"message"`
	TrackingID string             `json:"tracking_id"`
	Data       any                `json:"data"`
}

// Code renders an ErrorCode the way clients see it, e.g. AI-1001.
func Code(code status.ErrorCode) string {
	return fmt.Sprintf("AI-%d", code)
}
