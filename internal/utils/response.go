package utils

import "time"

// APIResponse is the common envelope for all JSON endpoints. Outcome carries
// the business result of a scan (checked_in, already_checked_in, ...) so the
// scanner UI can render duplicates distinctly from success.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Outcome   string      `json:"outcome,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func OutcomeResponse(success bool, outcome, message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   success,
		Message:   message,
		Outcome:   outcome,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, errMsg string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     errMsg,
		Timestamp: time.Now(),
	}
}
