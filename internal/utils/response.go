package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"ms-marketplace/internal/errs"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
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

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// Respond writes a success envelope.
func Respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SuccessResponse(message, data))
}

// Fail classifies err and writes the public side of it. The internal side is
// the caller's to log.
func Fail(w http.ResponseWriter, err error) {
	e := errs.AsError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	json.NewEncoder(w).Encode(ErrorResponse("request failed", e.Public))
}
