package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the JSON body of every non-2xx API response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func New(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes e as the response body using e.Code as the status.
func WriteError(w http.ResponseWriter, e *APIError) {
	WriteJSON(w, e.Code, e)
}
