package errors

import "net/http"

// APIError is an error rendered to clients as {"error": {...}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Envelope is the JSON body of every error response.
type Envelope struct {
	Error *APIError `json:"error"`
}

// Render returns the status and body for e. A nil e renders as a generic
// internal error.
func Render(e *APIError) (int, Envelope) {
	if e == nil {
		e = Internal("")
	}
	return e.Status, Envelope{Error: e}
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func TooManyRequests(message string) *APIError {
	if message == "" {
		message = "too many requests"
	}
	return New(http.StatusTooManyRequests, "rate_limited", message)
}

// LimitReached reports that a collection is full.
func LimitReached(code, message string, limit int) *APIError {
	return Conflict(code, message, map[string]int{"limit": limit})
}
