package utils

import (
	"encoding/json"
	"net/http"

	"github.com/cortex-platform/gateway/auth"
)

// ErrorDetail is the inner error object returned to clients.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the structured error envelope:
// {"error": {"code": ..., "message": ..., "detail": ...}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteErrorCode writes an error envelope with an explicit status and code.
func WriteErrorCode(w http.ResponseWriter, status int, code, message, detail string) error {
	return WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
	})
}

// WriteAuthError translates a closed auth error into its HTTP response:
// 401 for authentication codes, 403 for insufficient_permissions. The
// wrapped cause goes into detail; internal context is never leaked beyond
// the error's own message.
func WriteAuthError(w http.ResponseWriter, err *auth.Error) error {
	detail := ""
	if err.Err != nil {
		detail = err.Err.Error()
	}
	return WriteErrorCode(w, err.Status(), string(err.Code), err.Message, detail)
}

// WriteNotFound writes a 404 Not Found envelope
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteErrorCode(w, http.StatusNotFound, "not_found", message, "")
}

// WriteServiceUnavailable writes a 503 Service Unavailable envelope
func WriteServiceUnavailable(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Service unavailable"
	}
	return WriteErrorCode(w, http.StatusServiceUnavailable, "service_unavailable", message, "")
}

// WriteGatewayTimeout writes a 504 Gateway Timeout envelope
func WriteGatewayTimeout(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Service timeout"
	}
	return WriteErrorCode(w, http.StatusGatewayTimeout, "gateway_timeout", message, "")
}

// WriteInternalServerError writes a 500 Internal Server Error envelope
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteErrorCode(w, http.StatusInternalServerError, "internal_error", message, "")
}
