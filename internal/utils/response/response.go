// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Success responses may return any JSON shape (a user, a list, a status
// map). Error responses always use the same envelope so API consumers
// know what failures look like:
//
//	{ "status": "error", "error": "user not found" }
//	{ "status": "error", "error": "validation failed", "details": [ ... ] }
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the standard envelope returned for error cases. Details is
// only populated for validation failures and carries the ordered list of
// field error messages.
type Response struct {
	Status  string   `json:"status"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Status string constants — a typo in a literal would silently ship
// "eroor"; a typo here is a compile error.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Client-facing error messages for the generic failure classes. Internal
// error text (driver messages, stack traces) goes to the log sink only,
// never into one of these.
const (
	MsgNotFound         = "user not found"
	MsgInternalError    = "internal server error"
	MsgMalformedPayload = "malformed request payload"
	MsgUnhandledError   = "unhandled error"
	MsgValidationFailed = "validation failed"
)

// WriteJSON writes data JSON-encoded with the given HTTP status code.
// The header must be set before WriteHeader — once the status line is
// written, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError builds the error envelope for a single message.
func GeneralError(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError builds the error envelope carrying the ordered field
// error list produced by the validation package.
func ValidationError(details []string) Response {
	return Response{
		Status:  StatusError,
		Error:   MsgValidationFailed,
		Details: details,
	}
}
