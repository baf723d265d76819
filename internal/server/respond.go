package server

import (
	"encoding/json"
	"errors"
	"net/http"

	docconv "github.com/alnah/go-docconv"
)

// errorResponse is the JSON envelope for failures.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a conversion error to an HTTP status and stable code.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: codeFor(err), Detail: err.Error()})
}

// statusFor maps the failure taxonomy to HTTP statuses. Conversion
// failures and timeouts are user-visible 4xx: the request was understood
// but the supplied document could not be converted.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docconv.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, docconv.ErrMissingFilename),
		errors.Is(err, docconv.ErrUnsupportedFormat),
		errors.Is(err, docconv.ErrConversionFailed),
		errors.Is(err, docconv.ErrTimeout):
		return http.StatusBadRequest
	default:
		// Workspace allocation, spawn failures, anything unanticipated.
		return http.StatusInternalServerError
	}
}

// codeFor returns a stable machine-readable code for the failure.
func codeFor(err error) string {
	switch {
	case errors.Is(err, docconv.ErrMissingFilename):
		return "missing_filename"
	case errors.Is(err, docconv.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, docconv.ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, docconv.ErrTimeout):
		return "timeout"
	case errors.Is(err, docconv.ErrConversionFailed):
		return "conversion_failed"
	case errors.Is(err, docconv.ErrWorkspaceAlloc):
		return "workspace_allocation_failed"
	default:
		return "internal_error"
	}
}
