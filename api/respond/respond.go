// Package respond holds the JSON helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/logger"
)

var (
	// ErrBadRequest marks client errors raised by the handlers themselves.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound marks lookups of unknown handler-owned resources.
	ErrNotFound = errors.New("not found")
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err to a status code and writes it as {"error": "..."}.
// Server-side failures are logged.
func Error(w http.ResponseWriter, log logger.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		logger.OrNop(log).Errorf("request failed: %v", err)
	}
	JSON(w, status, errorBody{Error: err.Error()})
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, assignment.ErrNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, assignment.ErrInvalidRows),
		errors.Is(err, assignment.ErrEmptyVersion),
		errors.Is(err, ingest.ErrIngestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
