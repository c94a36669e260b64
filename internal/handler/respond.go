package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fieldops/dispatch/internal/apierr"
)

// unauthorizedError is a handler-boundary-only concern (a missing or
// invalid bearer token) that has no equivalent in apierr.Kind — that
// error taxonomy starts once an actor has been resolved.
type unauthorizedError struct{ message string }

func (e *unauthorizedError) Error() string { return e.message }

func errUnauthorized(msg string) error { return &unauthorizedError{message: msg} }

// detailBody is the `{detail: string}` shape every error response uses.
type detailBody struct {
	Detail  string `json:"detail"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("handler: encoding response: %v", err)
	}
}

// writeError maps a service error to its conventional status code and
// writes the {detail, details?} body. A plain, un-typed error
// is treated as an unexpected failure (500) and logged — it should never
// reach a caller's hands as internal detail.
func writeError(w http.ResponseWriter, err error) {
	if _, ok := err.(*unauthorizedError); ok {
		writeJSON(w, http.StatusUnauthorized, detailBody{Detail: err.Error()})
		return
	}

	apiErr, ok := err.(*apierr.Error)
	if !ok {
		log.Printf("handler: unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, detailBody{Detail: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Kind {
	case apierr.KindNotFound:
		status = http.StatusNotFound
	case apierr.KindForbidden:
		status = http.StatusForbidden
	case apierr.KindValidation, apierr.KindConflict, apierr.KindState, apierr.KindPreconditionMissing:
		status = http.StatusBadRequest
	case apierr.KindDependencyFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, detailBody{Detail: apiErr.Message, Details: apiErr.Details})
}
