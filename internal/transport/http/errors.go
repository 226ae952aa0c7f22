package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"learning-friend-service/internal/domain"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrInvalidOptionIndex, "invalid_option_index", http.StatusBadRequest},
	{domain.ErrNoSelection, "no_selection", http.StatusConflict},
	{domain.ErrAlreadyRevealed, "already_revealed", http.StatusConflict},
	{domain.ErrNotRevealed, "not_revealed", http.StatusConflict},
	{domain.ErrSessionFinished, "session_finished", http.StatusConflict},
	{domain.ErrSessionNotFound, "session_not_found", http.StatusNotFound},
	{domain.ErrSubjectNotFound, "subject_not_found", http.StatusNotFound},
	{domain.ErrInvalidStudent, "invalid_student", http.StatusUnprocessableEntity},
	{domain.ErrInvalidProgress, "invalid_progress", http.StatusBadRequest},
}

// classify maps a use-case error to a stable code and HTTP status.
func classify(err error) (string, int) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code, c.status
		}
	}
	return "internal", http.StatusInternalServerError
}

func newErrorPayload(err error) errorPayload {
	code, status := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return errorPayload{Code: code, Message: msg}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
