package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"busta/internal/core"
)

// errorBody is the JSON error envelope returned by every failing endpoint.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps a service error onto an HTTP status. Validation
// failures come back as unprocessable entity so clients can tell bad
// business input apart from malformed requests.
func writeDomainError(w http.ResponseWriter, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Kind {
	case core.KindValidation:
		status = http.StatusUnprocessableEntity
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindForbidden:
		status = http.StatusForbidden
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindStore:
		status = http.StatusInternalServerError
	}

	msg := ce.Message
	if status == http.StatusInternalServerError {
		// Never leak driver details to clients.
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: string(ce.Kind)})
}
