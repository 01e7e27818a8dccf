package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// FieldError is one entry of a 422 detail list.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondDetail writes a `{"detail": message}` error body.
func RespondDetail(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"detail": message})
}

// RespondFieldErrors writes a 422 response with one detail entry per invalid field.
func RespondFieldErrors(w http.ResponseWriter, logger *slog.Logger, errs []FieldError) {
	RespondJSON(w, logger, http.StatusUnprocessableEntity, map[string][]FieldError{"detail": errs})
}
