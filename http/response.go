package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sagarc03/relay"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:      http.StatusText(code),
		Message:    message,
		StatusCode: code,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// NotFound answers a message with a JSON 404 naming its dispatch key.
// It is the default for requests nobody subscribed to.
func NotFound(_ context.Context, msg *relay.Message) {
	conn := msg.Connection
	if conn == nil || !conn.Claim() {
		return
	}
	defer conn.End()

	WriteError(conn, http.StatusNotFound, "No handler for "+msg.Key())
}
