package http

import (
	"log/slog"
	"net/http"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/observability"
)

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger used for transport events and server errors.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithNotFound replaces the handler that answers requests nobody subscribed to.
func WithNotFound(h relay.Handler) Option {
	return func(t *Transport) {
		if h != nil {
			t.notFound = h
		}
	}
}

// WithMiddleware appends router middleware. It runs after CORS and metrics.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(t *Transport) {
		t.middlewares = append(t.middlewares, mw...)
	}
}

// WithMetrics records request metrics on m. A non-empty path also exposes
// them on the listener; that path is then no longer dispatched on the bus.
func WithMetrics(m *observability.Metrics, path string) Option {
	return func(t *Transport) {
		t.metrics = m
		t.metricsPath = path
	}
}
