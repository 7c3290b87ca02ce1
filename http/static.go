package http

import (
	"fmt"
	"io"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/static"
)

// AddStatic serves cfg.Root under cfg.URL for GET and HEAD requests.
func (t *Transport) AddStatic(cfg static.Config) error {
	cfg.URL = relay.NormalizePrefix(cfg.URL)
	if cfg.Logger == nil {
		cfg.Logger = t.logger
	}

	h, err := static.New(cfg)
	if err != nil {
		return fmt.Errorf("add static: %w", err)
	}
	if c, ok := h.(io.Closer); ok {
		t.mu.Lock()
		t.closers = append(t.closers, c)
		t.mu.Unlock()
	}

	t.subscribe(relay.DispatchKey("head", cfg.URL)+relay.Wildcard, h)
	t.subscribe(relay.DispatchKey("get", cfg.URL)+relay.Wildcard, h)

	t.logger.Debug("static files mounted", "url", cfg.URL, "root", cfg.Root)
	return nil
}
