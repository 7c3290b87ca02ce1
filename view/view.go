// Package view provides named response producers that a transport can
// mount on GET dispatch keys, plus a YAML file format for simple templated
// documents.
package view

import (
	"context"
	"fmt"
	"sort"

	"github.com/sagarc03/relay"
)

// View answers a GET message. Implementations fill in the response side of
// msg and reply through msg.Reply.
type View interface {
	Get(ctx context.Context, msg *relay.Message)
}

// ViewFunc is an adapter that allows using an ordinary function as a View.
type ViewFunc func(ctx context.Context, msg *relay.Message)

// Get calls f(ctx, msg).
func (f ViewFunc) Get(ctx context.Context, msg *relay.Message) {
	f(ctx, msg)
}

// Registry looks views up by name.
type Registry interface {
	Require(name string) (View, error)
}

// Map is a Registry backed by a map.
type Map map[string]View

// Require returns the view registered under name.
func (m Map) Require(name string) (View, error) {
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("require %q: %w", name, relay.ErrViewNotFound)
	}
	return v, nil
}

// Names returns the registered view names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler adapts v to a bus handler.
func Handler(v View) relay.Handler {
	return relay.HandlerFunc(v.Get)
}
