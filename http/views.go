package http

import (
	"fmt"
	"sort"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/view"
)

// AddView answers GET requests for path with the named view.
func (t *Transport) AddView(path, name string) error {
	if t.views == nil {
		return fmt.Errorf("add view %s: %w", path, relay.ErrNoViews)
	}

	v, err := t.views.Require(name)
	if err != nil {
		return fmt.Errorf("add view %s: %w", path, err)
	}

	t.subscribe(relay.DispatchKey("get", path), view.Handler(v))
	return nil
}

// AddViews calls AddView for every path to view name pair, in path order.
func (t *Transport) AddViews(views map[string]string) error {
	paths := make([]string, 0, len(views))
	for p := range views {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if err := t.AddView(p, views[p]); err != nil {
			return err
		}
	}
	return nil
}
