package bus

import (
	"context"
	"strings"
	"sync"

	"github.com/sagarc03/relay"
)

// Subscription identifies a registered handler. Pass it to Off to remove it.
type Subscription struct {
	id  uint64
	key string
}

// Key returns the key the subscription was registered under.
func (s Subscription) Key() string {
	return s.key
}

type subscriber struct {
	id      uint64
	key     string
	prefix  bool
	handler relay.Handler
}

func (s subscriber) matches(key string) bool {
	if s.prefix {
		return strings.HasPrefix(key, s.key)
	}
	return s.key == key
}

// Bus is an in-process publish/subscribe bus keyed by string. Handlers run
// synchronously on the publishing goroutine, in registration order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// On registers h for key. A key ending in relay.Wildcard matches every key
// that starts with the part before it.
func (b *Bus) On(key string, h relay.Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscriber{id: b.nextID, key: key, handler: h}
	if trimmed, ok := strings.CutSuffix(key, relay.Wildcard); ok {
		sub.key = trimmed
		sub.prefix = true
	}
	b.subs = append(b.subs, sub)

	return Subscription{id: sub.id, key: key}
}

// OnFunc registers fn for key.
func (b *Bus) OnFunc(key string, fn func(ctx context.Context, msg *relay.Message)) Subscription {
	return b.On(key, relay.HandlerFunc(fn))
}

// Off removes a subscription. It reports whether the subscription was found.
func (b *Bus) Off(s Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit delivers msg to every handler subscribed to key and returns how many
// handlers received it.
func (b *Bus) Emit(ctx context.Context, key string, msg *relay.Message) int {
	b.mu.RLock()
	var handlers []relay.Handler
	for _, sub := range b.subs {
		if sub.matches(key) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h.Handle(ctx, msg)
	}
	return len(handlers)
}

// Has reports whether any handler would receive key.
func (b *Bus) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.matches(key) {
			return true
		}
	}
	return false
}

// Keys returns the registered subscription keys in registration order.
func (b *Bus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.prefix {
			keys = append(keys, sub.key+relay.Wildcard)
			continue
		}
		keys = append(keys, sub.key)
	}
	return keys
}
