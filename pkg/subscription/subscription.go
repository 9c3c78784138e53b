package subscription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wdm-protocol/wdm-go/pkg/model"
)

// Subscription errors.
var (
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidPath          = errors.New("invalid subscription path")
)

// DefaultMaxSubscriptions caps subscriptions per manager unless
// configured otherwise.
const DefaultMaxSubscriptions = 256

// Config holds subscription manager configuration.
type Config struct {
	// MaxSubscriptions is the maximum number of concurrent
	// subscriptions.
	MaxSubscriptions int
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubscriptions: DefaultMaxSubscriptions,
	}
}

// Handler receives change events for a subscription.
type Handler func(model.Change)

// Manager hands out detachable subscriptions against one tree's root
// scope, keyed by dotted path. It shares the tree's single-goroutine
// ownership; all calls must come from the goroutine driving the tree.
type Manager struct {
	root   *model.Node
	config Config
	subs   map[uuid.UUID]model.Handle
}

// NewManager creates a manager with default configuration.
func NewManager(root *model.Node) *Manager {
	return NewManagerWithConfig(root, DefaultConfig())
}

// NewManagerWithConfig creates a manager with custom configuration.
func NewManagerWithConfig(root *model.Node, config Config) *Manager {
	if config.MaxSubscriptions <= 0 {
		config.MaxSubscriptions = DefaultMaxSubscriptions
	}
	return &Manager{
		root:   root,
		config: config,
		subs:   make(map[uuid.UUID]model.Handle),
	}
}

// Subscribe registers a handler for a dotted path and returns its
// subscription ID. An empty path subscribes to the root's generic
// change; "device.features.developer" subscribes to that scope's
// qualified events.
func (m *Manager) Subscribe(path string, fn Handler) (uuid.UUID, error) {
	key, err := keyForPath(path)
	if err != nil {
		return uuid.Nil, err
	}
	if len(m.subs) >= m.config.MaxSubscriptions {
		return uuid.Nil, ErrResourceExhausted
	}

	id := uuid.New()
	m.subs[id] = m.root.On(key, model.Listener(fn))
	return id, nil
}

// Unsubscribe removes a subscription by ID.
func (m *Manager) Unsubscribe(id uuid.UUID) error {
	h, ok := m.subs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)
	}
	m.root.Off(h)
	delete(m.subs, id)
	return nil
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	return len(m.subs)
}

// ClearAll removes every subscription, as on connection loss.
func (m *Manager) ClearAll() {
	for id, h := range m.subs {
		m.root.Off(h)
		delete(m.subs, id)
	}
}

func keyForPath(path string) (model.EventKey, error) {
	if path == "" {
		return model.KeyChange, nil
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" || strings.ContainsAny(seg, ":") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return model.ChangeKey(segments...), nil
}
