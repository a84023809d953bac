// Package plugin defines the contracts between the hub and plugin authors:
// the catalog of plugin type descriptors, the factory signature, the
// optional capability interfaces a handler may implement, and the
// invocation context injected into every lifecycle call.
package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kiosk404/relayn/pkg/utils/json"
)

// Category is one of the four plugin kinds the hub hosts.
type Category string

const (
	// CategoryIngest plugins produce inbound messages into the hub.
	CategoryIngest Category = "ingest"
	// CategoryNotify plugins deliver outbound notifications.
	CategoryNotify Category = "notify"
	// CategoryBridge plugins translate between both sides.
	CategoryBridge Category = "bridge"
	// CategoryEngage plugins handle control-plane interactions.
	CategoryEngage Category = "engage"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryIngest, CategoryNotify, CategoryBridge, CategoryEngage:
		return true
	}
	return false
}

// Handler is whatever a factory returns: either a MessageFunc-style callback
// or a value implementing any subset of the capability interfaces below.
// Capabilities are probed via type assertion, never via reflection.
type Handler interface{}

// Factory constructs a plugin handler from its opaque configuration blob.
// Options are passed through unvalidated; their shape is the plugin's
// business.
type Factory func(options json.RawMessage) (Handler, error)

// Descriptor is one catalog entry: an available plugin type with its
// defaults. The catalog is supplied at construction time and never mutated
// by the hub.
type Descriptor struct {
	Category       Category
	Type           string
	DefaultEnabled bool
	DefaultOptions json.RawMessage
	Factory        Factory
}

// Validate checks the descriptor is usable as a catalog entry.
func (d Descriptor) Validate() error {
	if !d.Category.IsValid() {
		return fmt.Errorf("invalid plugin category %q", d.Category)
	}
	if d.Type == "" {
		return fmt.Errorf("plugin type must not be empty")
	}
	if d.Factory == nil {
		return fmt.Errorf("plugin %q has no factory", d.Type)
	}
	return nil
}

// Message is one unit of traffic flowing through the hub.
type Message struct {
	ID       string          `json:"id"`
	Channel  string          `json:"channel,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Received time.Time       `json:"received"`
}

// NewMessage builds a Message with a fresh id and receive timestamp.
func NewMessage(channel string, payload json.RawMessage) *Message {
	return &Message{
		ID:       uuid.NewString(),
		Channel:  channel,
		Payload:  payload,
		Received: time.Now(),
	}
}

// Notification is one outbound notification item.
type Notification struct {
	ID   string    `json:"id"`
	Text string    `json:"text,omitempty"`
	TS   time.Time `json:"ts"`
}

// --- Capability interfaces ---

// MessageFunc is the bare-callback form of an ingest handler.
type MessageFunc func(c *Context, msg *Message) error

// MessageHandler processes inbound messages.
type MessageHandler interface {
	HandleMessage(c *Context, msg *Message) error
}

// Startable handlers are started when their registration is wired into a
// host.
type Startable interface {
	Start(c *Context) error
}

// Stoppable handlers are stopped before their registration is dropped.
type Stoppable interface {
	Stop(c *Context) error
}

// StateObserver handlers receive state-change events.
type StateObserver interface {
	OnStateChange(c *Context, id string, value string, ack bool) error
}

// ObjectObserver handlers receive object-change events. obj is nil when the
// object was deleted.
type ObjectObserver interface {
	OnObjectChange(c *Context, id string, obj interface{}) error
}

// NotificationObserver handlers receive outbound notification batches.
type NotificationObserver interface {
	OnNotifications(c *Context, event string, items []Notification) error
}

// MessageboxHandler answers a direct control-plane message. The returned
// message (possibly nil) is the reply.
type MessageboxHandler func(ctx context.Context, msg *Message) (*Message, error)
