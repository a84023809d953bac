package plugin

import (
	"context"
	"fmt"
)

// Bound wraps a raw handler with its frozen identity and injected
// capabilities. Hosts only ever see Bound values: every call goes through
// the wrapper, which builds the invocation context and probes the handler
// for the matching capability. Calls for capabilities the handler lacks are
// no-ops.
type Bound struct {
	identity Identity
	handler  Handler
	meta     Meta
}

// NewBound wraps handler for the given registration. meta.Plugin is forced
// to identity so the injected identity can never drift from the
// registration.
func NewBound(identity Identity, handler Handler, meta Meta) *Bound {
	meta.Plugin = identity
	return &Bound{
		identity: identity,
		handler:  handler,
		meta:     meta,
	}
}

// Identity returns the frozen registration identity.
func (b *Bound) Identity() Identity { return b.identity }

func (b *Bound) invocation(ctx context.Context) *Context {
	return NewContext(ctx, b.meta)
}

// HandlesMessages reports whether the wrapped handler consumes messages,
// either as a MessageHandler or as a bare MessageFunc.
func (b *Bound) HandlesMessages() bool {
	switch b.handler.(type) {
	case MessageHandler, MessageFunc:
		return true
	}
	if _, ok := b.handler.(func(c *Context, msg *Message) error); ok {
		return true
	}
	return false
}

// HandleMessage dispatches one message to the handler.
func (b *Bound) HandleMessage(ctx context.Context, msg *Message) error {
	switch h := b.handler.(type) {
	case MessageHandler:
		return h.HandleMessage(b.invocation(ctx), msg)
	case MessageFunc:
		return h(b.invocation(ctx), msg)
	case func(c *Context, msg *Message) error:
		return h(b.invocation(ctx), msg)
	}
	return nil
}

// Start invokes the handler's Start capability, if present.
func (b *Bound) Start(ctx context.Context) error {
	if s, ok := b.handler.(Startable); ok {
		if err := s.Start(b.invocation(ctx)); err != nil {
			return fmt.Errorf("plugin %q start failed: %w", b.identity.RegistrationID, err)
		}
	}
	return nil
}

// Stop invokes the handler's Stop capability, if present.
func (b *Bound) Stop(ctx context.Context) error {
	if s, ok := b.handler.(Stoppable); ok {
		if err := s.Stop(b.invocation(ctx)); err != nil {
			return fmt.Errorf("plugin %q stop failed: %w", b.identity.RegistrationID, err)
		}
	}
	return nil
}

// OnStateChange forwards a state-change event, if observed.
func (b *Bound) OnStateChange(ctx context.Context, id string, value string, ack bool) error {
	if o, ok := b.handler.(StateObserver); ok {
		return o.OnStateChange(b.invocation(ctx), id, value, ack)
	}
	return nil
}

// OnObjectChange forwards an object-change event, if observed.
func (b *Bound) OnObjectChange(ctx context.Context, id string, obj interface{}) error {
	if o, ok := b.handler.(ObjectObserver); ok {
		return o.OnObjectChange(b.invocation(ctx), id, obj)
	}
	return nil
}

// OnNotifications forwards a notification batch, if observed.
func (b *Bound) OnNotifications(ctx context.Context, event string, items []Notification) error {
	if o, ok := b.handler.(NotificationObserver); ok {
		return o.OnNotifications(b.invocation(ctx), event, items)
	}
	return nil
}

// FlushManaged applies buffered managed-object reports, when the
// registration carries a reporter. Hosts call this at controlled flush
// points, never per event.
func (b *Bound) FlushManaged(ctx context.Context) error {
	if b.meta.ManagedObjects == nil {
		return nil
	}
	return b.meta.ManagedObjects.Apply(ctx)
}
