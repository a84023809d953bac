// Package host implements the downstream plugin hosts: the producer side
// (inbound message traffic), the notifier side (outbound notifications),
// and the cross-wiring used by bridge and engage registrations.
package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/pkg/besteffort"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
)

// ProducerHost hosts ingest registrations and fans inbound traffic out to
// them. Hosts manage membership only; handler start/stop is driven by the
// registration engine, which keeps bridge registrations (wired into two
// hosts at once) from being started twice.
type ProducerHost struct {
	mu      sync.RWMutex
	plugins map[string]*plugin.Bound
	order   []string
}

var _ plugin.Host = (*ProducerHost)(nil)

// NewProducerHost creates an empty producer host.
func NewProducerHost() *ProducerHost {
	return &ProducerHost{plugins: make(map[string]*plugin.Bound)}
}

func (h *ProducerHost) RegisterPlugin(registrationID string, b *plugin.Bound) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.plugins[registrationID]; exists {
		return fmt.Errorf("producer registration %q already exists", registrationID)
	}
	h.plugins[registrationID] = b
	h.order = append(h.order, registrationID)
	return nil
}

// UnregisterPlugin drops a registration. Unknown ids are tolerated.
func (h *ProducerHost) UnregisterPlugin(registrationID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.plugins[registrationID]; !ok {
		return nil
	}
	delete(h.plugins, registrationID)
	for i, id := range h.order {
		if id == registrationID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return nil
}

// snapshot returns the registered bounds in registration order.
func (h *ProducerHost) snapshot() []*plugin.Bound {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*plugin.Bound, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.plugins[id])
	}
	return out
}

// Publish delivers one inbound message to every message-handling
// registration. Handler failures are logged and do not stop the fan-out.
// Each delivery ends with a managed-report flush: this is the controlled
// flush point, so the per-message hot path stays free of store I/O.
func (h *ProducerHost) Publish(ctx context.Context, msg *plugin.Message) {
	for _, b := range h.snapshot() {
		if !b.HandlesMessages() {
			continue
		}
		if err := b.HandleMessage(ctx, msg); err != nil {
			logger.Warn("[ProducerHost] %s failed to handle message %s: %v",
				b.Identity().RegistrationID, msg.ID, err)
			continue
		}
		besteffort.Do("flush managed reports "+b.Identity().RegistrationID, func() error {
			return b.FlushManaged(ctx)
		})
	}
}

// BroadcastStateChange forwards a state-change event to every observer.
func (h *ProducerHost) BroadcastStateChange(ctx context.Context, id string, value string, ack bool) {
	for _, b := range h.snapshot() {
		b := b
		besteffort.Do("state change "+b.Identity().RegistrationID, func() error {
			return b.OnStateChange(ctx, id, value, ack)
		})
	}
}

// BroadcastObjectChange forwards an object-change event to every observer.
func (h *ProducerHost) BroadcastObjectChange(ctx context.Context, id string, obj interface{}) {
	for _, b := range h.snapshot() {
		b := b
		besteffort.Do("object change "+b.Identity().RegistrationID, func() error {
			return b.OnObjectChange(ctx, id, obj)
		})
	}
}

// Len returns the number of live registrations.
func (h *ProducerHost) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.plugins)
}
