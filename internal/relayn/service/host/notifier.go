package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
)

// NotifierHost hosts notify registrations and fans outbound notification
// batches out to them.
type NotifierHost struct {
	mu      sync.RWMutex
	plugins map[string]*plugin.Bound
	order   []string
}

var _ plugin.Host = (*NotifierHost)(nil)

// NewNotifierHost creates an empty notifier host.
func NewNotifierHost() *NotifierHost {
	return &NotifierHost{plugins: make(map[string]*plugin.Bound)}
}

func (h *NotifierHost) RegisterPlugin(registrationID string, b *plugin.Bound) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.plugins[registrationID]; exists {
		return fmt.Errorf("notifier registration %q already exists", registrationID)
	}
	h.plugins[registrationID] = b
	h.order = append(h.order, registrationID)
	return nil
}

// UnregisterPlugin drops a registration. Unknown ids are tolerated.
func (h *NotifierHost) UnregisterPlugin(registrationID string) error {
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

// Notify delivers a notification batch to every observing registration.
func (h *NotifierHost) Notify(ctx context.Context, event string, items []plugin.Notification) {
	h.mu.RLock()
	bounds := make([]*plugin.Bound, 0, len(h.order))
	for _, id := range h.order {
		bounds = append(bounds, h.plugins[id])
	}
	h.mu.RUnlock()

	for _, b := range bounds {
		if err := b.OnNotifications(ctx, event, items); err != nil {
			logger.Warn("[NotifierHost] %s failed on event %q: %v",
				b.Identity().RegistrationID, event, err)
		}
	}
}

// Len returns the number of live registrations.
func (h *NotifierHost) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.plugins)
}
