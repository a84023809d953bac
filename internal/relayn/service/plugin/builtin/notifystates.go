package builtin

import (
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// notifyStatesOptions is the configuration blob of one NotifyStates
// instance.
type notifyStatesOptions struct {
	// Keep caps the in-memory delivery log. Zero means the default.
	Keep int `json:"keep,omitempty"`
}

const notifyStatesDefaultKeep = 100

// delivery is one recorded notification batch.
type delivery struct {
	Event string
	Items []plugin.Notification
}

// NotifyStates records delivered notification batches in a bounded
// in-memory log, newest last. It is the builtin sink used to verify the
// outbound path end to end.
type NotifyStates struct {
	keep int

	mu  sync.Mutex
	log []delivery
}

var _ plugin.NotificationObserver = (*NotifyStates)(nil)

// NotifyStatesDescriptor is the catalog entry for the notification
// recorder.
func NotifyStatesDescriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Category:       plugin.CategoryNotify,
		Type:           "NotifyStates",
		DefaultEnabled: false,
		DefaultOptions: json.RawMessage(`{"keep":100}`),
		Factory: func(options json.RawMessage) (plugin.Handler, error) {
			var o notifyStatesOptions
			if len(options) > 0 {
				if err := json.Unmarshal(options, &o); err != nil {
					return nil, fmt.Errorf("invalid NotifyStates options: %w", err)
				}
			}
			if o.Keep <= 0 {
				o.Keep = notifyStatesDefaultKeep
			}
			return &NotifyStates{keep: o.Keep}, nil
		},
	}
}

// OnNotifications appends the batch to the log, trimming the oldest
// entries past the cap.
func (p *NotifyStates) OnNotifications(c *plugin.Context, event string, items []plugin.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, delivery{Event: event, Items: items})
	if over := len(p.log) - p.keep; over > 0 {
		p.log = p.log[over:]
	}
	logger.Debug("[NotifyStates] %s recorded %d items for event %q",
		c.Meta.Plugin.RegistrationID, len(items), event)
	return nil
}

// Deliveries returns a copy of the recorded log, oldest first.
func (p *NotifyStates) Deliveries() []delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]delivery, len(p.log))
	copy(out, p.log)
	return out
}
