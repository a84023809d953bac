package builtin

import (
	"fmt"
	"sync"
	"time"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// bridgeEchoOptions is the configuration blob of one BridgeEcho instance.
type bridgeEchoOptions struct {
	// Channel filters inbound traffic; empty accepts everything.
	Channel string `json:"channel,omitempty"`
}

// BridgeEcho sits on both sides at once: it counts inbound messages and
// outbound notification batches, keeping the last seen of each. It is the
// builtin probe for the cross-wired bridge path.
type BridgeEcho struct {
	options bridgeEchoOptions

	mu            sync.Mutex
	messages      int
	notifications int
	lastMessage   *plugin.Message
	lastEvent     string
	startedAt     time.Time
}

var (
	_ plugin.Startable            = (*BridgeEcho)(nil)
	_ plugin.Stoppable            = (*BridgeEcho)(nil)
	_ plugin.MessageHandler       = (*BridgeEcho)(nil)
	_ plugin.NotificationObserver = (*BridgeEcho)(nil)
)

// BridgeEchoDescriptor is the catalog entry for the echo bridge.
func BridgeEchoDescriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Category:       plugin.CategoryBridge,
		Type:           "BridgeEcho",
		DefaultEnabled: false,
		DefaultOptions: json.RawMessage(`{}`),
		Factory: func(options json.RawMessage) (plugin.Handler, error) {
			var o bridgeEchoOptions
			if len(options) > 0 {
				if err := json.Unmarshal(options, &o); err != nil {
					return nil, fmt.Errorf("invalid BridgeEcho options: %w", err)
				}
			}
			return &BridgeEcho{options: o}, nil
		},
	}
}

func (p *BridgeEcho) Start(c *plugin.Context) error {
	p.mu.Lock()
	p.startedAt = time.Now()
	p.mu.Unlock()
	logger.Info("[BridgeEcho] %s started", c.Meta.Plugin.RegistrationID)
	return nil
}

func (p *BridgeEcho) Stop(c *plugin.Context) error {
	logger.Info("[BridgeEcho] %s stopped after %d messages, %d notification batches",
		c.Meta.Plugin.RegistrationID, p.Messages(), p.Notifications())
	return nil
}

// HandleMessage records matching inbound traffic.
func (p *BridgeEcho) HandleMessage(c *plugin.Context, msg *plugin.Message) error {
	if p.options.Channel != "" && msg.Channel != p.options.Channel {
		return nil
	}
	p.mu.Lock()
	p.messages++
	p.lastMessage = msg
	p.mu.Unlock()
	return nil
}

// OnNotifications records outbound traffic.
func (p *BridgeEcho) OnNotifications(c *plugin.Context, event string, items []plugin.Notification) error {
	p.mu.Lock()
	p.notifications++
	p.lastEvent = event
	p.mu.Unlock()
	return nil
}

// Messages returns how many inbound messages were seen.
func (p *BridgeEcho) Messages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages
}

// Notifications returns how many outbound batches were seen.
func (p *BridgeEcho) Notifications() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notifications
}

// LastMessage returns the most recent inbound message, or nil.
func (p *BridgeEcho) LastMessage() *plugin.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMessage
}
