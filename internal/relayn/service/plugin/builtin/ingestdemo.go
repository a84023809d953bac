package builtin

import (
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// ingestDemoOptions is the configuration blob of one IngestDemo instance.
type ingestDemoOptions struct {
	// Objects are object ids this instance claims as managed on start.
	Objects []string `json:"objects,omitempty"`
	// Text is the display text stamped alongside the claims.
	Text string `json:"text,omitempty"`
	// Channel filters inbound traffic; empty accepts everything.
	Channel string `json:"channel,omitempty"`
}

// IngestDemo consumes inbound messages and demonstrates managed-object
// reporting: the configured object ids are claimed on start and re-claimed
// whenever traffic for them arrives.
type IngestDemo struct {
	options ingestDemoOptions

	mu      sync.Mutex
	handled int
}

var (
	_ plugin.Startable      = (*IngestDemo)(nil)
	_ plugin.MessageHandler = (*IngestDemo)(nil)
	_ plugin.StateObserver  = (*IngestDemo)(nil)
)

// IngestDemoDescriptor is the catalog entry for the demo ingest plugin.
func IngestDemoDescriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Category:       plugin.CategoryIngest,
		Type:           "IngestDemo",
		DefaultEnabled: false,
		DefaultOptions: json.RawMessage(`{"objects":[],"text":"demo ingest"}`),
		Factory: func(options json.RawMessage) (plugin.Handler, error) {
			var o ingestDemoOptions
			if len(options) > 0 {
				if err := json.Unmarshal(options, &o); err != nil {
					return nil, fmt.Errorf("invalid IngestDemo options: %w", err)
				}
			}
			return &IngestDemo{options: o}, nil
		},
	}
}

// Start claims the configured objects. The claims are buffered; the host
// flushes them at its controlled flush points.
func (p *IngestDemo) Start(c *plugin.Context) error {
	if len(p.options.Objects) > 0 && c.Meta.ManagedObjects != nil {
		c.Meta.ManagedObjects.Report(p.options.Objects, p.options.Text)
		// Start is not a traffic flush point, so apply the initial claim
		// set right away.
		if err := c.Meta.ManagedObjects.Apply(c); err != nil {
			return fmt.Errorf("failed to claim objects: %w", err)
		}
	}
	logger.Info("[IngestDemo] %s started with %d managed objects",
		c.Meta.Plugin.RegistrationID, len(p.options.Objects))
	return nil
}

// HandleMessage counts matching traffic and refreshes the claims.
func (p *IngestDemo) HandleMessage(c *plugin.Context, msg *plugin.Message) error {
	if p.options.Channel != "" && msg.Channel != p.options.Channel {
		return nil
	}
	p.mu.Lock()
	p.handled++
	p.mu.Unlock()

	if len(p.options.Objects) > 0 && c.Meta.ManagedObjects != nil {
		c.Meta.ManagedObjects.Report(p.options.Objects, p.options.Text)
	}
	return nil
}

// OnStateChange logs acknowledged changes under this instance's claims.
func (p *IngestDemo) OnStateChange(c *plugin.Context, id string, value string, ack bool) error {
	if !ack {
		return nil
	}
	logger.Debug("[IngestDemo] %s observed state %s=%q", c.Meta.Plugin.RegistrationID, id, value)
	return nil
}

// Handled returns how many messages this instance accepted.
func (p *IngestDemo) Handled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handled
}
