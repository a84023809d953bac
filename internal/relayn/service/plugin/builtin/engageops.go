package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// engageCommand is the envelope EngageOps expects in a direct message
// payload.
type engageCommand struct {
	Command string          `json:"command"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EngageOps is the builtin engage plugin: it adopts the messagebox on start
// and answers direct control-plane messages. "ping" replies with "pong";
// "action" forwards to the configured action executor.
type EngageOps struct {
	started time.Time
}

var (
	_ plugin.Startable = (*EngageOps)(nil)
	_ plugin.Stoppable = (*EngageOps)(nil)
)

// EngageOpsDescriptor is the catalog entry for the ops engage plugin.
func EngageOpsDescriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Category:       plugin.CategoryEngage,
		Type:           "EngageOps",
		DefaultEnabled: false,
		DefaultOptions: json.RawMessage(`{}`),
		Factory: func(options json.RawMessage) (plugin.Handler, error) {
			return &EngageOps{}, nil
		},
	}
}

// Start adopts the messagebox. A second engage instance starting while the
// slot is held fails here, which surfaces as a registration error.
func (p *EngageOps) Start(c *plugin.Context) error {
	if c.Meta.Messagebox == nil {
		return fmt.Errorf("EngageOps requires messagebox access")
	}
	p.started = time.Now()

	actions := c.Meta.Actions
	regID := c.Meta.Plugin.RegistrationID
	handler := func(ctx context.Context, msg *plugin.Message) (*plugin.Message, error) {
		return p.answer(ctx, regID, actions, msg)
	}
	if err := c.Meta.Messagebox.Register(handler); err != nil {
		return fmt.Errorf("failed to adopt messagebox: %w", err)
	}
	logger.Info("[EngageOps] %s adopted the messagebox", regID)
	return nil
}

// Stop releases the messagebox.
func (p *EngageOps) Stop(c *plugin.Context) error {
	if c.Meta.Messagebox != nil {
		c.Meta.Messagebox.Unregister()
	}
	return nil
}

func (p *EngageOps) answer(ctx context.Context, regID string, actions plugin.ActionRunner, msg *plugin.Message) (*plugin.Message, error) {
	var cmd engageCommand
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("unreadable command payload: %w", err)
		}
	}

	switch cmd.Command {
	case "ping":
		return p.reply(msg, map[string]interface{}{"reply": "pong"})
	case "uptime":
		return p.reply(msg, map[string]interface{}{"uptime": time.Since(p.started).String()})
	case "action":
		if actions == nil {
			return nil, fmt.Errorf("no action runner available")
		}
		result, err := actions.Run(ctx, cmd.Action, cmd.Payload)
		if err != nil {
			return nil, err
		}
		return p.reply(msg, map[string]interface{}{"result": result})
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Command)
	}
}

func (p *EngageOps) reply(in *plugin.Message, body interface{}) (*plugin.Message, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	out := plugin.NewMessage(in.Channel, payload)
	return out, nil
}
