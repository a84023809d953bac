package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/pkg/besteffort"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// arbiter guards the single direct control-plane callback slot. At most one
// engage registration owns the messagebox at a time; a second owner is
// rejected until the first releases it.
type arbiter struct {
	mu      sync.Mutex
	owner   string
	handler plugin.MessageboxHandler
}

// register adopts the slot for owner. The current owner may replace its own
// handler; anyone else gets ErrMessageboxOwned.
func (a *arbiter) register(owner string, h plugin.MessageboxHandler) error {
	if h == nil {
		return fmt.Errorf("messagebox handler must not be nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner != "" && a.owner != owner {
		return fmt.Errorf("%w (owner %s)", ErrMessageboxOwned, a.owner)
	}
	a.owner = owner
	a.handler = h
	return nil
}

// release frees the slot when owner holds it. Releasing a slot someone else
// holds is a no-op.
func (a *arbiter) release(owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner != owner {
		return
	}
	a.owner = ""
	a.handler = nil
}

// dispatch routes one direct message to the current owner.
func (a *arbiter) dispatch(ctx context.Context, msg *plugin.Message) (*plugin.Message, error) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h == nil {
		return nil, ErrNoMessageboxHandler
	}
	return h(ctx, msg)
}

// messageboxAccess is the per-registration view of the arbiter injected into
// engage handlers.
type messageboxAccess struct {
	arbiter        *arbiter
	registrationID string
}

var _ plugin.MessageboxAccess = (*messageboxAccess)(nil)

func (a *messageboxAccess) Register(h plugin.MessageboxHandler) error {
	return a.arbiter.register(a.registrationID, h)
}

func (a *messageboxAccess) Unregister() {
	a.arbiter.release(a.registrationID)
}

// ActionExecutor performs one named control-plane action.
type ActionExecutor func(ctx context.Context, action string, payload json.RawMessage) (json.RawMessage, error)

// actionRunner wraps the configured executor and taps the after-action hook
// on success. The hook is a side effect and never fails the action.
type actionRunner struct {
	registrationID string
	execute        ActionExecutor
	afterAction    func(action string)
}

var _ plugin.ActionRunner = (*actionRunner)(nil)

func (r *actionRunner) Run(ctx context.Context, action string, payload json.RawMessage) (json.RawMessage, error) {
	if r.execute == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	result, err := r.execute(ctx, action, payload)
	if err != nil {
		return nil, err
	}
	logger.Debug("[Hub] action %q executed by %s", action, r.registrationID)
	if r.afterAction != nil {
		besteffort.Do("after-action hook "+action, func() error {
			r.afterAction(action)
			return nil
		})
	}
	return result, nil
}
