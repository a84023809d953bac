package hub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kiosk404/relayn/internal/pkg/besteffort"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
)

// toggleRequest is one queued enable/disable transition. done, when set,
// receives the outcome once the transition has been applied. commit=false
// leaves the persisted enable flag alone; the startup pass and shutdown
// teardowns use it because the flag already holds the operator's intent.
type toggleRequest struct {
	registrationID string
	enable         bool
	commit         bool
	done           chan error
}

// enqueueToggle hands a transition to the single toggle worker. The queue
// serializes all transitions, so overlapping requests for the same instance
// resolve in arrival order and the last one wins.
func (h *Hub) enqueueToggle(registrationID string, enable, commit, wait bool) <-chan error {
	req := toggleRequest{registrationID: registrationID, enable: enable, commit: commit}
	if wait {
		req.done = make(chan error, 1)
	}
	select {
	case h.toggles <- req:
	case <-h.stopCh:
		if req.done != nil {
			req.done <- ErrDisposed
		}
	}
	return req.done
}

// toggleWorker drains the queue one request at a time.
func (h *Hub) toggleWorker() {
	defer h.wg.Done()
	for {
		select {
		case <-h.stopCh:
			return
		case req := <-h.toggles:
			err := h.runToggle(req)
			if err != nil {
				logger.Error("[Hub] toggle of %s (enable=%v) failed: %v",
					req.registrationID, req.enable, err)
			}
			if req.done != nil {
				req.done <- err
			}
		}
	}
}

// runToggle applies one transition, catching handler panics so a broken
// plugin cannot kill the worker.
func (h *Hub) runToggle(req toggleRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("toggle of %q panicked: %v", req.registrationID, r)
		}
	}()

	h.mu.Lock()
	inst, ok := h.instances[req.registrationID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, req.registrationID)
	}

	ctx := context.Background()
	if req.enable {
		err = h.registerOne(ctx, inst)
	} else {
		err = h.unregisterOne(ctx, inst)
	}

	// The flag is committed only after the transition succeeded. A failed
	// toggle leaves the persisted intent untouched, so a restart retries it.
	if req.commit && err == nil {
		h.commitEnabled(ctx, inst, req.enable)
	}
	return err
}

// commitEnabled acknowledges the enable flag once the instance has reached
// the requested state.
func (h *Hub) commitEnabled(ctx context.Context, inst *Instance, enabled bool) {
	h.mu.Lock()
	inst.Enabled = enabled
	h.mu.Unlock()

	besteffort.Do("commit enable flag "+inst.RegistrationID(), func() error {
		return h.store.SetState(ctx, inst.EnabledID, statestore.State{
			Value: strconv.FormatBool(enabled),
			Ack:   true,
			TS:    time.Now(),
		})
	})
}
