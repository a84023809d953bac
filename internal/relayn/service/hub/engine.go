package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/kiosk404/relayn/internal/pkg/besteffort"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
)

// liveRegistration is the runtime state of one started instance.
type liveRegistration struct {
	bound        *plugin.Bound
	host         plugin.Host
	access       *messageboxAccess
	hasWatchlist bool
}

// registerOne builds, starts, and wires one instance. Idempotent: an
// instance already live is left untouched. Only the toggle worker calls
// this, so the whole sequence runs without interleaving.
func (h *Hub) registerOne(ctx context.Context, inst *Instance) error {
	regID := inst.RegistrationID()

	h.mu.Lock()
	_, alive := h.live[regID]
	h.mu.Unlock()
	if alive {
		return nil
	}

	h.writeStatus(ctx, inst, StatusStarting)

	handler, err := h.buildHandler(ctx, inst)
	if err != nil {
		h.writeStatus(ctx, inst, StatusError)
		return err
	}

	identity := inst.Identity()
	meta, access := h.buildMeta(inst, identity)
	bound := plugin.NewBound(identity, handler, meta)

	if err := bound.Start(ctx); err != nil {
		h.writeStatus(ctx, inst, StatusError)
		return err
	}

	target := h.hostFor(inst.Category)
	if err := target.RegisterPlugin(regID, bound); err != nil {
		besteffort.Do("stop after failed wiring "+regID, func() error {
			return bound.Stop(ctx)
		})
		h.writeStatus(ctx, inst, StatusError)
		return fmt.Errorf("failed to wire %q: %w", regID, err)
	}

	h.mu.Lock()
	h.live[regID] = &liveRegistration{
		bound:        bound,
		host:         target,
		access:       access,
		hasWatchlist: meta.ManagedObjects != nil,
	}
	h.mu.Unlock()

	h.writeStatus(ctx, inst, StatusRunning)
	logger.Info("[Hub] registered plugin %s", regID)
	return nil
}

// unregisterOne tears one instance down. Idempotent: an instance not live is
// left untouched. Teardown keeps going past handler failures so a broken
// Stop can never pin a registration.
func (h *Hub) unregisterOne(ctx context.Context, inst *Instance) error {
	regID := inst.RegistrationID()

	h.mu.Lock()
	reg, alive := h.live[regID]
	delete(h.live, regID)
	h.mu.Unlock()
	if !alive {
		return nil
	}

	h.writeStatus(ctx, inst, StatusStopping)

	if err := reg.host.UnregisterPlugin(regID); err != nil {
		logger.Warn("[Hub] failed to unwire %s: %v", regID, err)
	}
	besteffort.Do("stop plugin "+regID, func() error {
		return reg.bound.Stop(ctx)
	})
	if reg.access != nil {
		reg.access.Unregister()
	}
	if reg.hasWatchlist {
		besteffort.Do("clear watchlist "+regID, func() error {
			return h.tracker.ClearWatchlist(ctx, inst.Identity(), inst.WatchlistID)
		})
	}

	h.writeStatus(ctx, inst, StatusStopped)
	logger.Info("[Hub] unregistered plugin %s", regID)
	return nil
}

// buildHandler resolves the instance's options and invokes the factory.
// Options come from the persisted object's native blob, falling back to the
// catalog defaults when the object carries none.
func (h *Hub) buildHandler(ctx context.Context, inst *Instance) (plugin.Handler, error) {
	options := inst.descriptor.DefaultOptions
	obj, err := h.store.GetObject(ctx, inst.BaseID)
	if err != nil {
		logger.Warn("[Hub] failed to read options of %s, using defaults: %v", inst.RegistrationID(), err)
	} else if len(obj.Native) > 0 {
		options = obj.Native
	}

	handler, err := inst.descriptor.Factory(options)
	if err != nil {
		return nil, fmt.Errorf("factory of %q failed: %w", inst.RegistrationID(), err)
	}
	if handler == nil {
		return nil, fmt.Errorf("factory of %q returned no handler", inst.RegistrationID())
	}
	return handler, nil
}

// buildMeta assembles the injected capabilities by category: ingest
// registrations report managed objects, engage registrations get the
// messagebox and action runner.
func (h *Hub) buildMeta(inst *Instance, identity plugin.Identity) (plugin.Meta, *messageboxAccess) {
	meta := plugin.Meta{Plugin: identity}
	var access *messageboxAccess

	switch inst.Category {
	case plugin.CategoryIngest:
		meta.ManagedObjects = h.tracker.Reporter(identity, inst.WatchlistID)
	case plugin.CategoryEngage:
		access = &messageboxAccess{arbiter: h.messagebox, registrationID: identity.RegistrationID}
		meta.Messagebox = access
		meta.Actions = &actionRunner{
			registrationID: identity.RegistrationID,
			execute:        h.actionExecutor,
			afterAction:    h.afterAction,
		}
	}
	return meta, access
}

// hostFor maps a category to the host that carries its registrations.
func (h *Hub) hostFor(category plugin.Category) plugin.Host {
	switch category {
	case plugin.CategoryIngest:
		return h.producer
	case plugin.CategoryNotify:
		return h.notifier
	default:
		// Bridge and engage registrations are cross-wired into both sides.
		return h.bridges
	}
}

// writeStatus persists the instance status. Status is advisory, so a failed
// write never blocks the lifecycle transition it describes.
func (h *Hub) writeStatus(ctx context.Context, inst *Instance, status InstanceStatus) {
	besteffort.Do("write status "+inst.RegistrationID(), func() error {
		return h.store.SetState(ctx, inst.StatusID, statestore.State{
			Value: string(status),
			Ack:   true,
			TS:    time.Now(),
		})
	})
}
