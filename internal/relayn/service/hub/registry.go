package hub

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
)

// ensureInstance seeds the persisted control records of one instance: the
// base object, the enable flag, and the status record. Existing records are
// never overwritten, so persisted operator intent survives restarts. Seeding
// failures are structural and abort initialization.
func (h *Hub) ensureInstance(ctx context.Context, inst *Instance) error {
	created, err := h.store.SetObjectIfAbsent(ctx, &statestore.Object{
		ID:     inst.BaseID,
		Type:   "plugin",
		Native: inst.descriptor.DefaultOptions,
	})
	if err != nil {
		return fmt.Errorf("failed to seed object %q: %w", inst.BaseID, err)
	}
	if created {
		logger.Debug("[Hub] seeded plugin object %s", inst.BaseID)
	}

	if err := h.ensureState(ctx, inst.EnabledID, strconv.FormatBool(inst.descriptor.DefaultEnabled)); err != nil {
		return err
	}
	return h.ensureState(ctx, inst.StatusID, string(StatusStopped))
}

// ensureState writes an acknowledged default when no state exists yet.
func (h *Hub) ensureState(ctx context.Context, id, value string) error {
	_, err := h.store.GetState(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, statestore.ErrStateNotFound) {
		return fmt.Errorf("failed to read state %q: %w", id, err)
	}
	if err := h.store.SetState(ctx, id, statestore.State{
		Value: value,
		Ack:   true,
		TS:    time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to seed state %q: %w", id, err)
	}
	return nil
}

// loadEnableIntent reads the persisted enable flag of one instance. A
// missing or unreadable flag counts as disabled.
func (h *Hub) loadEnableIntent(ctx context.Context, inst *Instance) bool {
	st, err := h.store.GetState(ctx, inst.EnabledID)
	if err != nil {
		logger.Warn("[Hub] failed to read enable flag of %s: %v", inst.RegistrationID(), err)
		return false
	}
	return st.Value == "true"
}
