// Package managed keeps the secondary bookkeeping layer consistent: the
// per-instance watchlists (the authoritative claim sets), the managed
// metadata stamped onto externally owned objects, and the janitor sweep
// that reverts orphaned claims.
package managed

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/gg/gptr"

	"github.com/kiosk404/relayn/internal/pkg/besteffort"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// teardownChunk is how many ids a background watchlist teardown processes
// before yielding, so a large teardown never starves other work.
const teardownChunk = 50

// Tracker buffers managed-object claims per plugin instance and flushes
// them into the persisted watchlist and per-object metadata. Report is
// memory-only; Apply is the single point that touches the store.
type Tracker struct {
	store statestore.Store

	mu      sync.Mutex
	buffers map[string]*claimBuffer // keyed by instance base id
}

// claimBuffer is the live claim set of one instance.
type claimBuffer struct {
	identity    plugin.Identity
	watchlistID string
	claims      map[string]string // object id → display text
}

// NewTracker creates a tracker over the given store.
func NewTracker(store statestore.Store) *Tracker {
	return &Tracker{
		store:   store,
		buffers: make(map[string]*claimBuffer),
	}
}

// Reporter returns the managed-object reporter for one registration. The
// same instance always maps to the same buffer, so repeated registrations
// reuse existing claims.
func (t *Tracker) Reporter(identity plugin.Identity, watchlistID string) plugin.ManagedReporter {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf, ok := t.buffers[identity.BaseID]
	if !ok {
		buf = &claimBuffer{
			identity:    identity,
			watchlistID: watchlistID,
			claims:      make(map[string]string),
		}
		t.buffers[identity.BaseID] = buf
	}
	return &reporter{tracker: t, baseID: identity.BaseID}
}

type reporter struct {
	tracker *Tracker
	baseID  string
}

var _ plugin.ManagedReporter = (*reporter)(nil)

func (r *reporter) Report(ids []string, text string) {
	r.tracker.report(r.baseID, ids, text)
}

func (r *reporter) Apply(ctx context.Context) error {
	return r.tracker.apply(ctx, r.baseID)
}

func (t *Tracker) report(baseID string, ids []string, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf, ok := t.buffers[baseID]
	if !ok {
		return
	}
	for _, id := range ids {
		buf.claims[id] = text
	}
}

// apply flushes one instance's claim set: first the watchlist (full
// replace), then the per-object metadata. The watchlist write happens
// before any stamping, so the janitor never sees metadata the watchlist
// has not caught up to.
func (t *Tracker) apply(ctx context.Context, baseID string) error {
	t.mu.Lock()
	buf, ok := t.buffers[baseID]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	identity := buf.identity
	watchlistID := buf.watchlistID
	claims := make(map[string]string, len(buf.claims))
	for id, text := range buf.claims {
		claims[id] = text
	}
	t.mu.Unlock()

	ids := make([]string, 0, len(claims))
	for id := range claims {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	value, err := encodeWatchlist(ids)
	if err != nil {
		return fmt.Errorf("failed to encode watchlist for %q: %w", baseID, err)
	}
	if err := t.store.SetState(ctx, watchlistID, statestore.State{
		Value: value,
		Ack:   true,
		TS:    time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to write watchlist for %q: %w", baseID, err)
	}

	for _, id := range ids {
		id := id
		besteffort.Do("stamp managed meta "+id, func() error {
			return t.stamp(ctx, identity, id, claims[id])
		})
	}
	return nil
}

// stamp writes the managed annotation onto one object, skipping the write
// when nothing tracked would change.
func (t *Tracker) stamp(ctx context.Context, identity plugin.Identity, id, text string) error {
	obj, err := t.store.GetObject(ctx, id)
	if err != nil {
		return err
	}

	cur := obj.Managed
	if cur != nil &&
		cur.ManagedBy == identity.BaseID &&
		cur.ManagedText == text &&
		cur.ManagedMessage &&
		cur.Enabled {
		return nil
	}

	meta := statestore.ManagedMeta{
		ManagedBy:      identity.BaseID,
		ManagedText:    text,
		ManagedSince:   time.Now(),
		ManagedMessage: true,
		Enabled:        true,
	}
	if cur != nil && !cur.ManagedSince.IsZero() {
		meta.ManagedSince = cur.ManagedSince
	}
	return t.store.ExtendObject(ctx, id, statestore.ObjectPatch{Managed: &meta})
}

// ClearWatchlist is the disable-time counterpart of Apply: it resets the
// persisted watchlist to empty immediately, drops the in-memory claims,
// and reverts the previously listed objects in the background.
func (t *Tracker) ClearWatchlist(ctx context.Context, identity plugin.Identity, watchlistID string) error {
	var previous []string
	if st, err := t.store.GetState(ctx, watchlistID); err == nil {
		if ids, err := decodeWatchlist(st.Value); err == nil {
			previous = ids
		} else {
			logger.Debug("[Tracker] unreadable watchlist for %s: %v", identity.BaseID, err)
		}
	}

	t.mu.Lock()
	delete(t.buffers, identity.BaseID)
	t.mu.Unlock()

	if err := t.store.SetState(ctx, watchlistID, statestore.State{
		Value: "[]",
		Ack:   true,
		TS:    time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to clear watchlist for %q: %w", identity.BaseID, err)
	}

	if len(previous) > 0 {
		go t.revertListed(identity.BaseID, previous)
	}
	return nil
}

// revertListed walks the ids that were listed before the clear and reverts
// each one still attributed to this instance, yielding between chunks.
func (t *Tracker) revertListed(baseID string, ids []string) {
	ctx := context.Background()
	for i, id := range ids {
		if i > 0 && i%teardownChunk == 0 {
			runtime.Gosched()
		}
		id := id
		besteffort.Do("revert managed object "+id, func() error {
			obj, err := t.store.GetObject(ctx, id)
			if err != nil {
				return err
			}
			if obj.Managed == nil || obj.Managed.ManagedBy != baseID {
				return nil
			}
			return revertOrphan(ctx, t.store, obj)
		})
	}
	logger.Debug("[Tracker] reverted %d released objects for %s", len(ids), baseID)
}

// revertOrphan applies the orphan policy to one object: managedMessage is
// cleared, and an enabled object without a mode is disabled. No other
// fields are touched and the object is never deleted.
func revertOrphan(ctx context.Context, store statestore.Store, obj *statestore.Object) error {
	meta := *obj.Managed
	meta.ManagedMessage = false

	patch := statestore.ObjectPatch{Managed: &meta}
	if obj.Mode == "" && obj.Enabled {
		patch.Enabled = gptr.Of(false)
		meta.Enabled = false
	}
	return store.ExtendObject(ctx, obj.ID, patch)
}

func encodeWatchlist(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.MarshalString(ids)
}

func decodeWatchlist(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var ids []string
	if err := json.UnmarshalString(value, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
