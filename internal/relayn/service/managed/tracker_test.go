package managed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore/inmemory"
)

// countingStore wraps a store and counts writes, so tests can assert the
// tracker stays minimal about store I/O.
type countingStore struct {
	statestore.Store

	mu         sync.Mutex
	setStates  int
	extensions int
}

func (s *countingStore) SetState(ctx context.Context, id string, st statestore.State) error {
	s.mu.Lock()
	s.setStates++
	s.mu.Unlock()
	return s.Store.SetState(ctx, id, st)
}

func (s *countingStore) ExtendObject(ctx context.Context, id string, patch statestore.ObjectPatch) error {
	s.mu.Lock()
	s.extensions++
	s.mu.Unlock()
	return s.Store.ExtendObject(ctx, id, patch)
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStates, s.extensions
}

func demoIdentity() plugin.Identity {
	return plugin.Identity{
		Category:       plugin.CategoryIngest,
		Type:           "Demo",
		Instance:       0,
		RegistrationID: plugin.RegistrationID("Demo", 0),
		BaseID:         "hub.0.plugins.Demo.0",
	}
}

const demoWatchlistID = "hub.0.plugins.Demo.0.watchlist"

func seedObject(t *testing.T, store statestore.Store, id string, enabled bool, mode string) {
	t.Helper()
	_, err := store.SetObjectIfAbsent(context.Background(), &statestore.Object{
		ID:      id,
		Enabled: enabled,
		Mode:    mode,
	})
	require.NoError(t, err)
}

func TestApplyWritesWatchlistBeforeStamping(t *testing.T) {
	inner := inmemory.NewStore()
	defer inner.Close()
	store := &countingStore{Store: inner}
	tracker := NewTracker(store)
	ctx := context.Background()

	seedObject(t, store, "obj.a", false, "")
	seedObject(t, store, "obj.b", false, "")

	r := tracker.Reporter(demoIdentity(), demoWatchlistID)
	r.Report([]string{"obj.a", "obj.b"}, "demo")
	require.NoError(t, r.Apply(ctx))

	// Exactly one watchlist write, one metadata stamp per object.
	states, extensions := store.counts()
	assert.Equal(t, 1, states)
	assert.Equal(t, 2, extensions)

	st, err := store.GetState(ctx, demoWatchlistID)
	require.NoError(t, err)
	assert.True(t, st.Ack)
	assert.JSONEq(t, `["obj.a","obj.b"]`, st.Value)

	obj, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	require.NotNil(t, obj.Managed)
	assert.Equal(t, "hub.0.plugins.Demo.0", obj.Managed.ManagedBy)
	assert.Equal(t, "demo", obj.Managed.ManagedText)
	assert.True(t, obj.Managed.ManagedMessage)
	assert.True(t, obj.Managed.Enabled)
	assert.False(t, obj.Managed.ManagedSince.IsZero())
}

func TestApplySkipsUnchangedStamps(t *testing.T) {
	inner := inmemory.NewStore()
	defer inner.Close()
	store := &countingStore{Store: inner}
	tracker := NewTracker(store)
	ctx := context.Background()

	seedObject(t, store, "obj.a", false, "")
	r := tracker.Reporter(demoIdentity(), demoWatchlistID)
	r.Report([]string{"obj.a"}, "demo")
	require.NoError(t, r.Apply(ctx))

	first, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	since := first.Managed.ManagedSince

	_, extensionsBefore := store.counts()
	require.NoError(t, r.Apply(ctx))
	_, extensionsAfter := store.counts()

	// Nothing changed, so no second stamp and ManagedSince is untouched.
	assert.Equal(t, extensionsBefore, extensionsAfter)
	again, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.Equal(t, since, again.Managed.ManagedSince)
}

func TestApplyPreservesManagedSinceOnTextChange(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	tracker := NewTracker(store)
	ctx := context.Background()

	seedObject(t, store, "obj.a", false, "")
	r := tracker.Reporter(demoIdentity(), demoWatchlistID)
	r.Report([]string{"obj.a"}, "first")
	require.NoError(t, r.Apply(ctx))

	first, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	since := first.Managed.ManagedSince

	r.Report([]string{"obj.a"}, "second")
	require.NoError(t, r.Apply(ctx))

	again, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.Equal(t, "second", again.Managed.ManagedText)
	assert.Equal(t, since, again.Managed.ManagedSince)
}

func TestClearWatchlistRevertsListedObjects(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	tracker := NewTracker(store)
	ctx := context.Background()

	// One modeless enabled object and one with a mode.
	seedObject(t, store, "obj.modeless", true, "")
	seedObject(t, store, "obj.moded", true, "auto")

	r := tracker.Reporter(demoIdentity(), demoWatchlistID)
	r.Report([]string{"obj.modeless", "obj.moded"}, "demo")
	require.NoError(t, r.Apply(ctx))

	require.NoError(t, tracker.ClearWatchlist(ctx, demoIdentity(), demoWatchlistID))

	st, err := store.GetState(ctx, demoWatchlistID)
	require.NoError(t, err)
	assert.Equal(t, "[]", st.Value)

	// The background teardown reverts both objects: managedMessage is
	// cleared everywhere, and only the modeless one is disabled.
	require.Eventually(t, func() bool {
		a, err := store.GetObject(ctx, "obj.modeless")
		if err != nil || a.Managed == nil || a.Managed.ManagedMessage {
			return false
		}
		b, err := store.GetObject(ctx, "obj.moded")
		return err == nil && b.Managed != nil && !b.Managed.ManagedMessage
	}, 2*time.Second, 10*time.Millisecond)

	modeless, err := store.GetObject(ctx, "obj.modeless")
	require.NoError(t, err)
	assert.False(t, modeless.Enabled)

	moded, err := store.GetObject(ctx, "obj.moded")
	require.NoError(t, err)
	assert.True(t, moded.Enabled, "objects with a mode keep their enabled flag")
}

func TestClearWatchlistLeavesForeignClaimsAlone(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	tracker := NewTracker(store)
	ctx := context.Background()

	// An object listed in the stale watchlist but since claimed by someone
	// else must not be reverted.
	_, err := store.SetObjectIfAbsent(ctx, &statestore.Object{
		ID:      "obj.foreign",
		Enabled: true,
		Managed: &statestore.ManagedMeta{
			ManagedBy:      "hub.0.plugins.Other.0",
			ManagedMessage: true,
			Enabled:        true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.SetState(ctx, demoWatchlistID, statestore.State{
		Value: `["obj.foreign"]`,
		Ack:   true,
		TS:    time.Now(),
	}))

	require.NoError(t, tracker.ClearWatchlist(ctx, demoIdentity(), demoWatchlistID))

	// Give the background pass a moment, then verify nothing changed.
	time.Sleep(100 * time.Millisecond)
	obj, err := store.GetObject(ctx, "obj.foreign")
	require.NoError(t, err)
	assert.True(t, obj.Managed.ManagedMessage)
	assert.True(t, obj.Enabled)
}

func TestReporterSurvivesReRegistration(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	tracker := NewTracker(store)
	ctx := context.Background()

	seedObject(t, store, "obj.a", false, "")
	r1 := tracker.Reporter(demoIdentity(), demoWatchlistID)
	r1.Report([]string{"obj.a"}, "demo")

	// A second Reporter for the same instance sees the same buffer.
	r2 := tracker.Reporter(demoIdentity(), demoWatchlistID)
	require.NoError(t, r2.Apply(ctx))

	st, err := store.GetState(ctx, demoWatchlistID)
	require.NoError(t, err)
	assert.JSONEq(t, `["obj.a"]`, st.Value)
}
