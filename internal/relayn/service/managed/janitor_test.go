package managed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore/inmemory"
)

func newSweepJanitor(store statestore.Store, resolve OwnerResolver) *Janitor {
	cfg := &JanitorConfig{
		Store:   store,
		Resolve: resolve,
	}
	return cfg.Complete().New()
}

func claimedObject(id, owner string, enabled bool, mode string) *statestore.Object {
	return &statestore.Object{
		ID:      id,
		Enabled: enabled,
		Mode:    mode,
		Managed: &statestore.ManagedMeta{
			ManagedBy:      owner,
			ManagedMessage: true,
			Enabled:        true,
			ManagedSince:   time.Now(),
		},
	}
}

func TestSweepRevertsUnknownOwner(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.SetObjectIfAbsent(ctx, claimedObject("obj.a", "hub.0.plugins.Gone.0", true, ""))
	require.NoError(t, err)

	j := newSweepJanitor(store, func(string) (string, bool) { return "", false })
	j.Sweep(ctx)

	obj, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.False(t, obj.Managed.ManagedMessage)
	assert.False(t, obj.Enabled, "modeless enabled orphan must be disabled")
	assert.NotNil(t, obj.Managed, "the annotation itself is kept, never deleted")
}

func TestSweepRevertsMissingWatchlist(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.SetObjectIfAbsent(ctx, claimedObject("obj.a", "hub.0.plugins.Demo.0", true, "auto"))
	require.NoError(t, err)

	// The owner resolves but never wrote a watchlist.
	j := newSweepJanitor(store, func(string) (string, bool) {
		return "hub.0.plugins.Demo.0.watchlist", true
	})
	j.Sweep(ctx)

	obj, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.False(t, obj.Managed.ManagedMessage)
	assert.True(t, obj.Enabled, "objects with a mode keep their enabled flag")
}

func TestSweepKeepsListedObjects(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.SetObjectIfAbsent(ctx, claimedObject("obj.a", "hub.0.plugins.Demo.0", true, ""))
	require.NoError(t, err)
	require.NoError(t, store.SetState(ctx, "hub.0.plugins.Demo.0.watchlist", statestore.State{
		Value: `["obj.a"]`,
		Ack:   true,
		TS:    time.Now(),
	}))

	j := newSweepJanitor(store, func(string) (string, bool) {
		return "hub.0.plugins.Demo.0.watchlist", true
	})
	j.Sweep(ctx)

	obj, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.True(t, obj.Managed.ManagedMessage, "listed objects are never touched")
	assert.True(t, obj.Enabled)
}

func TestSweepSkipsUnreadableWatchlist(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.SetObjectIfAbsent(ctx, claimedObject("obj.a", "hub.0.plugins.Demo.0", true, ""))
	require.NoError(t, err)
	require.NoError(t, store.SetState(ctx, "hub.0.plugins.Demo.0.watchlist", statestore.State{
		Value: "not json",
		Ack:   true,
		TS:    time.Now(),
	}))

	j := newSweepJanitor(store, func(string) (string, bool) {
		return "hub.0.plugins.Demo.0.watchlist", true
	})
	j.Sweep(ctx)

	// An unreadable watchlist is a skip, not an orphan verdict.
	obj, err := store.GetObject(ctx, "obj.a")
	require.NoError(t, err)
	assert.True(t, obj.Managed.ManagedMessage)
}

func TestSweepIgnoresAlreadyReverted(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.SetObjectIfAbsent(ctx, &statestore.Object{
		ID:   "obj.a",
		Mode: "auto",
		Managed: &statestore.ManagedMeta{
			ManagedBy:      "hub.0.plugins.Gone.0",
			ManagedMessage: false,
		},
	})
	require.NoError(t, err)

	resolved := 0
	j := newSweepJanitor(store, func(string) (string, bool) {
		resolved++
		return "", false
	})
	j.Sweep(ctx)

	// Already-reverted objects short-circuit before owner resolution.
	assert.Zero(t, resolved)
}

func TestJanitorSchedulingGuards(t *testing.T) {
	store := inmemory.NewStore()
	defer store.Close()

	cfg := &JanitorConfig{
		Store:        store,
		Resolve:      func(string) (string, bool) { return "", false },
		Interval:     10 * time.Millisecond,
		StartupDelay: time.Millisecond,
	}
	j := cfg.Complete().New()

	j.Start()
	// Start is idempotent while armed.
	j.Start()

	time.Sleep(50 * time.Millisecond)
	j.Dispose()
	j.Dispose()

	// Starting after dispose must not arm a new timer.
	j.Start()
	j.mu.Lock()
	assert.Nil(t, j.timer)
	j.mu.Unlock()
}

func TestJanitorConfigDefaults(t *testing.T) {
	cfg := &JanitorConfig{Store: inmemory.NewStore(), Resolve: func(string) (string, bool) { return "", false }}
	completed := cfg.Complete()
	assert.Equal(t, 30*time.Minute, completed.Interval)
	assert.Equal(t, 30*time.Second, completed.StartupDelay)
}
