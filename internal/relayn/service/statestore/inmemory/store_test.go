package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

func TestObjectLifecycle(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	obj := &statestore.Object{
		ID:     "hub.0.plugins.Demo.0",
		Type:   "plugin",
		Native: json.RawMessage(`{"a":1}`),
	}

	created, err := s.SetObjectIfAbsent(ctx, obj)
	require.NoError(t, err)
	assert.True(t, created)

	// A second create must not overwrite.
	created, err = s.SetObjectIfAbsent(ctx, &statestore.Object{ID: obj.ID, Type: "other"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetObject(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, "plugin", got.Type)

	// Returned objects are clones; mutating them must not leak back.
	got.Type = "mutated"
	again, err := s.GetObject(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, "plugin", again.Type)

	_, err = s.GetObject(ctx, "missing")
	assert.ErrorIs(t, err, statestore.ErrObjectNotFound)
}

func TestExtendObject(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.SetObjectIfAbsent(ctx, &statestore.Object{ID: "obj.1", Enabled: true})
	require.NoError(t, err)

	mode := "auto"
	err = s.ExtendObject(ctx, "obj.1", statestore.ObjectPatch{
		Mode: &mode,
		Managed: &statestore.ManagedMeta{
			ManagedBy:      "hub.0.plugins.Demo.0",
			ManagedMessage: true,
			Enabled:        true,
			ManagedSince:   time.Now(),
		},
	})
	require.NoError(t, err)

	got, err := s.GetObject(ctx, "obj.1")
	require.NoError(t, err)
	assert.Equal(t, "auto", got.Mode)
	assert.True(t, got.Enabled)
	require.NotNil(t, got.Managed)
	assert.Equal(t, "hub.0.plugins.Demo.0", got.Managed.ManagedBy)

	err = s.ExtendObject(ctx, "obj.1", statestore.ObjectPatch{ClearManaged: true})
	require.NoError(t, err)
	got, err = s.GetObject(ctx, "obj.1")
	require.NoError(t, err)
	assert.Nil(t, got.Managed)

	err = s.ExtendObject(ctx, "missing", statestore.ObjectPatch{})
	assert.ErrorIs(t, err, statestore.ErrObjectNotFound)
}

func TestStateLifecycle(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.GetState(ctx, "missing")
	assert.ErrorIs(t, err, statestore.ErrStateNotFound)

	err = s.SetState(ctx, "st.1", statestore.State{Value: "true", Ack: false, TS: time.Now()})
	require.NoError(t, err)

	got, err := s.GetState(ctx, "st.1")
	require.NoError(t, err)
	assert.Equal(t, "true", got.Value)
	assert.False(t, got.Ack)
}

func TestSubscribePrefix(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	cancel := s.Subscribe("hub.0.", func(id string, st statestore.State) {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
	})

	require.NoError(t, s.SetState(ctx, "hub.0.plugins.Demo.0.enabled", statestore.State{Value: "true"}))
	require.NoError(t, s.SetState(ctx, "other.id", statestore.State{Value: "x"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1 && seen[0] == "hub.0.plugins.Demo.0.enabled"
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, s.SetState(ctx, "hub.0.plugins.Demo.0.status", statestore.State{Value: "running"}))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()
}

func TestListManaged(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.SetObjectIfAbsent(ctx, &statestore.Object{ID: "plain"})
	require.NoError(t, err)
	_, err = s.SetObjectIfAbsent(ctx, &statestore.Object{
		ID:      "claimed",
		Managed: &statestore.ManagedMeta{ManagedBy: "hub.0.plugins.Demo.0", ManagedMessage: true},
	})
	require.NoError(t, err)

	objs, err := s.ListManaged(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "claimed", objs[0].ID)
}
