// Package inmemory implements the statestore contract with plain maps.
// It backs tests and the default development configuration.
package inmemory

import (
	"context"
	"sync"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
)

// Store is a map-backed statestore.Store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*statestore.Object
	states  map[string]statestore.State

	notifier *statestore.Notifier
}

var _ statestore.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		objects:  make(map[string]*statestore.Object),
		states:   make(map[string]statestore.State),
		notifier: statestore.NewNotifier(),
	}
}

func (s *Store) GetObject(_ context.Context, id string) (*statestore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, statestore.ErrObjectNotFound
	}
	return obj.Clone(), nil
}

func (s *Store) SetObjectIfAbsent(_ context.Context, obj *statestore.Object) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[obj.ID]; exists {
		return false, nil
	}
	s.objects[obj.ID] = obj.Clone()
	return true, nil
}

func (s *Store) ExtendObject(_ context.Context, id string, patch statestore.ObjectPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return statestore.ErrObjectNotFound
	}
	dup := obj.Clone()
	patch.Apply(dup)
	s.objects[id] = dup
	return nil
}

func (s *Store) GetState(_ context.Context, id string) (*statestore.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, statestore.ErrStateNotFound
	}
	return &st, nil
}

func (s *Store) SetState(_ context.Context, id string, st statestore.State) error {
	s.mu.Lock()
	s.states[id] = st
	s.mu.Unlock()

	s.notifier.Publish(id, st)
	return nil
}

func (s *Store) Subscribe(prefix string, fn statestore.SubscribeFunc) func() {
	return s.notifier.Subscribe(prefix, fn)
}

// ListManaged scans all objects; the in-memory backend keeps no index.
func (s *Store) ListManaged(_ context.Context) ([]*statestore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*statestore.Object
	for _, obj := range s.objects {
		if obj.Managed != nil {
			out = append(out, obj.Clone())
		}
	}
	return out, nil
}

func (s *Store) Close() error {
	s.notifier.Close()
	return nil
}
