// Package boltdb implements the statestore contract on BoltDB. Objects and
// states live in their own buckets; a third bucket indexes managed objects
// so the janitor can enumerate them without a full scan.
package boltdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

var (
	bucketObjects      = []byte("objects")
	bucketStates       = []byte("states")
	bucketManagedIndex = []byte("managed-index")
)

// Store is a BoltDB-backed statestore.Store.
type Store struct {
	db       *bolt.DB
	notifier *statestore.Notifier
}

var _ statestore.Store = (*Store)(nil)

// Open opens (or creates) the database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketObjects, bucketStates, bucketManagedIndex} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Store{db: db, notifier: statestore.NewNotifier()}, nil
}

func (s *Store) GetObject(_ context.Context, id string) (*statestore.Object, error) {
	var obj statestore.Object
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketObjects).Get([]byte(id))
		if data == nil {
			return statestore.ErrObjectNotFound
		}
		return json.Unmarshal(data, &obj)
	})
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *Store) SetObjectIfAbsent(_ context.Context, obj *statestore.Object) (bool, error) {
	created := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		if b.Get([]byte(obj.ID)) != nil {
			return nil
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to marshal object: %w", err)
		}
		if err := b.Put([]byte(obj.ID), data); err != nil {
			return err
		}
		created = true
		return s.updateManagedIndex(tx, obj)
	})
	if err != nil {
		return false, fmt.Errorf("failed to create object %q: %w", obj.ID, err)
	}
	return created, nil
}

func (s *Store) ExtendObject(_ context.Context, id string, patch statestore.ObjectPatch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		data := b.Get([]byte(id))
		if data == nil {
			return statestore.ErrObjectNotFound
		}
		var obj statestore.Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("failed to unmarshal object %q: %w", id, err)
		}
		patch.Apply(&obj)
		out, err := json.Marshal(&obj)
		if err != nil {
			return fmt.Errorf("failed to marshal object %q: %w", id, err)
		}
		if err := b.Put([]byte(id), out); err != nil {
			return err
		}
		return s.updateManagedIndex(tx, &obj)
	})
}

// updateManagedIndex keeps the managed-index bucket consistent with the
// object's managed annotation inside the same transaction.
func (s *Store) updateManagedIndex(tx *bolt.Tx, obj *statestore.Object) error {
	idx := tx.Bucket(bucketManagedIndex)
	if idx == nil {
		return nil
	}
	if obj.Managed != nil {
		return idx.Put([]byte(obj.ID), []byte{1})
	}
	return idx.Delete([]byte(obj.ID))
}

func (s *Store) GetState(_ context.Context, id string) (*statestore.State, error) {
	var st statestore.State
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketStates).Get([]byte(id))
		if data == nil {
			return statestore.ErrStateNotFound
		}
		return json.Unmarshal(data, &st)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) SetState(_ context.Context, id string, st statestore.State) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		return tx.Bucket(bucketStates).Put([]byte(id), data)
	})
	if err != nil {
		return fmt.Errorf("failed to set state %q: %w", id, err)
	}
	s.notifier.Publish(id, st)
	return nil
}

func (s *Store) Subscribe(prefix string, fn statestore.SubscribeFunc) func() {
	return s.notifier.Subscribe(prefix, fn)
}

// ListManaged reads the managed index and loads each object. Databases
// created before the index bucket existed fall back to a full scan.
func (s *Store) ListManaged(_ context.Context) ([]*statestore.Object, error) {
	var out []*statestore.Object
	err := s.db.View(func(tx *bolt.Tx) error {
		objects := tx.Bucket(bucketObjects)
		idx := tx.Bucket(bucketManagedIndex)
		if idx == nil {
			return objects.ForEach(func(_, v []byte) error {
				var obj statestore.Object
				if err := json.Unmarshal(v, &obj); err != nil {
					return fmt.Errorf("failed to unmarshal object: %w", err)
				}
				if obj.Managed != nil {
					out = append(out, &obj)
				}
				return nil
			})
		}
		return idx.ForEach(func(k, _ []byte) error {
			data := objects.Get(k)
			if data == nil {
				return nil
			}
			var obj statestore.Object
			if err := json.Unmarshal(data, &obj); err != nil {
				return fmt.Errorf("failed to unmarshal object %q: %w", k, err)
			}
			if obj.Managed != nil {
				out = append(out, &obj)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list managed objects: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	s.notifier.Close()
	return s.db.Close()
}
