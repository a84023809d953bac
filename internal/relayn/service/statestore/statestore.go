// Package statestore defines the narrow object/state persistence contract
// the hub consumes: get/set objects, get/set acknowledged states, prefix
// subscriptions, and a managed-metadata lookup. Implementations live in the
// boltdb and inmemory subpackages.
package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/kiosk404/relayn/pkg/utils/json"
)

var (
	// ErrObjectNotFound is returned when the requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrStateNotFound is returned when the requested state does not exist.
	ErrStateNotFound = errors.New("state not found")
)

// ManagedMeta is the managed-object annotation a plugin instance stamps onto
// an externally owned object. ManagedSince is written once and never
// overwritten; ManagedMessage and Enabled are the only fields the janitor
// mutates.
type ManagedMeta struct {
	ManagedBy      string    `json:"managedBy"`
	ManagedText    string    `json:"managedText,omitempty"`
	ManagedSince   time.Time `json:"managedSince"`
	ManagedMessage bool      `json:"managedMessage"`
	Enabled        bool      `json:"enabled"`
}

// Object is a persisted record. Native carries the opaque configuration
// blob; Managed, when set, marks the object as claimed by a plugin instance.
type Object struct {
	ID      string          `json:"id"`
	Type    string          `json:"type,omitempty"`
	Mode    string          `json:"mode,omitempty"`
	Enabled bool            `json:"enabled,omitempty"`
	Native  json.RawMessage `json:"native,omitempty"`
	Managed *ManagedMeta    `json:"managed,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing store
// internals.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	dup := *o
	if o.Native != nil {
		dup.Native = append(json.RawMessage(nil), o.Native...)
	}
	if o.Managed != nil {
		m := *o.Managed
		dup.Managed = &m
	}
	return &dup
}

// ObjectPatch is a partial object update. Nil fields are left untouched.
// Managed replaces the whole managed annotation; ClearManaged removes it.
type ObjectPatch struct {
	Mode         *string
	Enabled      *bool
	Native       json.RawMessage
	Managed      *ManagedMeta
	ClearManaged bool
}

// Apply mutates obj in place according to the patch.
func (p ObjectPatch) Apply(obj *Object) {
	if p.Mode != nil {
		obj.Mode = *p.Mode
	}
	if p.Enabled != nil {
		obj.Enabled = *p.Enabled
	}
	if p.Native != nil {
		obj.Native = append(json.RawMessage(nil), p.Native...)
	}
	if p.ClearManaged {
		obj.Managed = nil
	} else if p.Managed != nil {
		m := *p.Managed
		obj.Managed = &m
	}
}

// State is a persisted state value. Ack distinguishes committed values
// (written by the owning process after the side effect happened) from
// intent (requests written by anyone else).
type State struct {
	Value string    `json:"val"`
	Ack   bool      `json:"ack"`
	TS    time.Time `json:"ts"`
}

// SubscribeFunc receives state-change events for a subscribed prefix.
type SubscribeFunc func(id string, st State)

// Store is the persistence contract consumed by the hub. All operations may
// fail; callers decide whether a failure is structural or best-effort.
type Store interface {
	// GetObject returns the object or ErrObjectNotFound.
	GetObject(ctx context.Context, id string) (*Object, error)

	// SetObjectIfAbsent creates the object when missing and reports whether
	// it was created. An existing object is never modified.
	SetObjectIfAbsent(ctx context.Context, obj *Object) (bool, error)

	// ExtendObject applies a partial update to an existing object.
	ExtendObject(ctx context.Context, id string, patch ObjectPatch) error

	// GetState returns the state or ErrStateNotFound.
	GetState(ctx context.Context, id string) (*State, error)

	// SetState writes a state value and notifies subscribers.
	SetState(ctx context.Context, id string, st State) error

	// Subscribe registers a callback for state changes under the given id
	// prefix. The returned function cancels the subscription.
	Subscribe(prefix string, fn SubscribeFunc) (cancel func())

	// ListManaged enumerates every object carrying a managed annotation,
	// preferring an indexed lookup when the backend maintains one.
	ListManaged(ctx context.Context) ([]*Object, error)

	// Close releases backend resources and stops event delivery.
	Close() error
}
