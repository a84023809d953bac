package plugin

import (
	"context"

	"github.com/kiosk404/relayn/pkg/utils/json"
)

// ManagedReporter buffers "this instance manages object X" claims. Report
// never touches the store; Apply flushes the buffered claim set into the
// persisted watchlist and per-object metadata at controlled points.
type ManagedReporter interface {
	// Report adds ids to the instance's claim set. text is an optional
	// display text stamped alongside the claim.
	Report(ids []string, text string)

	// Apply writes the claim set as the persisted watchlist and stamps
	// managed metadata onto each claimed object.
	Apply(ctx context.Context) error
}

// MessageboxAccess lets an engage handler adopt or release the single
// direct control-plane callback slot. The access is bound to one
// registration id; a different current owner makes Register fail.
type MessageboxAccess interface {
	Register(h MessageboxHandler) error
	Unregister()
}

// ActionRunner executes a control-plane action on behalf of an engage
// handler. Successful actions tap a best-effort side-effect hook.
type ActionRunner interface {
	Run(ctx context.Context, action string, payload json.RawMessage) (json.RawMessage, error)
}

// Meta is the injected per-registration metadata.
type Meta struct {
	// Plugin identifies the registration. Frozen.
	Plugin Identity

	// ManagedObjects is set for ingest registrations only.
	ManagedObjects ManagedReporter

	// Messagebox and Actions are set for engage registrations only.
	Messagebox MessageboxAccess
	Actions    ActionRunner
}

// Context is the invocation context passed to every handler call. It embeds
// the caller's context.Context for cancellation and deadlines.
type Context struct {
	context.Context

	Meta Meta
}

// NewContext pairs a context with registration metadata.
func NewContext(ctx context.Context, meta Meta) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Context: ctx, Meta: meta}
}
