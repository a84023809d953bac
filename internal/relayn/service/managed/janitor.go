package managed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
)

// OwnerResolver maps a managedBy value back to the owning instance's
// watchlist state id. ok is false when no such instance exists.
type OwnerResolver func(managedBy string) (watchlistID string, ok bool)

// JanitorConfig configures the background sweep.
type JanitorConfig struct {
	Store        statestore.Store
	Resolve      OwnerResolver
	Interval     time.Duration
	StartupDelay time.Duration
}

// CompletedJanitorConfig is a validated JanitorConfig.
type CompletedJanitorConfig struct {
	*JanitorConfig
}

// Complete fills in defaults.
func (c *JanitorConfig) Complete() CompletedJanitorConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Minute
	}
	if c.StartupDelay <= 0 {
		c.StartupDelay = 30 * time.Second
	}
	return CompletedJanitorConfig{c}
}

// New creates the janitor. Start arms the first pass.
func (c CompletedJanitorConfig) New() *Janitor {
	return &Janitor{
		store:        c.Store,
		resolve:      c.Resolve,
		interval:     c.Interval,
		startupDelay: c.StartupDelay,
	}
}

// Janitor is the recurring sweep that reverts orphaned managed-object
// claims. It only reads and repairs metadata; it never registers or
// unregisters plugins and never deletes objects.
type Janitor struct {
	store        statestore.Store
	resolve      OwnerResolver
	interval     time.Duration
	startupDelay time.Duration

	running  atomic.Bool
	mu       sync.Mutex
	timer    *time.Timer
	disposed bool
}

// Start schedules the first pass shortly after startup. Subsequent passes
// self-reschedule on the configured interval.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.disposed || j.timer != nil {
		return
	}
	j.timer = time.AfterFunc(j.startupDelay, j.tick)
}

// Dispose cancels the recurring timer. Idempotent; a pass already running
// finishes on its own.
func (j *Janitor) Dispose() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.disposed = true
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
}

func (j *Janitor) tick() {
	// A pass still running means this scheduled pass is skipped, not queued.
	if j.running.CompareAndSwap(false, true) {
		j.Sweep(context.Background())
		j.running.Store(false)
	} else {
		logger.Debug("[Janitor] previous pass still running, skipping")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.disposed {
		return
	}
	j.timer = time.AfterFunc(j.interval, j.tick)
}

// Sweep runs one pass over every object carrying managed metadata. Each
// object is handled independently: failures are logged at debug level and
// never abort the pass.
func (j *Janitor) Sweep(ctx context.Context) {
	objs, err := j.store.ListManaged(ctx)
	if err != nil {
		logger.Debug("[Janitor] failed to enumerate managed objects: %v", err)
		return
	}

	reverted := 0
	for _, obj := range objs {
		orphaned, err := j.isOrphaned(ctx, obj)
		if err != nil {
			logger.Debug("[Janitor] skipping %s: %v", obj.ID, err)
			continue
		}
		if !orphaned {
			continue
		}
		if err := revertOrphan(ctx, j.store, obj); err != nil {
			logger.Debug("[Janitor] failed to revert %s: %v", obj.ID, err)
			continue
		}
		reverted++
	}
	if reverted > 0 {
		logger.Info("[Janitor] reverted %d orphaned managed objects (of %d scanned)", reverted, len(objs))
	}
}

// isOrphaned decides whether an object's claim is stale. The watchlist is
// the single source of truth: an object listed in its owner's current
// watchlist is never touched.
func (j *Janitor) isOrphaned(ctx context.Context, obj *statestore.Object) (bool, error) {
	if !obj.Managed.ManagedMessage && !(obj.Mode == "" && obj.Enabled) {
		// Already reverted; nothing left to repair.
		return false, nil
	}

	watchlistID, ok := j.resolve(obj.Managed.ManagedBy)
	if !ok {
		return true, nil
	}

	st, err := j.store.GetState(ctx, watchlistID)
	if err != nil {
		if errors.Is(err, statestore.ErrStateNotFound) {
			return true, nil
		}
		return false, err
	}
	ids, err := decodeWatchlist(st.Value)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == obj.ID {
			return false, nil
		}
	}
	return true, nil
}
