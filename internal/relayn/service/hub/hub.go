// Package hub is the plugin lifecycle orchestrator: it seeds the instance
// registry from the catalog, serializes enable/disable transitions through a
// single toggle worker, wires started registrations into their hosts,
// arbitrates the messagebox, and runs the janitor sweep over managed
// metadata.
package hub

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kiosk404/relayn/internal/relayn/service/host"
	"github.com/kiosk404/relayn/internal/relayn/service/managed"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	"github.com/kiosk404/relayn/pkg/logger"
)

// Config carries everything the hub needs. Store and Catalog are required.
type Config struct {
	Store   statestore.Store
	Catalog *plugin.Catalog

	// Instances overrides how many instances of a plugin type exist.
	// Types not listed get exactly one.
	Instances map[string]int

	JanitorInterval     time.Duration
	JanitorStartupDelay time.Duration
	ToggleQueueSize     int

	// ActionExecutor handles control-plane actions requested by engage
	// plugins. AfterAction, when set, is tapped after each success.
	ActionExecutor ActionExecutor
	AfterAction    func(action string)
}

// CompletedConfig is a validated Config.
type CompletedConfig struct {
	*Config
}

// Complete validates required fields and fills in defaults.
func (c *Config) Complete() (CompletedConfig, error) {
	if c.Store == nil {
		return CompletedConfig{}, fmt.Errorf("hub config requires a store")
	}
	if c.Catalog == nil {
		return CompletedConfig{}, fmt.Errorf("hub config requires a catalog")
	}
	if c.ToggleQueueSize <= 0 {
		c.ToggleQueueSize = 16
	}
	return CompletedConfig{c}, nil
}

// New assembles the hub. Initialize must be called before use.
func (c CompletedConfig) New() *Hub {
	producer := host.NewProducerHost()
	notifier := host.NewNotifierHost()

	h := &Hub{
		store:          c.Store,
		catalog:        c.Catalog,
		instanceCounts: c.Instances,
		producer:       producer,
		notifier:       notifier,
		bridges:        host.NewBridgeHost(producer, notifier),
		tracker:        managed.NewTracker(c.Store),
		messagebox:     &arbiter{},
		actionExecutor: c.ActionExecutor,
		afterAction:    c.AfterAction,
		instances:      make(map[string]*Instance),
		live:           make(map[string]*liveRegistration),
		toggles:        make(chan toggleRequest, c.ToggleQueueSize),
		stopCh:         make(chan struct{}),
	}

	h.janitor = (&managed.JanitorConfig{
		Store:        c.Store,
		Resolve:      h.resolveOwner,
		Interval:     c.JanitorInterval,
		StartupDelay: c.JanitorStartupDelay,
	}).Complete().New()

	return h
}

// Hub owns the plugin instance registry and drives every lifecycle
// transition. All toggles flow through one worker goroutine; the maps below
// are guarded by mu for readers on other goroutines.
type Hub struct {
	store          statestore.Store
	catalog        *plugin.Catalog
	instanceCounts map[string]int

	producer *host.ProducerHost
	notifier *host.NotifierHost
	bridges  *host.BridgeHost

	tracker    *managed.Tracker
	janitor    *managed.Janitor
	messagebox *arbiter

	actionExecutor ActionExecutor
	afterAction    func(action string)

	mu        sync.Mutex
	instances map[string]*Instance // keyed by registration id
	order     []string
	live      map[string]*liveRegistration

	toggles chan toggleRequest
	stopCh  chan struct{}
	wg      sync.WaitGroup

	unsubscribe func()
	disposeOnce sync.Once
	initialized bool
}

// Initialize builds the instance registry from the catalog, seeds the
// persisted control records, and starts the toggle worker, the control-flag
// subscription, and the janitor. It does not start any plugin; call
// RegisterEnabled for that.
func (h *Hub) Initialize(ctx context.Context) error {
	h.mu.Lock()
	if h.initialized {
		h.mu.Unlock()
		return fmt.Errorf("hub is already initialized")
	}
	h.initialized = true
	h.mu.Unlock()

	// Control ids carry no category, so a type name must be unique across
	// the whole catalog, not just within its category.
	seen := make(map[string]plugin.Category)
	for _, d := range h.catalog.Entries() {
		if prev, dup := seen[d.Type]; dup {
			return fmt.Errorf("plugin type %q is declared in both %q and %q", d.Type, prev, d.Category)
		}
		seen[d.Type] = d.Category

		for i := 0; i < h.countFor(d.Type); i++ {
			inst := newInstance(d, i)
			if err := h.ensureInstance(ctx, inst); err != nil {
				return err
			}
			inst.Enabled = h.loadEnableIntent(ctx, inst)

			regID := inst.RegistrationID()
			h.mu.Lock()
			h.instances[regID] = inst
			h.order = append(h.order, regID)
			h.mu.Unlock()
		}
	}

	h.wg.Add(1)
	go h.toggleWorker()

	h.unsubscribe = h.store.Subscribe(pluginPrefix, h.handleStateEvent)
	h.janitor.Start()

	logger.Info("[Hub] initialized with %d plugin instances", len(h.order))
	return nil
}

func (h *Hub) countFor(pluginType string) int {
	if n, ok := h.instanceCounts[pluginType]; ok && n > 0 {
		return n
	}
	return 1
}

// RegisterEnabled starts every instance whose persisted enable flag says so.
// Each start is queued and awaited individually; a failing instance is
// logged and the rest keep starting. The startup pass never commits the
// flag, so a start that fails here leaves the instance enabled on disk and
// the next restart retries it.
func (h *Hub) RegisterEnabled(ctx context.Context) {
	h.mu.Lock()
	pending := make([]string, 0, len(h.order))
	for _, regID := range h.order {
		if h.instances[regID].Enabled {
			pending = append(pending, regID)
		}
	}
	h.mu.Unlock()

	started := 0
	for _, regID := range pending {
		if err := <-h.enqueueToggle(regID, true, false, true); err != nil {
			logger.Error("[Hub] failed to start %s: %v", regID, err)
			continue
		}
		started++
	}
	logger.Info("[Hub] started %d of %d enabled plugin instances", started, len(pending))
}

// HandleControlChange inspects one state write and, when it is an
// unacknowledged write to the enable flag of a known instance, queues the
// matching toggle. It reports whether the write was consumed as a control
// change.
func (h *Hub) HandleControlChange(id string, st statestore.State) bool {
	if st.Ack || !IsControlID(id) {
		return false
	}
	pluginType, instance, ok := parseControlID(id)
	if !ok {
		return false
	}
	regID := plugin.RegistrationID(pluginType, instance)
	h.mu.Lock()
	_, known := h.instances[regID]
	h.mu.Unlock()
	if !known {
		logger.Warn("[Hub] enable request for unknown instance %s", regID)
		return false
	}
	h.enqueueToggle(regID, st.Value == "true", true, false)
	return true
}

// handleStateEvent is the store subscription callback. Control writes feed
// the toggle queue; every event is also fanned out to state observers.
func (h *Hub) handleStateEvent(id string, st statestore.State) {
	h.HandleControlChange(id, st)
	h.producer.BroadcastStateChange(context.Background(), id, st.Value, st.Ack)
}

// RequestEnable records operator intent to enable or disable an instance.
// The write is unacknowledged; the subscription picks it up and the toggle
// worker applies and then acknowledges it.
func (h *Hub) RequestEnable(ctx context.Context, pluginType string, instance int, enable bool) error {
	regID := plugin.RegistrationID(pluginType, instance)
	h.mu.Lock()
	inst, ok := h.instances[regID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, regID)
	}
	return h.store.SetState(ctx, inst.EnabledID, statestore.State{
		Value: strconv.FormatBool(enable),
		Ack:   false,
		TS:    time.Now(),
	})
}

// Publish delivers one inbound message to the producer side.
func (h *Hub) Publish(ctx context.Context, msg *plugin.Message) {
	h.producer.Publish(ctx, msg)
}

// Notify delivers a notification batch to the notifier side.
func (h *Hub) Notify(ctx context.Context, event string, items []plugin.Notification) {
	h.notifier.Notify(ctx, event, items)
}

// AnnounceObjectChange fans an object-change event out to observers.
func (h *Hub) AnnounceObjectChange(ctx context.Context, id string, obj interface{}) {
	h.producer.BroadcastObjectChange(ctx, id, obj)
}

// DispatchMessagebox routes a direct control-plane message to the current
// messagebox owner.
func (h *Hub) DispatchMessagebox(ctx context.Context, msg *plugin.Message) (*plugin.Message, error) {
	return h.messagebox.dispatch(ctx, msg)
}

// resolveOwner maps a managedBy value to the owning instance's watchlist id
// for the janitor.
func (h *Hub) resolveOwner(managedBy string) (string, bool) {
	pluginType, instance, ok := ParseBaseID(managedBy)
	if !ok {
		return "", false
	}
	regID := plugin.RegistrationID(pluginType, instance)
	h.mu.Lock()
	inst, known := h.instances[regID]
	h.mu.Unlock()
	if !known {
		return "", false
	}
	return inst.WatchlistID, true
}

// InstanceView is one row of a registry snapshot.
type InstanceView struct {
	Category       plugin.Category
	Type           string
	Instance       int
	RegistrationID string
	Enabled        bool
	Status         InstanceStatus
}

// Snapshot lists every instance with its committed enable flag and current
// status, in catalog order. Status reads are advisory; an unreadable status
// reports as stopped.
func (h *Hub) Snapshot(ctx context.Context) []InstanceView {
	h.mu.Lock()
	insts := make([]*Instance, 0, len(h.order))
	enabled := make([]bool, 0, len(h.order))
	for _, regID := range h.order {
		insts = append(insts, h.instances[regID])
		enabled = append(enabled, h.instances[regID].Enabled)
	}
	h.mu.Unlock()

	out := make([]InstanceView, 0, len(insts))
	for i, inst := range insts {
		status := StatusStopped
		if st, err := h.store.GetState(ctx, inst.StatusID); err == nil {
			if s := InstanceStatus(st.Value); s.IsValid() {
				status = s
			}
		}
		out = append(out, InstanceView{
			Category:       inst.Category,
			Type:           inst.Type,
			Instance:       inst.Instance,
			RegistrationID: inst.RegistrationID(),
			Enabled:        enabled[i],
			Status:         status,
		})
	}
	return out
}

// Lookup finds one instance view by type and instance number.
func (h *Hub) Lookup(ctx context.Context, pluginType string, instance int) (InstanceView, error) {
	regID := plugin.RegistrationID(pluginType, instance)
	for _, v := range h.Snapshot(ctx) {
		if v.RegistrationID == regID {
			return v, nil
		}
	}
	return InstanceView{}, fmt.Errorf("%w: %q", ErrUnknownInstance, regID)
}

// Dispose shuts the hub down: the janitor and subscription stop, the toggle
// worker drains out, and every live registration is torn down. Idempotent.
func (h *Hub) Dispose(ctx context.Context) {
	h.disposeOnce.Do(func() {
		h.janitor.Dispose()
		if h.unsubscribe != nil {
			h.unsubscribe()
		}

		// Tear live registrations down before stopping the worker so the
		// teardowns still run serialized.
		h.mu.Lock()
		liveIDs := make([]string, 0, len(h.live))
		for _, regID := range h.order {
			if _, ok := h.live[regID]; ok {
				liveIDs = append(liveIDs, regID)
			}
		}
		h.mu.Unlock()
		// commit=false keeps the persisted enable intent, so enabled
		// instances come back after a restart.
		for _, regID := range liveIDs {
			if err := <-h.enqueueToggle(regID, false, false, true); err != nil {
				logger.Warn("[Hub] failed to stop %s during shutdown: %v", regID, err)
			}
		}

		close(h.stopCh)
		h.wg.Wait()
		logger.Info("[Hub] disposed")
	})
}
