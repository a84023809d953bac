package hub

import (
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
)

// Instance is the control record of one plugin instance. One is created per
// catalog entry during initialization and lives for the life of the hub.
// Enabled is mutated only by the toggle queue.
type Instance struct {
	Category plugin.Category
	Type     string
	Instance int

	BaseID      string
	EnabledID   string
	StatusID    string
	WatchlistID string

	Enabled bool

	descriptor plugin.Descriptor
}

func newInstance(d plugin.Descriptor, instance int) *Instance {
	base := BaseID(d.Type, instance)
	return &Instance{
		Category:    d.Category,
		Type:        d.Type,
		Instance:    instance,
		BaseID:      base,
		EnabledID:   EnabledID(base),
		StatusID:    StatusID(base),
		WatchlistID: WatchlistID(base),
		descriptor:  d,
	}
}

// RegistrationID derives the "<type>:<instance>" registration key.
func (i *Instance) RegistrationID() string {
	return plugin.RegistrationID(i.Type, i.Instance)
}

// Identity builds the frozen identity injected into the instance's handler.
func (i *Instance) Identity() plugin.Identity {
	return plugin.Identity{
		Category:       i.Category,
		Type:           i.Type,
		Instance:       i.Instance,
		RegistrationID: i.RegistrationID(),
		BaseID:         i.BaseID,
	}
}
