package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Store backend names accepted by --store.backend.
const (
	StoreBackendBoltDB   = "boltdb"
	StoreBackendInMemory = "inmemory"
)

// StoreOptions selects and configures the object/state store backend.
type StoreOptions struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path"    mapstructure:"path"`
}

// NewStoreOptions creates a StoreOptions object with default parameters.
func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Backend: StoreBackendBoltDB,
		Path:    "relayn.db",
	}
}

// Validate checks StoreOptions fields.
func (o *StoreOptions) Validate() []error {
	var errs []error
	switch o.Backend {
	case StoreBackendBoltDB:
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("--store.path is required for the boltdb backend"))
		}
	case StoreBackendInMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid store backend %q, supported: %s, %s",
			o.Backend, StoreBackendBoltDB, StoreBackendInMemory))
	}
	return errs
}

// AddFlags adds flags for the store options.
func (o *StoreOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Backend, "store.backend", o.Backend, ""+
		"Object/state store backend. Supported: boltdb, inmemory.")

	fs.StringVar(&o.Path, "store.path", o.Path, ""+
		"Path of the boltdb database file.")
}
