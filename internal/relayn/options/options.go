// Package options aggregates the flag-backed configuration of the relayn
// daemon.
package options

import (
	genericoptions "github.com/kiosk404/relayn/internal/pkg/options"
	"github.com/kiosk404/relayn/internal/pkg/server"
	"github.com/kiosk404/relayn/pkg/utils/cliflag"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// Options is the aggregated option set of the relayn daemon.
type Options struct {
	GenericServerRunOptions *genericoptions.ServerRunOptions       `json:"server"   mapstructure:"server"`
	InsecureServing         *genericoptions.InsecureServingOptions `json:"insecure" mapstructure:"insecure"`
	StoreOptions            *genericoptions.StoreOptions           `json:"store"    mapstructure:"store"`
	JanitorOptions          *genericoptions.JanitorOptions         `json:"janitor"  mapstructure:"janitor"`
	PluginOptions           *genericoptions.PluginsOptions         `json:"plugins"  mapstructure:"plugins"`
}

// NewOptions creates an Options object with default parameters.
func NewOptions() *Options {
	return &Options{
		GenericServerRunOptions: genericoptions.NewServerRunOptions(),
		InsecureServing:         genericoptions.NewInsecureServingOptions(),
		StoreOptions:            genericoptions.NewStoreOptions(),
		JanitorOptions:          genericoptions.NewJanitorOptions(),
		PluginOptions:           genericoptions.NewPluginsOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.GenericServerRunOptions.AddFlags(fss.FlagSet("generic"))
	o.InsecureServing.AddFlags(fss.FlagSet("insecure serving"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.JanitorOptions.AddFlags(fss.FlagSet("janitor"))
	o.PluginOptions.AddFlags(fss.FlagSet("plugins"))
	return fss
}

// Validate checks all the aggregated options.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.GenericServerRunOptions.Validate()...)
	errs = append(errs, o.InsecureServing.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.JanitorOptions.Validate()...)
	errs = append(errs, o.PluginOptions.Validate()...)
	return errs
}

// ApplyTo applies the serving options to the server config.
func (o *Options) ApplyTo(c *server.Config) error {
	if err := o.GenericServerRunOptions.ApplyTo(c); err != nil {
		return err
	}
	return o.InsecureServing.ApplyTo(c)
}

// Complete set default Options.
func (o *Options) Complete() error {
	return nil
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)
	return string(data)
}
