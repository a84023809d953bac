package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// PluginsOptions holds the top-level configuration of the plugin hub.
type PluginsOptions struct {
	// Enabled controls whether any plugin instance is started. (default: true)
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// ToggleQueueSize bounds the pending enable/disable transition queue.
	ToggleQueueSize int `json:"toggle-queue-size" mapstructure:"toggle-queue-size"`
	// Entries holds per-plugin-type configuration, keyed by plugin type
	// name (e.g. "IngestDemo").
	Entries map[string]PluginEntryConfig `json:"entries" mapstructure:"entries"`
}

// PluginEntryConfig holds per-plugin-type configuration.
type PluginEntryConfig struct {
	// Enabled, when set, is the operator's enable intent for every instance
	// of this type. It is applied as an enable request, never as a direct
	// state overwrite.
	Enabled *bool `json:"enabled,omitempty" mapstructure:"enabled"`
	// Instances is how many instances of this type exist. Zero means one.
	Instances int `json:"instances,omitempty" mapstructure:"instances"`
	// Options is the opaque configuration blob handed to the factory.
	Options map[string]interface{} `json:"options,omitempty" mapstructure:"options"`
}

// NewPluginsOptions returns a new instance of PluginsOptions.
func NewPluginsOptions() *PluginsOptions {
	return &PluginsOptions{
		Enabled:         true,
		ToggleQueueSize: 16,
		Entries:         make(map[string]PluginEntryConfig),
	}
}

// Validate checks PluginsOptions fields.
func (o *PluginsOptions) Validate() []error {
	var errs []error
	if o.ToggleQueueSize < 1 {
		errs = append(errs, fmt.Errorf("--plugins.toggle-queue-size must be at least 1, got %d", o.ToggleQueueSize))
	}
	for name, entry := range o.Entries {
		if entry.Instances < 0 {
			errs = append(errs, fmt.Errorf("plugins.entries.%s.instances must not be negative, got %d",
				name, entry.Instances))
		}
	}
	return errs
}

// AddFlags adds flags for the plugins options. Only global switches are
// exposed as CLI flags; per-type configuration comes from the configuration
// file.
func (o *PluginsOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "plugins.enabled", o.Enabled, "Enable the plugin hub.")
	fs.IntVar(&o.ToggleQueueSize, "plugins.toggle-queue-size", o.ToggleQueueSize,
		"Capacity of the pending enable/disable transition queue.")
}

// InstanceCounts flattens the per-type instance overrides for the hub.
func (o *PluginsOptions) InstanceCounts() map[string]int {
	counts := make(map[string]int, len(o.Entries))
	for name, entry := range o.Entries {
		if entry.Instances > 0 {
			counts[name] = entry.Instances
		}
	}
	return counts
}
