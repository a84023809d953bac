package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// JanitorOptions configures the recurring managed-metadata sweep.
type JanitorOptions struct {
	Interval     time.Duration `json:"interval"      mapstructure:"interval"`
	StartupDelay time.Duration `json:"startup-delay" mapstructure:"startup-delay"`
}

// NewJanitorOptions creates a JanitorOptions object with default parameters.
func NewJanitorOptions() *JanitorOptions {
	return &JanitorOptions{
		Interval:     30 * time.Minute,
		StartupDelay: 30 * time.Second,
	}
}

// Validate checks JanitorOptions fields.
func (o *JanitorOptions) Validate() []error {
	var errs []error
	if o.Interval < time.Second {
		errs = append(errs, fmt.Errorf("--janitor.interval must be at least 1s, got %v", o.Interval))
	}
	if o.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("--janitor.startup-delay must not be negative, got %v", o.StartupDelay))
	}
	return errs
}

// AddFlags adds flags for the janitor options.
func (o *JanitorOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.Interval, "janitor.interval", o.Interval, ""+
		"Interval between managed-metadata sweeps.")

	fs.DurationVar(&o.StartupDelay, "janitor.startup-delay", o.StartupDelay, ""+
		"Delay before the first managed-metadata sweep after startup.")
}
