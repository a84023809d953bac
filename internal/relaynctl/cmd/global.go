package cmd

import (
	"github.com/spf13/pflag"
)

var (
	globalRelaynAddr string
)

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&globalRelaynAddr,
		"server",
		"127.0.0.1:8087",
		"Address of the relayn admin API (host:port)")
}

// ServerAddr returns the configured relayn admin API address.
func ServerAddr() string {
	return globalRelaynAddr
}
