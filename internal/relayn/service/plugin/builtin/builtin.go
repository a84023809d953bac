// Package builtin ships the plugin types compiled into the daemon: a demo
// ingest source, a notification recorder, an echo bridge, and the ops engage
// plugin that answers direct control-plane messages.
package builtin

import (
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
)

// Catalog builds the builtin plugin catalog. The daemon registers these
// types at startup; which instances actually run is decided by the
// persisted enable flags.
func Catalog() *plugin.Catalog {
	c := plugin.NewCatalog()
	c.MustRegister(IngestDemoDescriptor())
	c.MustRegister(NotifyStatesDescriptor())
	c.MustRegister(BridgeEchoDescriptor())
	c.MustRegister(EngageOpsDescriptor())
	return c
}
