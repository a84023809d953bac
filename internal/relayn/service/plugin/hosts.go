package plugin

// Host is the downstream surface a registration is wired into. Hosts accept
// wrapped handlers keyed by registration id. UnregisterPlugin tolerates
// unknown ids.
type Host interface {
	RegisterPlugin(registrationID string, b *Bound) error
	UnregisterPlugin(registrationID string) error
}

// BridgeHandle is returned by the bridge/engage wiring helper; Unregister
// detaches the handler from both sides.
type BridgeHandle interface {
	Unregister() error
}
