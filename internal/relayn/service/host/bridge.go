package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
)

// bridgeHandle detaches a cross-wired registration from both hosts.
type bridgeHandle struct {
	registrationID string
	producer       *ProducerHost
	notifier       *NotifierHost
}

var _ plugin.BridgeHandle = (*bridgeHandle)(nil)

func (h *bridgeHandle) Unregister() error {
	return errors.Join(
		h.producer.UnregisterPlugin(h.registrationID),
		h.notifier.UnregisterPlugin(h.registrationID),
	)
}

// RegisterBridge cross-wires a handler into both the producer and notifier
// hosts, so it sees inbound traffic and outbound notifications at once.
// On a partial failure the successful side is unwound before returning.
func RegisterBridge(registrationID string, b *plugin.Bound, producer *ProducerHost, notifier *NotifierHost) (plugin.BridgeHandle, error) {
	if err := producer.RegisterPlugin(registrationID, b); err != nil {
		return nil, err
	}
	if err := notifier.RegisterPlugin(registrationID, b); err != nil {
		_ = producer.UnregisterPlugin(registrationID)
		return nil, err
	}
	return &bridgeHandle{
		registrationID: registrationID,
		producer:       producer,
		notifier:       notifier,
	}, nil
}

// BridgeHost hosts bridge or engage registrations. Each registration is
// cross-wired into the producer and notifier hosts through RegisterBridge;
// the host keeps the handles so it can satisfy the plain Host contract.
type BridgeHost struct {
	producer *ProducerHost
	notifier *NotifierHost

	mu      sync.Mutex
	handles map[string]plugin.BridgeHandle
}

var _ plugin.Host = (*BridgeHost)(nil)

// NewBridgeHost creates a host that cross-wires into the given sides.
func NewBridgeHost(producer *ProducerHost, notifier *NotifierHost) *BridgeHost {
	return &BridgeHost{
		producer: producer,
		notifier: notifier,
		handles:  make(map[string]plugin.BridgeHandle),
	}
}

func (h *BridgeHost) RegisterPlugin(registrationID string, b *plugin.Bound) error {
	h.mu.Lock()
	if _, exists := h.handles[registrationID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("bridge registration %q already exists", registrationID)
	}
	h.mu.Unlock()

	handle, err := RegisterBridge(registrationID, b, h.producer, h.notifier)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.handles[registrationID] = handle
	h.mu.Unlock()
	return nil
}

// UnregisterPlugin drops a registration from both sides. Unknown ids are
// tolerated.
func (h *BridgeHost) UnregisterPlugin(registrationID string) error {
	h.mu.Lock()
	handle, ok := h.handles[registrationID]
	delete(h.handles, registrationID)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return handle.Unregister()
}

// Len returns the number of live registrations.
func (h *BridgeHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handles)
}
