package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
)

type recordingHandler struct {
	name     string
	fail     bool
	handled  *[]string
	events   int
	statesOK int
}

func (h *recordingHandler) HandleMessage(c *plugin.Context, msg *plugin.Message) error {
	if h.fail {
		return errors.New("handler broken")
	}
	*h.handled = append(*h.handled, h.name)
	return nil
}

func (h *recordingHandler) OnNotifications(c *plugin.Context, event string, items []plugin.Notification) error {
	h.events++
	return nil
}

func (h *recordingHandler) OnStateChange(c *plugin.Context, id string, value string, ack bool) error {
	h.statesOK++
	return nil
}

type countingReporter struct {
	applied int
}

func (r *countingReporter) Report(ids []string, text string) {}
func (r *countingReporter) Apply(ctx context.Context) error {
	r.applied++
	return nil
}

func bound(name string, h plugin.Handler, meta plugin.Meta) *plugin.Bound {
	return plugin.NewBound(plugin.Identity{
		Category:       plugin.CategoryIngest,
		Type:           name,
		RegistrationID: plugin.RegistrationID(name, 0),
		BaseID:         "hub.0.plugins." + name + ".0",
	}, h, meta)
}

func TestProducerPublishOrderAndIsolation(t *testing.T) {
	h := NewProducerHost()
	var handled []string

	a := &recordingHandler{name: "A", handled: &handled}
	broken := &recordingHandler{name: "B", fail: true, handled: &handled}
	c := &recordingHandler{name: "C", handled: &handled}

	require.NoError(t, h.RegisterPlugin("A:0", bound("A", a, plugin.Meta{})))
	require.NoError(t, h.RegisterPlugin("B:0", bound("B", broken, plugin.Meta{})))
	require.NoError(t, h.RegisterPlugin("C:0", bound("C", c, plugin.Meta{})))

	h.Publish(context.Background(), plugin.NewMessage("news", nil))

	// The broken handler must not stop later deliveries, and order follows
	// registration order.
	assert.Equal(t, []string{"A", "C"}, handled)
	assert.Equal(t, 3, h.Len())
}

func TestProducerFlushesManagedReportsAfterDelivery(t *testing.T) {
	h := NewProducerHost()
	var handled []string
	reporter := &countingReporter{}

	handler := &recordingHandler{name: "A", handled: &handled}
	require.NoError(t, h.RegisterPlugin("A:0",
		bound("A", handler, plugin.Meta{ManagedObjects: reporter})))

	h.Publish(context.Background(), plugin.NewMessage("", nil))
	h.Publish(context.Background(), plugin.NewMessage("", nil))

	assert.Equal(t, 2, reporter.applied)
}

func TestProducerSkipsFlushForFailedDelivery(t *testing.T) {
	h := NewProducerHost()
	var handled []string
	reporter := &countingReporter{}

	broken := &recordingHandler{name: "A", fail: true, handled: &handled}
	require.NoError(t, h.RegisterPlugin("A:0",
		bound("A", broken, plugin.Meta{ManagedObjects: reporter})))

	h.Publish(context.Background(), plugin.NewMessage("", nil))
	assert.Zero(t, reporter.applied)
}

func TestProducerDuplicateAndUnknownIDs(t *testing.T) {
	h := NewProducerHost()
	var handled []string
	b := bound("A", &recordingHandler{name: "A", handled: &handled}, plugin.Meta{})

	require.NoError(t, h.RegisterPlugin("A:0", b))
	assert.Error(t, h.RegisterPlugin("A:0", b))

	// Unknown ids are tolerated on unregister.
	assert.NoError(t, h.UnregisterPlugin("missing"))
	assert.NoError(t, h.UnregisterPlugin("A:0"))
	assert.Zero(t, h.Len())
}

func TestNotifierFanOut(t *testing.T) {
	h := NewNotifierHost()
	var handled []string
	a := &recordingHandler{name: "A", handled: &handled}
	b := &recordingHandler{name: "B", handled: &handled}

	require.NoError(t, h.RegisterPlugin("A:0", bound("A", a, plugin.Meta{})))
	require.NoError(t, h.RegisterPlugin("B:0", bound("B", b, plugin.Meta{})))

	h.Notify(context.Background(), "updated", []plugin.Notification{{ID: "n1"}})
	h.Notify(context.Background(), "updated", nil)

	assert.Equal(t, 2, a.events)
	assert.Equal(t, 2, b.events)
}

func TestBridgeCrossWiring(t *testing.T) {
	producer := NewProducerHost()
	notifier := NewNotifierHost()
	bridges := NewBridgeHost(producer, notifier)

	var handled []string
	h := &recordingHandler{name: "E", handled: &handled}
	require.NoError(t, bridges.RegisterPlugin("E:0", bound("E", h, plugin.Meta{})))

	assert.Equal(t, 1, producer.Len())
	assert.Equal(t, 1, notifier.Len())

	producer.Publish(context.Background(), plugin.NewMessage("", nil))
	notifier.Notify(context.Background(), "updated", nil)
	assert.Equal(t, []string{"E"}, handled)
	assert.Equal(t, 1, h.events)

	require.NoError(t, bridges.UnregisterPlugin("E:0"))
	assert.Zero(t, producer.Len())
	assert.Zero(t, notifier.Len())
	assert.Zero(t, bridges.Len())
}

func TestBridgeUnwindsOnPartialFailure(t *testing.T) {
	producer := NewProducerHost()
	notifier := NewNotifierHost()

	var handled []string
	b := bound("E", &recordingHandler{name: "E", handled: &handled}, plugin.Meta{})

	// Occupy the notifier side so cross-wiring fails halfway.
	require.NoError(t, notifier.RegisterPlugin("E:0", b))

	_, err := RegisterBridge("E:0", b, producer, notifier)
	require.Error(t, err)
	assert.Zero(t, producer.Len(), "producer side must be unwound")
}

func TestBroadcastStateChange(t *testing.T) {
	h := NewProducerHost()
	var handled []string
	a := &recordingHandler{name: "A", handled: &handled}
	require.NoError(t, h.RegisterPlugin("A:0", bound("A", a, plugin.Meta{})))

	h.BroadcastStateChange(context.Background(), "st.1", "v", true)
	assert.Equal(t, 1, a.statesOK)
}
