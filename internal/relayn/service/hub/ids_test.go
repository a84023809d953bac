package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDerivation(t *testing.T) {
	base := BaseID("IngestDemo", 0)
	assert.Equal(t, "hub.0.plugins.IngestDemo.0", base)
	assert.Equal(t, base+".enabled", EnabledID(base))
	assert.Equal(t, base+".status", StatusID(base))
	assert.Equal(t, base+".watchlist", WatchlistID(base))
}

func TestIsControlID(t *testing.T) {
	assert.True(t, IsControlID("hub.0.plugins.IngestDemo.0.enabled"))
	assert.False(t, IsControlID("hub.0.plugins.IngestDemo.0.status"))
	assert.False(t, IsControlID("other.plugins.IngestDemo.0.enabled"))
	assert.False(t, IsControlID("hub.0.plugins.IngestDemo.0"))
}

func TestParseControlID(t *testing.T) {
	pluginType, instance, ok := parseControlID("hub.0.plugins.IngestDemo.3.enabled")
	require.True(t, ok)
	assert.Equal(t, "IngestDemo", pluginType)
	assert.Equal(t, 3, instance)

	_, _, ok = parseControlID("hub.0.plugins.IngestDemo.3.status")
	assert.False(t, ok)
}

func TestParseBaseID(t *testing.T) {
	pluginType, instance, ok := ParseBaseID("hub.0.plugins.NotifyStates.1")
	require.True(t, ok)
	assert.Equal(t, "NotifyStates", pluginType)
	assert.Equal(t, 1, instance)

	// Dotted type names keep everything before the last separator.
	pluginType, instance, ok = ParseBaseID("hub.0.plugins.some.dotted.type.2")
	require.True(t, ok)
	assert.Equal(t, "some.dotted.type", pluginType)
	assert.Equal(t, 2, instance)

	_, _, ok = ParseBaseID("hub.0.plugins.NoInstance")
	assert.False(t, ok)
	_, _, ok = ParseBaseID("elsewhere.NotifyStates.1")
	assert.False(t, ok)
}

func TestStatusValidity(t *testing.T) {
	for _, s := range []InstanceStatus{StatusStopped, StatusStarting, StatusRunning, StatusStopping, StatusError} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, InstanceStatus("bogus").IsValid())
}
