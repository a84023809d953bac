package hub

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace prefixes every id owned by the hub.
const Namespace = "hub.0"

// pluginPrefix is the id prefix under which all per-instance control
// records live.
const pluginPrefix = Namespace + ".plugins."

const (
	suffixEnabled   = ".enabled"
	suffixStatus    = ".status"
	suffixWatchlist = ".watchlist"
)

// BaseID derives the stable base id of one plugin instance, e.g.
// "hub.0.plugins.IngestDemo.0". This is also the form stored in managedBy.
func BaseID(pluginType string, instance int) string {
	return fmt.Sprintf("%s%s.%d", pluginPrefix, pluginType, instance)
}

// EnabledID is the id of the persisted enable flag.
func EnabledID(baseID string) string { return baseID + suffixEnabled }

// StatusID is the id of the persisted status record.
func StatusID(baseID string) string { return baseID + suffixStatus }

// WatchlistID is the id of the persisted watchlist record.
func WatchlistID(baseID string) string { return baseID + suffixWatchlist }

// IsControlID reports whether id is an enable flag owned by the hub.
func IsControlID(id string) bool {
	return strings.HasPrefix(id, pluginPrefix) && strings.HasSuffix(id, suffixEnabled)
}

// parseControlID recovers the plugin type and instance number from an
// enable-flag id.
func parseControlID(id string) (pluginType string, instance int, ok bool) {
	if !IsControlID(id) {
		return "", 0, false
	}
	base := strings.TrimSuffix(id, suffixEnabled)
	return ParseBaseID(base)
}

// ParseBaseID recovers the plugin type and instance number from a base id
// (the managedBy form).
func ParseBaseID(baseID string) (pluginType string, instance int, ok bool) {
	if !strings.HasPrefix(baseID, pluginPrefix) {
		return "", 0, false
	}
	rest := baseID[len(pluginPrefix):]
	i := strings.LastIndex(rest, ".")
	if i <= 0 || i == len(rest)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:i], n, true
}
