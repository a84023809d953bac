package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Identity describes one live plugin registration. It is frozen at
// registration time and injected into every lifecycle call.
type Identity struct {
	Category       Category `json:"category"`
	Type           string   `json:"type"`
	Instance       int      `json:"instance"`
	RegistrationID string   `json:"registrationId"`
	BaseID         string   `json:"baseId"`
}

// RegistrationID derives the "<type>:<instance>" key identifying one live
// registration within a category.
func RegistrationID(pluginType string, instance int) string {
	return fmt.Sprintf("%s:%d", pluginType, instance)
}

// ParseRegistrationID splits a registration id back into its parts.
func ParseRegistrationID(id string) (pluginType string, instance int, err error) {
	i := strings.LastIndex(id, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("malformed registration id %q", id)
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed registration id %q: %w", id, err)
	}
	return id[:i], n, nil
}
