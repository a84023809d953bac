package v1

import (
	"time"
)

// PluginResponse is the wire representation of one plugin instance.
type PluginResponse struct {
	Category       string `json:"category"`
	Type           string `json:"type"`
	Instance       int    `json:"instance"`
	RegistrationID string `json:"registrationId"`
	Enabled        bool   `json:"enabled"`
	Status         string `json:"status"`
}

// SetEnabledRequest is the body of PUT /v1/plugins/:type/:instance/enabled.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabledResponse acknowledges a recorded enable request.
type SetEnabledResponse struct {
	RegistrationID string `json:"registrationId"`
	Requested      bool   `json:"requested"`
	Enabled        bool   `json:"enabled"`
}

// MessageboxRequest is the body of POST /v1/messagebox.
type MessageboxRequest struct {
	Channel string      `json:"channel,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// MessageboxResponse carries the reply of the messagebox owner.
type MessageboxResponse struct {
	ID      string      `json:"id"`
	Channel string      `json:"channel,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// FormatTime renders timestamps the way the whole API does.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
