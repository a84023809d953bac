package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kiosk404/relayn/pkg/utils/json"
)

// Plugin is the wire representation of one plugin instance as the admin API
// returns it.
type Plugin struct {
	Category       string `json:"category"`
	Type           string `json:"type"`
	Instance       int    `json:"instance"`
	RegistrationID string `json:"registrationId"`
	Enabled        bool   `json:"enabled"`
	Status         string `json:"status"`
}

// Client is a thin REST client against the relayn admin API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given server address (host:port).
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ListPlugins fetches every plugin instance.
func (c *Client) ListPlugins(ctx context.Context) ([]Plugin, error) {
	var out struct {
		Data []Plugin `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/plugins", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SetEnabled records an enable request for one instance.
func (c *Client) SetEnabled(ctx context.Context, pluginType string, instance int, enabled bool) error {
	path := fmt.Sprintf("/v1/plugins/%s/%d/enabled", pluginType, instance)
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// SendMessagebox posts a direct message and returns the raw reply payload.
func (c *Client) SendMessagebox(ctx context.Context, channel string, payload interface{}) (json.RawMessage, error) {
	body := map[string]interface{}{"channel": channel, "payload": payload}
	var out struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/messagebox", body, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (code %d)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unreadable response from %s: %w", path, err)
		}
	}
	return nil
}
