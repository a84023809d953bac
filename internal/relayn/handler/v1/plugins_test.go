package v1

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/relayn/internal/relayn/service/hub"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore/inmemory"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

type inertHandler struct{}

func (inertHandler) HandleMessage(c *plugin.Context, msg *plugin.Message) error { return nil }

type echoEngage struct{}

func (echoEngage) Start(c *plugin.Context) error {
	return c.Meta.Messagebox.Register(func(ctx context.Context, msg *plugin.Message) (*plugin.Message, error) {
		return plugin.NewMessage(msg.Channel, msg.Payload), nil
	})
}

func (echoEngage) Stop(c *plugin.Context) error {
	c.Meta.Messagebox.Unregister()
	return nil
}

func newTestRouter(t *testing.T, catalog *plugin.Catalog) (*gin.Engine, *hub.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := inmemory.NewStore()
	cfg := &hub.Config{
		Store:               store,
		Catalog:             catalog,
		JanitorStartupDelay: time.Hour,
	}
	completed, err := cfg.Complete()
	require.NoError(t, err)
	h := completed.New()
	require.NoError(t, h.Initialize(context.Background()))
	t.Cleanup(func() {
		h.Dispose(context.Background())
		store.Close()
	})

	pluginHandler := NewPluginHandler(h)
	messageboxHandler := NewMessageboxHandler(h)

	g := gin.New()
	apiV1 := g.Group("/v1")
	apiV1.GET("/plugins", pluginHandler.List)
	apiV1.GET("/plugins/:type/:instance", pluginHandler.Get)
	apiV1.PUT("/plugins/:type/:instance/enabled", pluginHandler.SetEnabled)
	apiV1.POST("/messagebox", messageboxHandler.Send)
	return g, h
}

func demoCatalog(t *testing.T) *plugin.Catalog {
	t.Helper()
	catalog := plugin.NewCatalog()
	catalog.MustRegister(plugin.Descriptor{
		Category:       plugin.CategoryIngest,
		Type:           "Demo",
		DefaultEnabled: true,
		Factory: func(json.RawMessage) (plugin.Handler, error) {
			return inertHandler{}, nil
		},
	})
	return catalog
}

func perform(g *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestListPlugins(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodGet, "/v1/plugins", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []PluginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ingest", body.Data[0].Category)
	assert.Equal(t, "Demo", body.Data[0].Type)
	assert.Equal(t, "Demo:0", body.Data[0].RegistrationID)
	assert.True(t, body.Data[0].Enabled)
	assert.Equal(t, "stopped", body.Data[0].Status)
}

func TestGetPlugin(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodGet, "/v1/plugins/Demo/0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PluginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Demo:0", resp.RegistrationID)
}

func TestGetPluginNotFound(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodGet, "/v1/plugins/Missing/0", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrPluginNotFound, resp.Code)
}

func TestGetPluginBadReference(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodGet, "/v1/plugins/Demo/zero", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrPluginBadRequest, resp.Code)
}

func TestSetEnabledRecordsIntent(t *testing.T) {
	g, h := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodPut, "/v1/plugins/Demo/0/enabled", []byte(`{"enabled":true}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SetEnabledResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Demo:0", resp.RegistrationID)
	assert.True(t, resp.Requested)
	assert.True(t, resp.Enabled)

	// The intent is applied asynchronously by the toggle worker.
	require.Eventually(t, func() bool {
		v, err := h.Lookup(context.Background(), "Demo", 0)
		return err == nil && v.Status == hub.StatusRunning
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetEnabledUnknownPlugin(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodPut, "/v1/plugins/Missing/0/enabled", []byte(`{"enabled":true}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetEnabledBadBody(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodPut, "/v1/plugins/Demo/0/enabled", []byte(`{"enabled":`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrBind, resp.Code)
}

func TestMessageboxVacant(t *testing.T) {
	g, _ := newTestRouter(t, demoCatalog(t))

	w := perform(g, http.MethodPost, "/v1/messagebox", []byte(`{"channel":"ctl","payload":{"q":"ping"}}`))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrMessageboxVacant, resp.Code)
}

func TestMessageboxRoundTrip(t *testing.T) {
	catalog := plugin.NewCatalog()
	catalog.MustRegister(plugin.Descriptor{
		Category:       plugin.CategoryEngage,
		Type:           "Echo",
		DefaultEnabled: true,
		Factory: func(json.RawMessage) (plugin.Handler, error) {
			return echoEngage{}, nil
		},
	})

	g, h := newTestRouter(t, catalog)
	h.RegisterEnabled(context.Background())

	w := perform(g, http.MethodPost, "/v1/messagebox", []byte(`{"channel":"ctl","payload":{"q":"ping"}}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageboxResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ctl", resp.Channel)
	assert.NotEmpty(t, resp.ID)
	payload, ok := resp.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ping", payload["q"])
}
