package v1

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"

	"github.com/kiosk404/relayn/internal/pkg/core"
	"github.com/kiosk404/relayn/internal/relayn/service/hub"
	"github.com/kiosk404/relayn/pkg/errorx"
)

// PluginHandler exposes the plugin registry over REST.
type PluginHandler struct {
	hub *hub.Hub
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(h *hub.Hub) *PluginHandler {
	return &PluginHandler{hub: h}
}

// List handles GET /v1/plugins.
func (h *PluginHandler) List(c *gin.Context) {
	views := h.hub.Snapshot(c.Request.Context())

	resp := make([]PluginResponse, 0, len(views))
	for _, v := range views {
		var item PluginResponse
		if err := copier.Copy(&item, &v); err != nil {
			core.WriteResponse(c, errorx.WrapC(err, ErrPluginList, "map plugin view"), nil)
			return
		}
		resp = append(resp, item)
	}
	core.WriteResponse(c, nil, gin.H{"data": resp})
}

// Get handles GET /v1/plugins/:type/:instance.
func (h *PluginHandler) Get(c *gin.Context) {
	pluginType, instance, err := pluginRef(c)
	if err != nil {
		core.WriteResponse(c, err, nil)
		return
	}

	view, err := h.hub.Lookup(c.Request.Context(), pluginType, instance)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrPluginNotFound, "plugin %s:%d not found", pluginType, instance), nil)
		return
	}

	var resp PluginResponse
	if err := copier.Copy(&resp, &view); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrPluginList, "map plugin view"), nil)
		return
	}
	core.WriteResponse(c, nil, resp)
}

// SetEnabled handles PUT /v1/plugins/:type/:instance/enabled. The request is
// recorded as operator intent; the toggle queue applies and acknowledges it
// asynchronously.
func (h *PluginHandler) SetEnabled(c *gin.Context) {
	pluginType, instance, err := pluginRef(c)
	if err != nil {
		core.WriteResponse(c, err, nil)
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind enable request"), nil)
		return
	}

	if err := h.hub.RequestEnable(c.Request.Context(), pluginType, instance, req.Enabled); err != nil {
		if errors.Is(err, hub.ErrUnknownInstance) {
			core.WriteResponse(c, errorx.WrapC(err, ErrPluginNotFound, "plugin %s:%d not found", pluginType, instance), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrEnableRequest, "request enable of %s:%d", pluginType, instance), nil)
		return
	}

	core.WriteResponse(c, nil, SetEnabledResponse{
		RegistrationID: pluginType + ":" + strconv.Itoa(instance),
		Requested:      true,
		Enabled:        req.Enabled,
	})
}

func pluginRef(c *gin.Context) (string, int, error) {
	pluginType := c.Param("type")
	instance, err := strconv.Atoi(c.Param("instance"))
	if err != nil || pluginType == "" || instance < 0 {
		return "", 0, errorx.WithCode(ErrPluginBadRequest,
			"invalid plugin reference %q:%q", c.Param("type"), c.Param("instance"))
	}
	return pluginType, instance, nil
}
