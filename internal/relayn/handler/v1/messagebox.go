package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kiosk404/relayn/internal/pkg/core"
	"github.com/kiosk404/relayn/internal/relayn/service/hub"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin"
	"github.com/kiosk404/relayn/pkg/errorx"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

// MessageboxHandler routes direct control-plane messages to the current
// messagebox owner.
type MessageboxHandler struct {
	hub *hub.Hub
}

// NewMessageboxHandler creates a new MessageboxHandler.
func NewMessageboxHandler(h *hub.Hub) *MessageboxHandler {
	return &MessageboxHandler{hub: h}
}

// Send handles POST /v1/messagebox.
func (h *MessageboxHandler) Send(c *gin.Context) {
	var req MessageboxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind messagebox request"), nil)
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrValidation, "encode messagebox payload"), nil)
		return
	}

	msg := plugin.NewMessage(req.Channel, payload)
	reply, err := h.hub.DispatchMessagebox(c.Request.Context(), msg)
	if err != nil {
		if errors.Is(err, hub.ErrNoMessageboxHandler) {
			core.WriteResponse(c, errorx.WrapC(err, ErrMessageboxVacant, "dispatch message"), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrMessageboxDispatch, "dispatch message"), nil)
		return
	}

	resp := MessageboxResponse{}
	if reply != nil {
		resp.ID = reply.ID
		resp.Channel = reply.Channel
		if len(reply.Payload) > 0 {
			var body interface{}
			if err := json.Unmarshal(reply.Payload, &body); err == nil {
				resp.Payload = body
			}
		}
	}
	core.WriteResponse(c, nil, resp)
}
