package relayn

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/kiosk404/relayn/internal/relayn/handler/v1"
	"github.com/kiosk404/relayn/internal/relayn/service/hub"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	hub *hub.Hub
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installController(g, deps)
}

func installController(g *gin.Engine, deps *routerDeps) {
	// Handlers.
	pluginHandler := v1.NewPluginHandler(deps.hub)
	messageboxHandler := v1.NewMessageboxHandler(deps.hub)

	// --- /v1 route group ---
	apiV1 := g.Group("/v1")
	{
		// Plugin registry.
		apiV1.GET("/plugins", pluginHandler.List)
		apiV1.GET("/plugins/:type/:instance", pluginHandler.Get)
		apiV1.PUT("/plugins/:type/:instance/enabled", pluginHandler.SetEnabled)

		// Direct control-plane messages.
		apiV1.POST("/messagebox", messageboxHandler.Send)
	}
}
