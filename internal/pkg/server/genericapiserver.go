// Package server wraps gin into a generic HTTP API server with the standard
// middleware set, a health endpoint, and graceful close.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kiosk404/relayn/pkg/logger"
)

// GenericAPIServer contains state for the relayn api server.
type GenericAPIServer struct {
	*gin.Engine

	// InsecureServingInfo holds configuration of the insecure HTTP server.
	InsecureServingInfo *InsecureServingInfo

	healthz        bool
	middlewares    []string
	insecureServer *http.Server
}

func initGenericAPIServer(s *GenericAPIServer) {
	s.Setup()
	s.InstallMiddlewares()
	s.InstallAPIs()
}

// Setup does some setup work for gin engine.
func (s *GenericAPIServer) Setup() {
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		logger.Debug("%-6s %-s --> %s (%d handlers)", httpMethod, absolutePath, handlerName, nuHandlers)
	}
}

// InstallMiddlewares install generic middlewares.
func (s *GenericAPIServer) InstallMiddlewares() {
	s.Use(gin.Recovery())
	for _, m := range s.middlewares {
		mw, ok := Middlewares[m]
		if !ok {
			logger.Warn("can not find middleware: %s", m)
			continue
		}
		logger.Info("install middleware: %s", m)
		s.Use(mw)
	}
}

// InstallAPIs install generic apis.
func (s *GenericAPIServer) InstallAPIs() {
	if s.healthz {
		s.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

// Run spawns the http server. It only returns when the server stops.
func (s *GenericAPIServer) Run() error {
	s.insecureServer = &http.Server{
		Addr:    s.InsecureServingInfo.Address,
		Handler: s,
	}

	logger.Info("Start to listening the incoming requests on http address: %s", s.InsecureServingInfo.Address)
	if err := s.insecureServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve on %s: %w", s.InsecureServingInfo.Address, err)
	}

	logger.Info("Server on %s stopped", s.InsecureServingInfo.Address)
	return nil
}

// Close graceful shutdown the api server.
func (s *GenericAPIServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.insecureServer == nil {
		return
	}
	if err := s.insecureServer.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown insecure server failed: %v", err)
	}
}
