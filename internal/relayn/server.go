package relayn

import (
	"context"
	"fmt"
	"log"

	"github.com/kiosk404/relayn/internal/relayn/config"
	genericoptions "github.com/kiosk404/relayn/internal/pkg/options"
	genericapiserver "github.com/kiosk404/relayn/internal/pkg/server"
	"github.com/kiosk404/relayn/internal/relayn/service/hub"
	"github.com/kiosk404/relayn/internal/relayn/service/plugin/builtin"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore"
	boltstore "github.com/kiosk404/relayn/internal/relayn/service/statestore/boltdb"
	"github.com/kiosk404/relayn/internal/relayn/service/statestore/inmemory"
	"github.com/kiosk404/relayn/pkg/app"
	"github.com/kiosk404/relayn/pkg/http/shutdown"
	"github.com/kiosk404/relayn/pkg/http/shutdown/posixsignal"
	"github.com/kiosk404/relayn/pkg/logger"
	"github.com/kiosk404/relayn/pkg/utils/json"
)

type apiServer struct {
	gs               *shutdown.GracefulShutdown
	genericAPIServer *genericapiserver.GenericAPIServer

	store   statestore.Store
	hub     *hub.Hub
	watcher *configWatcher

	pluginsEnabled bool
	pluginOptions  *genericoptions.PluginsOptions
}

type preparedAPIServer struct {
	*apiServer
}

func createAPIServer(cfg *config.Config) (*apiServer, error) {
	gs := shutdown.New()
	gs.AddShutdownManager(posixsignal.NewPosixSignalManager())

	genericConfig, err := buildGenericConfig(cfg)
	if err != nil {
		return nil, err
	}
	genericServer, err := genericConfig.Complete().New()
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	server := &apiServer{
		gs:               gs,
		genericAPIServer: genericServer,
		store:            store,
		pluginsEnabled:   cfg.PluginOptions.Enabled,
		pluginOptions:    cfg.PluginOptions,
	}

	// Initialize the plugin hub (K8S-style: Config → Complete → New).
	hubCfg := &hub.Config{
		Store:               store,
		Catalog:             builtin.Catalog(),
		Instances:           cfg.PluginOptions.InstanceCounts(),
		JanitorInterval:     cfg.JanitorOptions.Interval,
		JanitorStartupDelay: cfg.JanitorOptions.StartupDelay,
		ToggleQueueSize:     cfg.PluginOptions.ToggleQueueSize,
		ActionExecutor:      server.executeAction,
		AfterAction: func(action string) {
			logger.Debug("[Relayn] action %q completed", action)
		},
	}
	completedHubCfg, err := hubCfg.Complete()
	if err != nil {
		return nil, fmt.Errorf("failed to configure hub: %w", err)
	}
	server.hub = completedHubCfg.New()

	if err := server.hub.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize hub: %w", err)
	}
	logger.Info("[Relayn] hub initialized successfully")

	return server, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	initRouter(s.genericAPIServer.Engine, &routerDeps{hub: s.hub})

	if s.pluginsEnabled {
		s.hub.RegisterEnabled(context.Background())
		applyPluginIntent(context.Background(), s.hub, s.pluginOptions)
	} else {
		logger.Info("[Relayn] plugin hub disabled (plugins.enabled=false), skipping plugin startup")
	}

	if path := app.ConfigFileUsed(); path != "" {
		watcher, err := newConfigWatcher(path, s.hub)
		if err != nil {
			logger.Warn("[Relayn] configuration watch disabled: %v", err)
		} else {
			s.watcher = watcher
			go s.watcher.run()
		}
	}

	s.gs.AddShutdownCallback(shutdown.Func(func(string) error {
		if s.watcher != nil {
			s.watcher.Close()
		}
		if s.hub != nil {
			s.hub.Dispose(context.Background())
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				logger.Warn("[Relayn] failed to close store: %v", err)
			}
		}
		s.genericAPIServer.Close()
		return nil
	}))
	return preparedAPIServer{s}
}

func (s preparedAPIServer) Run() error {
	// start shutdown managers
	if err := s.gs.Start(); err != nil {
		log.Fatalf("start shutdown manager failed: %s", err.Error())
	}

	return s.genericAPIServer.Run()
}

// executeAction implements the control-plane actions available to engage
// plugins.
func (s *apiServer) executeAction(ctx context.Context, action string, payload json.RawMessage) (json.RawMessage, error) {
	switch action {
	case "echo":
		if len(payload) == 0 {
			return json.RawMessage(`null`), nil
		}
		return payload, nil
	case "plugins.list":
		data, err := json.Marshal(s.hub.Snapshot(ctx))
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", hub.ErrUnknownAction, action)
	}
}

func buildGenericConfig(cfg *config.Config) (genericConfig *genericapiserver.Config, lastErr error) {
	genericConfig = genericapiserver.NewConfig()
	if lastErr = cfg.Options.ApplyTo(genericConfig); lastErr != nil {
		return
	}
	return
}

func buildStore(cfg *config.Config) (statestore.Store, error) {
	switch cfg.StoreOptions.Backend {
	case genericoptions.StoreBackendBoltDB:
		store, err := boltstore.Open(cfg.StoreOptions.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb store at %q: %w", cfg.StoreOptions.Path, err)
		}
		logger.Info("[Relayn] using boltdb store at %s", cfg.StoreOptions.Path)
		return store, nil
	case genericoptions.StoreBackendInMemory:
		logger.Info("[Relayn] using in-memory store, nothing will survive a restart")
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreOptions.Backend)
	}
}
