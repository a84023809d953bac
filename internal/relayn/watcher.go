package relayn

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	genericoptions "github.com/kiosk404/relayn/internal/pkg/options"
	"github.com/kiosk404/relayn/internal/relayn/service/hub"
	"github.com/kiosk404/relayn/pkg/logger"
)

// configWatcher re-applies the per-plugin enable intent whenever the
// configuration file changes on disk. Only the plugins section is consulted;
// serving options require a restart.
type configWatcher struct {
	path string
	hub  *hub.Hub

	fw        *fsnotify.Watcher
	closeOnce sync.Once
	done      chan struct{}
}

func newConfigWatcher(path string, h *hub.Hub) (*configWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	return &configWatcher{
		path: path,
		hub:  h,
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

func (w *configWatcher) run() {
	logger.Info("[Relayn] watching configuration file %s", w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("[Relayn] configuration watch error: %v", err)
		}
	}
}

func (w *configWatcher) reload() {
	v := viper.New()
	v.SetConfigFile(w.path)
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("[Relayn] failed to re-read configuration: %v", err)
		return
	}

	opts := genericoptions.NewPluginsOptions()
	if err := v.UnmarshalKey("plugins", opts); err != nil {
		logger.Warn("[Relayn] failed to decode plugins section: %v", err)
		return
	}

	logger.Info("[Relayn] configuration changed, re-applying plugin enable intent")
	applyPluginIntent(context.Background(), w.hub, opts)
}

func (w *configWatcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.fw.Close()
	})
}

// applyPluginIntent turns the per-type enable settings into enable requests.
// Instances already in the requested state are skipped, so a reload is a
// no-op unless something actually changed.
func applyPluginIntent(ctx context.Context, h *hub.Hub, opts *genericoptions.PluginsOptions) {
	if len(opts.Entries) == 0 {
		return
	}

	views := h.Snapshot(ctx)
	for _, view := range views {
		entry, ok := opts.Entries[view.Type]
		if !ok || entry.Enabled == nil {
			continue
		}
		if view.Enabled == *entry.Enabled {
			continue
		}
		if err := h.RequestEnable(ctx, view.Type, view.Instance, *entry.Enabled); err != nil {
			logger.Warn("[Relayn] failed to request enable=%v of %s: %v",
				*entry.Enabled, view.RegistrationID, err)
		}
	}
}
