package relayn

import (
	"github.com/kiosk404/relayn/internal/relayn/config"
)

// Run runs the specified relayn server. This should never exit.
func Run(cfg *config.Config) error {
	server, err := createAPIServer(cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run()
}
