// Package relayn assembles and runs the message-processing hub daemon: the
// plugin hub, its persistent store, and the admin HTTP API.
package relayn

import (
	"fmt"

	"github.com/kiosk404/relayn/internal/relayn/config"
	"github.com/kiosk404/relayn/internal/relayn/options"
	"github.com/kiosk404/relayn/pkg/app"
	"github.com/kiosk404/relayn/pkg/logger"
)

const (
	// AppName is the daemon's canonical name.
	AppName = "relayn"
)

// NewApp builds the relayn daemon application.
func NewApp(basename string) *app.App {
	opts := options.NewOptions()
	application := app.NewApp(AppName,
		basename,
		app.WithOptions(opts),
		app.WithDescription(`The relayn daemon hosts the pluggable message-processing hub.`),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.Options) app.RunFunc {
	return func(basename string) error {
		logPath := fmt.Sprintf("%s.log", basename)
		if err := logger.InitLog(logPath); err != nil {
			return err
		}
		defer logger.FlushLog()

		cfg, err := config.CreateConfigFromOptions(opts)
		if err != nil {
			return err
		}

		return Run(cfg)
	}
}
