package main

import (
	"os"

	"github.com/kiosk404/relayn/internal/relaynctl/cmd"
)

func main() {
	command := cmd.NewDefaultRelaynCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
