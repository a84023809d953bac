// Package cmd builds the relaynctl command tree: an operator CLI against
// the relayn admin API.
package cmd

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewDefaultRelaynCtlCommand creates the `relaynctl` command with default
// arguments.
func NewDefaultRelaynCtlCommand() *cobra.Command {
	cmds := &cobra.Command{
		Use:   "relaynctl",
		Short: "relaynctl manages plugin instances of a running relayn daemon",
		Long: heredoc.Doc(`
			relaynctl is the CLI tool for operating a running relayn daemon.

			It lists the plugin registry, requests enabling or disabling of
			plugin instances, and sends direct messages to the current
			messagebox owner.`),
		Run: runHelp,
		Example: heredoc.Doc(`
			# List every plugin instance
			relaynctl list

			# Enable instance 0 of the IngestDemo plugin
			relaynctl enable IngestDemo 0

			# Ask the messagebox owner for a ping
			relaynctl send --payload '{"command":"ping"}'`),
		SilenceUsage: true,
	}

	addGlobalFlags(cmds.PersistentFlags())

	cmds.AddCommand(NewCmdList())
	cmds.AddCommand(NewCmdEnable())
	cmds.AddCommand(NewCmdDisable())
	cmds.AddCommand(NewCmdSend())

	return cmds
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}

// CheckErr prints the error in red and exits non-zero.
func CheckErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
	os.Exit(1)
}
