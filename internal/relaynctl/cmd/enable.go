package cmd

import (
	"fmt"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

// NewCmdEnable returns a new initialized instance of the 'enable' sub
// command.
func NewCmdEnable() *cobra.Command {
	return newToggleCommand("enable", true, heredoc.Doc(`
			# Enable instance 0 of the IngestDemo plugin
			relaynctl enable IngestDemo 0`))
}

// NewCmdDisable returns a new initialized instance of the 'disable' sub
// command.
func NewCmdDisable() *cobra.Command {
	return newToggleCommand("disable", false, heredoc.Doc(`
			# Disable instance 0 of the IngestDemo plugin
			relaynctl disable IngestDemo 0`))
}

func newToggleCommand(use string, enable bool, example string) *cobra.Command {
	return &cobra.Command{
		Use:                   use + " TYPE INSTANCE",
		DisableFlagsInUseLine: true,
		Short:                 use + " a plugin instance",
		Long:                  "Record an " + use + " request; the daemon applies it asynchronously.",
		Example:               example,
		Args:                  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			CheckErr(runToggle(cmd, args, enable))
		},
	}
}

func runToggle(cmd *cobra.Command, args []string, enable bool) error {
	pluginType := args[0]
	instance, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("instance must be a number, got %q", args[1])
	}

	client := NewClient(ServerAddr())
	if err := client.SetEnabled(cmd.Context(), pluginType, instance, enable); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "requested enabled=%v for %s:%d\n", enable, pluginType, instance)
	return nil
}
