package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var listExample = heredoc.Doc(`
		# List every plugin instance with its status
		relaynctl list`)

// NewCmdList returns a new initialized instance of the 'list' sub command.
func NewCmdList() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Aliases:               []string{"ls"},
		Short:                 "List plugin instances",
		Long:                  "List every plugin instance with its enable flag and lifecycle status.",
		Example:               listExample,
		Run: func(cmd *cobra.Command, args []string) {
			CheckErr(runList(cmd))
		},
	}
	return cmd
}

func runList(cmd *cobra.Command) error {
	client := NewClient(ServerAddr())
	plugins, err := client.ListPlugins(cmd.Context())
	if err != nil {
		return err
	}

	table := uitable.New()
	table.AddRow("CATEGORY", "TYPE", "INSTANCE", "ENABLED", "STATUS")
	for _, p := range plugins {
		table.AddRow(p.Category, p.Type, p.Instance, p.Enabled, colorStatus(p.Status))
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func colorStatus(status string) string {
	switch status {
	case "running":
		return color.GreenString(status)
	case "error":
		return color.RedString(status)
	case "starting", "stopping":
		return color.YellowString(status)
	default:
		return status
	}
}
