package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kiosk404/relayn/pkg/utils/json"
)

var sendExample = heredoc.Doc(`
		# Ping the messagebox owner
		relaynctl send --payload '{"command":"ping"}'

		# Run a control-plane action
		relaynctl send --payload '{"command":"action","action":"plugins.list"}'`)

// NewCmdSend returns a new initialized instance of the 'send' sub command.
func NewCmdSend() *cobra.Command {
	var (
		channel string
		payload string
	)

	cmd := &cobra.Command{
		Use:     "send",
		Short:   "Send a direct message to the messagebox owner",
		Long:    "Send a direct control-plane message and print the owner's reply.",
		Example: sendExample,
		Run: func(cmd *cobra.Command, args []string) {
			CheckErr(runSend(cmd, channel, payload))
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel tag of the message.")
	cmd.Flags().StringVar(&payload, "payload", "{}", "JSON payload of the message.")

	return cmd
}

func runSend(cmd *cobra.Command, channel, payload string) error {
	var body interface{}
	if err := json.UnmarshalString(payload, &body); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	client := NewClient(ServerAddr())
	reply, err := client.SendMessagebox(cmd.Context(), channel, body)
	if err != nil {
		return err
	}

	if len(reply) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no reply payload)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(reply))
	return nil
}
