package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test ntfy notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				return emit(ctx, cmd, resp, func() error {
					kind := statusWarn
					if resp.Sent {
						kind = statusOK
					}
					colorize := shouldColorize(cmd.OutOrStdout())
					fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Notifications", kind, resp.Message, colorize))
					if !resp.Sent {
						fmt.Fprintln(cmd.OutOrStdout(), "Set notifications.ntfy_topic in config.toml to enable alerts.")
					}
					return nil
				})
			})
		},
	}
}
