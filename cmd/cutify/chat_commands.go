package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
)

func newChatCommand(ctx *commandContext) *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the project assistant",
	}

	sendCmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ChatSend(ipc.ChatSendRequest{Content: content})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, resp.Reply.Content)
					if resp.Headless {
						fmt.Fprintln(out, "\n(no project open; run cutify chat concept to create one from this conversation)")
					}
					if resp.Reply.ActionTaken != "" {
						fmt.Fprintf(out, "\n(assistant action: %s; project refreshed)\n", resp.Reply.ActionTaken)
					}
					return nil
				})
			})
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the conversation for the current project or the pending concept",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ChatHistory()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Messages) == 0 {
						fmt.Fprintln(out, "No messages yet")
						return nil
					}
					if resp.Headless {
						fmt.Fprintln(out, "Concept conversation (no project open)")
					}
					for _, m := range resp.Messages {
						fmt.Fprintf(out, "%s: %s\n", formatStatusLabel(m.Role), m.Content)
					}
					return nil
				})
			})
		},
	}

	conceptCmd := &cobra.Command{
		Use:   "concept",
		Short: "Turn the conversation into a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ChatConcept()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s (#%d) from the conversation\n", resp.Project.DisplayTitle(), resp.Project.ID)
					return nil
				})
			})
		},
	}

	chatCmd.AddCommand(sendCmd, historyCmd, conceptCmd)
	return chatCmd
}
