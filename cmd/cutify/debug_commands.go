package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
)

func newDebugCommand(ctx *commandContext) *cobra.Command {
	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect the project service",
	}

	var limit int
	var clearLog bool
	aiLogsCmd := &cobra.Command{
		Use:   "ai-logs",
		Short: "List the service's recent AI provider calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AILogs(ipc.AILogsRequest{Limit: limit, Clear: clearLog})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if resp.Cleared {
						fmt.Fprintln(out, renderStatusLine("AI logs", statusOK, "Cleared", shouldColorize(out)))
						return nil
					}
					if len(resp.Logs) == 0 {
						fmt.Fprintln(out, "No AI calls logged")
						return nil
					}
					fmt.Fprint(out, renderTable(
						[]string{"ID", "When", "Service", "Status", "Prompt"},
						buildAILogRows(resp.Logs),
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
					))
					return nil
				})
			})
		},
	}
	aiLogsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	aiLogsCmd.Flags().BoolVar(&clearLog, "clear", false, "Clear the log instead of listing it")

	debugCmd.AddCommand(aiLogsCmd)
	return debugCmd
}
