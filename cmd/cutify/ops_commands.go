package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
)

func newOpsCommand(ctx *commandContext) *cobra.Command {
	var projectID int64
	var all bool
	var limit int
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List recent operations from the journal",
		Long: "List recent optimistic operations and generations with their outcome.\n" +
			"Defaults to the current project; pass --all for every project.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				req := ipc.OpsRequest{ProjectID: projectID, Limit: limit}
				if req.ProjectID == 0 && !all {
					status, err := client.Status()
					if err != nil {
						return err
					}
					req.ProjectID = status.Session.ProjectID
				}
				resp, err := client.Ops(req)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Entries) == 0 {
						fmt.Fprintln(out, "No operations recorded")
						return nil
					}
					fmt.Fprint(out, renderTable(
						[]string{"Op", "Project", "Kind", "Targets", "Outcome", "Updated", "Error"},
						buildJournalRows(resp.Entries),
						[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
					))
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Only show operations for this project id")
	cmd.Flags().BoolVar(&all, "all", false, "Show operations for every project")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of entries")
	return cmd
}

func newFailuresCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "failures",
		Short: "List recent failed operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Failures()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Failures) == 0 {
						fmt.Fprintln(out, "No failures recorded")
						return nil
					}
					fmt.Fprint(out, renderTable(
						[]string{"When", "Kind", "Scene", "Message", "Retryable"},
						buildFailureRows(resp.Failures),
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
					))
					for _, f := range resp.Failures {
						if f.Hint != "" {
							fmt.Fprintf(out, "hint (%s): %s\n", formatStatusLabel(f.Kind), f.Hint)
						}
					}
					return nil
				})
			})
		},
	}
}

// reportOperation prints the result of an optimistic mutation. Reverted and
// failed outcomes surface as errors so scripts see a non-zero exit.
func reportOperation(ctx *commandContext, cmd *cobra.Command, what string, resp *ipc.OperationResponse) error {
	if resp == nil {
		return fmt.Errorf("%s: missing response", what)
	}
	if err := emit(ctx, cmd, resp, func() error {
		out := cmd.OutOrStdout()
		if resp.Outcome == "" {
			fmt.Fprintf(out, "%s applied locally (op %s); syncing in background\n", what, shortOpID(resp.OpID))
			return nil
		}
		line := renderStatusLine(what, statusKindFromOutcome(resp.Outcome), formatStatusLabel(resp.Outcome), shouldColorize(out))
		fmt.Fprintln(out, line)
		return nil
	}); err != nil {
		return err
	}
	switch resp.Outcome {
	case "reverted", "failed":
		return fmt.Errorf("%s %s: %s", what, resp.Outcome, resp.Error)
	}
	return nil
}
