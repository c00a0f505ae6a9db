package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
	"cutify/internal/model"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:     "scene",
		Aliases: []string{"scenes"},
		Short:   "Add, edit, reorder, and delete scenes of the current project",
	}
	sceneCmd.AddCommand(
		newSceneAddCommand(ctx),
		newSceneEditCommand(ctx),
		newSceneMoveCommand(ctx),
		newSceneDeleteCommand(ctx),
		newSceneToggleCommand(ctx, "character", "Toggle a character's presence in a scene"),
		newSceneToggleCommand(ctx, "location", "Toggle the location a scene is set at"),
	)
	return sceneCmd
}

func newSceneAddCommand(ctx *commandContext) *cobra.Command {
	var summary string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a scene to the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SceneAdd(ipc.SceneAddRequest{Title: args[0], Summary: summary})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Added scene %d %q at position %d\n", resp.Scene.ID, resp.Scene.Title, resp.Scene.SequenceOrder+1)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "Scene summary")
	return cmd
}

func newSceneEditCommand(ctx *commandContext) *cobra.Command {
	var title, summary, script, duration string
	var wait bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit scene text fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			var fields model.SceneFields
			flags := cmd.Flags()
			if flags.Changed("title") {
				fields.Title = model.String(title)
			}
			if flags.Changed("summary") {
				fields.Summary = model.String(summary)
			}
			if flags.Changed("script") {
				fields.Script = model.String(script)
			}
			if flags.Changed("duration") {
				fields.EstimatedDuration = model.String(duration)
			}
			if fields.Empty() {
				return fmt.Errorf("nothing to edit; pass --title, --summary, --script, or --duration")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SceneEdit(ipc.SceneEditRequest{ID: id, Fields: fields, Wait: wait})
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, "Scene edit", resp)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Scene title")
	cmd.Flags().StringVar(&summary, "summary", "", "Scene summary")
	cmd.Flags().StringVar(&script, "script", "", "Scene script")
	cmd.Flags().StringVar(&duration, "duration", "", "Estimated duration")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	return cmd
}

func newSceneMoveCommand(ctx *commandContext) *cobra.Command {
	var to int
	var wait bool
	cmd := &cobra.Command{
		Use:   "move <id> --to N",
		Short: "Move a scene to position N (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			if to < 1 {
				return fmt.Errorf("--to must be a position starting at 1")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SceneMove(ipc.SceneMoveRequest{ID: id, To: to - 1, Wait: wait})
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, "Scene move", resp)
			})
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "Target position (1 is first)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSceneDeleteCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SceneDelete(ipc.SceneDeleteRequest{ID: id, Wait: wait})
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, "Scene delete", resp)
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	return cmd
}

func newSceneToggleCommand(ctx *commandContext, asset, short string) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   asset + " <scene-id> <" + asset + "-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneID, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			assetID, err := parseID(args[1], asset)
			if err != nil {
				return err
			}
			req := ipc.ToggleRequest{SceneID: sceneID, AssetID: assetID, Wait: wait}
			return ctx.withClient(func(client *ipc.Client) error {
				var resp *ipc.OperationResponse
				if asset == "location" {
					resp, err = client.ToggleLocation(req)
				} else {
					resp, err = client.ToggleCharacter(req)
				}
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, formatStatusLabel(asset)+" toggle", resp)
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	return cmd
}
