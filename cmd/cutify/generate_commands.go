package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutify/internal/generation"
	"cutify/internal/ipc"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	generateCmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Run AI generation for scripts, storyboards, and scenes",
		Long: "Start a generation on the project service. Without --wait the command\n" +
			"returns once the generation is running; `cutify project show` marks\n" +
			"scenes with work in flight.",
	}
	generateCmd.PersistentFlags().BoolVar(&wait, "wait", false, "Wait for the generation to finish")

	var regenerate bool
	scriptCmd := &cobra.Command{
		Use:   "script <scene-id>",
		Short: "Generate the script for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			kind := generation.KindScript
			if regenerate {
				kind = generation.KindRegenerateScript
			}
			return runGenerate(ctx, cmd, ipc.GenerateRequest{Kind: kind, SceneID: id, Wait: wait})
		},
	}
	scriptCmd.Flags().BoolVar(&regenerate, "regenerate", false, "Replace an existing script")

	storyboardCmd := &cobra.Command{
		Use:   "storyboard <scene-id>",
		Short: "Generate storyboard shots for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			return runGenerate(ctx, cmd, ipc.GenerateRequest{Kind: generation.KindStoryboard, SceneID: id, Wait: wait})
		},
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "Generate scenes for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(ctx, cmd, ipc.GenerateRequest{Kind: generation.KindScenes, Wait: wait})
		},
	}

	generateCmd.AddCommand(scriptCmd, storyboardCmd, scenesCmd)
	return generateCmd
}

func runGenerate(ctx *commandContext, cmd *cobra.Command, req ipc.GenerateRequest) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Generate(req)
		if err != nil {
			return err
		}
		return emit(ctx, cmd, resp, func() error {
			out := cmd.OutOrStdout()
			label := formatStatusLabel(req.Kind)
			switch {
			case !req.Wait:
				fmt.Fprintf(out, "%s started (op %s)\n", label, shortOpID(resp.OpID))
			case resp.Discarded:
				fmt.Fprintf(out, "%s finished but the project changed; result discarded\n", label)
			case req.Kind == generation.KindScenes:
				fmt.Fprintf(out, "%s finished: %d scenes added\n", label, len(resp.Added))
				for _, s := range resp.Added {
					fmt.Fprintf(out, "  %d  %s\n", s.ID, s.Title)
				}
			case resp.Scene != nil && req.Kind == generation.KindStoryboard:
				fmt.Fprintf(out, "%s finished: %d shots for %q\n", label, len(resp.Scene.Shots), resp.Scene.Title)
			case resp.Scene != nil:
				fmt.Fprintf(out, "%s finished for %q\n\n%s\n", label, resp.Scene.Title, resp.Scene.Script)
			default:
				fmt.Fprintf(out, "%s finished\n", label)
			}
			return nil
		})
	})
}
