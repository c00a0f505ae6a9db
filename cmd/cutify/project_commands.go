package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cutify/internal/ipc"
	"cutify/internal/model"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "List, open, and edit projects",
	}

	projectCmd.AddCommand(
		newProjectListCommand(ctx),
		newProjectOpenCommand(ctx),
		newProjectCloseCommand(ctx),
		newProjectShowCommand(ctx),
		newProjectCreateCommand(ctx),
		newProjectDeleteCommand(ctx),
		newProjectEditCommand(ctx),
		newProjectRefreshCommand(ctx),
	)
	return projectCmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects visible to the configured token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectList()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Projects) == 0 {
						fmt.Fprintln(out, "No projects found")
						return nil
					}
					fmt.Fprint(out, renderTable(
						[]string{"", "ID", "Title", "Genre", "Status", "Scenes"},
						buildProjectRows(resp.Projects),
						[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
					))
					return nil
				})
			})
		},
	}
}

func newProjectOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Load a project into the daemon's working set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectOpen(ipc.ProjectOpenRequest{ID: id})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Opened %s (#%d, %d scenes)\n", resp.Project.DisplayTitle(), resp.Project.ID, len(resp.Project.Scenes))
					return nil
				})
			})
		},
	}
}

func newProjectCloseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectClose()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					if resp.Closed {
						fmt.Fprintln(cmd.OutOrStdout(), "Project closed")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "No project was open")
					}
					return nil
				})
			})
		},
	}
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current project with its scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectShow()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					renderProject(cmd, resp)
					return nil
				})
			})
		},
	}
}

func renderProject(cmd *cobra.Command, resp *ipc.ProjectShowResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	p := resp.Project

	for _, line := range renderSectionHeader(fmt.Sprintf("%s (#%d)", p.DisplayTitle(), p.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprint(out, renderDetails([][2]string{
		{"Genre", p.Genre},
		{"Status", formatStatusLabel(p.Status)},
		{"Pitch", p.Pitch},
		{"Audience", p.TargetAudience},
		{"Visual Style", p.VisualStyle},
		{"Language", p.Language},
		{"Duration", p.TargetDuration},
		{"Aspect Ratio", p.AspectRatio},
	}))
	if resp.PendingOps > 0 {
		fmt.Fprintln(out, renderStatusLine("Pending", statusWarn, fmt.Sprintf("%d operations awaiting confirmation", resp.PendingOps), colorize))
	}
	fmt.Fprintln(out)

	if len(p.Scenes) == 0 {
		fmt.Fprintln(out, "No scenes yet (try `cutify generate scenes`)")
		return
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "ID", "Title", "Status", "Characters", "Location", "Shots", "Running"},
		buildSceneRows(p, resp.Generations),
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// projectFieldFlags binds the editable project attributes to flags. Only
// flags the user actually set end up in the returned fields.
type projectFieldFlags struct {
	title, genre, pitch, audience, style, language, duration, aspect, status string
}

func (f *projectFieldFlags) bind(flags *pflag.FlagSet, withStatus bool) {
	flags.StringVar(&f.title, "title", "", "Project title")
	flags.StringVar(&f.genre, "genre", "", "Genre")
	flags.StringVar(&f.pitch, "pitch", "", "One-paragraph pitch")
	flags.StringVar(&f.audience, "audience", "", "Target audience")
	flags.StringVar(&f.style, "style", "", "Visual style")
	flags.StringVar(&f.language, "language", "", "Dialogue language")
	flags.StringVar(&f.duration, "duration", "", "Target duration")
	flags.StringVar(&f.aspect, "aspect", "", "Aspect ratio (e.g. 16:9)")
	if withStatus {
		flags.StringVar(&f.status, "status", "", "Project status")
	}
}

func (f *projectFieldFlags) fields(flags *pflag.FlagSet) model.ProjectFields {
	var fields model.ProjectFields
	set := func(name string, dst **string, value string) {
		if flags.Changed(name) {
			*dst = model.String(value)
		}
	}
	set("title", &fields.Title, f.title)
	set("genre", &fields.Genre, f.genre)
	set("pitch", &fields.Pitch, f.pitch)
	set("audience", &fields.TargetAudience, f.audience)
	set("style", &fields.VisualStyle, f.style)
	set("language", &fields.Language, f.language)
	set("duration", &fields.TargetDuration, f.duration)
	set("aspect", &fields.AspectRatio, f.aspect)
	set("status", &fields.Status, f.status)
	return fields
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var flags projectFieldFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project and open it",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := flags.fields(cmd.Flags())
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectCreate(ipc.ProjectCreateRequest{Fields: fields})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s (#%d)\n", resp.Project.DisplayTitle(), resp.Project.ID)
					return nil
				})
			})
		},
	}
	flags.bind(cmd.Flags(), false)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectDelete(ipc.ProjectDeleteRequest{ID: id})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Project %d deleted\n", id)
					return nil
				})
			})
		},
	}
}

func newProjectEditCommand(ctx *commandContext) *cobra.Command {
	var flags projectFieldFlags
	var wait bool
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit attributes of the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := flags.fields(cmd.Flags())
			if fields.Empty() {
				return fmt.Errorf("nothing to edit; pass at least one field flag")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectEdit(ipc.ProjectEditRequest{Fields: fields, Wait: wait})
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, "Project edit", resp)
			})
		},
	}
	flags.bind(cmd.Flags(), true)
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	return cmd
}

func newProjectRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refetch the current project from the project service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectRefresh()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					if resp.Deferred {
						fmt.Fprintln(out, "Refresh deferred: operations are still pending; it will run once they settle")
						return nil
					}
					fmt.Fprintf(out, "Refreshed %s (%d scenes)\n", resp.Project.DisplayTitle(), len(resp.Project.Scenes))
					return nil
				})
			})
		},
	}
}
