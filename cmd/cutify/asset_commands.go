package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutify/internal/ipc"
	"cutify/internal/workspace"
)

func newAssetCommand(ctx *commandContext) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:     "asset",
		Aliases: []string{"assets"},
		Short:   "Manage characters and locations of the current project",
	}
	assetCmd.AddCommand(
		newAssetListCommand(ctx),
		newAssetCreateCommand(ctx),
		newAssetUpdateCommand(ctx),
		newAssetDeleteCommand(ctx),
		newAssetImageCommand(ctx),
	)
	return assetCmd
}

func parseAssetType(arg string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case workspace.AssetCharacter, "characters":
		return workspace.AssetCharacter, nil
	case workspace.AssetLocation, "locations":
		return workspace.AssetLocation, nil
	default:
		return "", fmt.Errorf("unknown asset type %q (expected character or location)", arg)
	}
}

func newAssetListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List characters and locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AssetList()
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					out := cmd.OutOrStdout()
					colorize := shouldColorize(out)
					for _, line := range renderSectionHeader("Characters", colorize) {
						fmt.Fprintln(out, line)
					}
					if len(resp.Characters) == 0 {
						fmt.Fprintln(out, "None")
					} else {
						fmt.Fprint(out, renderTable([]string{"ID", "Name", "Traits", "Image"}, buildCharacterRows(resp.Characters),
							[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
					}
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader("Locations", colorize) {
						fmt.Fprintln(out, line)
					}
					if len(resp.Locations) == 0 {
						fmt.Fprintln(out, "None")
					} else {
						fmt.Fprint(out, renderTable([]string{"ID", "Name", "Ambiance", "Image"}, buildLocationRows(resp.Locations),
							[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
					}
					return nil
				})
			})
		},
	}
}

type assetFlags struct {
	name, description, detail, image string
}

func (f *assetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Asset name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.detail, "detail", "", "Character traits or location ambiance")
	cmd.Flags().StringVar(&f.image, "image-url", "", "Reference image URL")
}

func newAssetCreateCommand(ctx *commandContext) *cobra.Command {
	var flags assetFlags
	cmd := &cobra.Command{
		Use:   "create <character|location>",
		Short: "Create a character or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType, err := parseAssetType(args[0])
			if err != nil {
				return err
			}
			req := ipc.AssetRequest{
				Type:        assetType,
				Name:        flags.name,
				Description: flags.description,
				Detail:      flags.detail,
				ImageURL:    flags.image,
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AssetCreate(req)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					printAsset(cmd, "Created", resp)
					return nil
				})
			})
		},
	}
	flags.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// The service replaces the whole asset on update, so unchanged attributes
// are carried over from the current project.
func newAssetUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags assetFlags
	cmd := &cobra.Command{
		Use:   "update <character|location> <id>",
		Short: "Update a character or location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType, err := parseAssetType(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1], assetType)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.AssetList()
				if err != nil {
					return err
				}
				req, err := mergeAssetUpdate(current, assetType, id, flags, cmd)
				if err != nil {
					return err
				}
				resp, err := client.AssetUpdate(req)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					printAsset(cmd, "Updated", resp)
					return nil
				})
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func mergeAssetUpdate(current *ipc.AssetListResponse, assetType string, id int64, flags assetFlags, cmd *cobra.Command) (ipc.AssetRequest, error) {
	req := ipc.AssetRequest{Type: assetType, ID: id}
	found := false
	if assetType == workspace.AssetCharacter {
		for _, c := range current.Characters {
			if c.ID == id {
				req.Name, req.Description, req.Detail, req.ImageURL = c.Name, c.Description, c.Traits, c.ImageURL
				found = true
			}
		}
	} else {
		for _, l := range current.Locations {
			if l.ID == id {
				req.Name, req.Description, req.Detail, req.ImageURL = l.Name, l.Description, l.Ambiance, l.ImageURL
				found = true
			}
		}
	}
	if !found {
		return req, fmt.Errorf("%s %d not found in the current project", assetType, id)
	}
	changed := cmd.Flags().Changed
	if changed("name") {
		req.Name = flags.name
	}
	if changed("description") {
		req.Description = flags.description
	}
	if changed("detail") {
		req.Detail = flags.detail
	}
	if changed("image-url") {
		req.ImageURL = flags.image
	}
	return req, nil
}

func printAsset(cmd *cobra.Command, verb string, resp *ipc.AssetResponse) {
	out := cmd.OutOrStdout()
	switch {
	case resp.Character != nil:
		fmt.Fprintf(out, "%s character %d %q\n", verb, resp.Character.ID, resp.Character.Name)
	case resp.Location != nil:
		fmt.Fprintf(out, "%s location %d %q\n", verb, resp.Location.ID, resp.Location.Name)
	}
}

func newAssetDeleteCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "delete <character|location> <id>",
		Short: "Delete a character or location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType, err := parseAssetType(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1], assetType)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AssetDelete(ipc.AssetDeleteRequest{Type: assetType, ID: id, Wait: wait})
				if err != nil {
					return err
				}
				return reportOperation(ctx, cmd, formatStatusLabel(assetType)+" delete", resp)
			})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the project service confirms the change")
	return cmd
}

func newAssetImageCommand(ctx *commandContext) *cobra.Command {
	var name, style string
	cmd := &cobra.Command{
		Use:   "image <character|location> <prompt>",
		Short: "Generate a reference image for an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetType, err := parseAssetType(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AssetImage(ipc.AssetImageRequest{Type: assetType, Name: name, Prompt: args[1], Style: style})
				if err != nil {
					return err
				}
				return emit(ctx, cmd, resp, func() error {
					fmt.Fprintln(cmd.OutOrStdout(), resp.URL)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Asset name used for the image file")
	cmd.Flags().StringVar(&style, "style", "", "Visual style hint")
	return cmd
}
