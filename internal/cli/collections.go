package cli

import (
	"context"
	"fmt"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/hub"
	"github.com/spf13/cobra"
)

// NewCollectionsCommand creates the collections command group.
func NewCollectionsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections on the backend",
	}

	cmd.AddCommand(
		newCollectionsListCommand(opts),
		newCollectionsCreateCommand(opts),
		newCollectionsRenameCommand(opts),
		newCollectionsDeleteCommand(opts),
	)
	return cmd
}

func newCollectionsListCommand(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				session, err := requireSession(ctx, a)
				if err != nil {
					return err
				}
				collections, err := a.Hub().ListCollections(ctx, session.UserID)
				if err != nil {
					return fmt.Errorf("failed to list collections: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), nonNil(collections))
				}
				printCollections(cmd, collections)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printCollections(cmd *cobra.Command, collections []hub.Collection) {
	out := cmd.OutOrStdout()
	if len(collections) == 0 {
		fmt.Fprintln(out, "No collections")
		return
	}
	for _, c := range collections {
		fmt.Fprintf(out, "%s  %-24s %3d requests", c.ID, c.Name, len(c.Requests))
		if c.Description != "" {
			fmt.Fprintf(out, "  %s", c.Description)
		}
		fmt.Fprintln(out)
	}
}

func newCollectionsCreateCommand(opts *Options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				c, err := a.Hub().CreateCollection(ctx, args[0], description)
				if err != nil {
					return fmt.Errorf("failed to create collection: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created collection %s (%s)", c.Name, c.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newCollectionsRenameCommand(opts *Options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				c, err := a.Hub().RenameCollection(ctx, args[0], args[1], description)
				if err != nil {
					return fmt.Errorf("failed to rename collection: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Renamed collection to %s", c.Name))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newCollectionsDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a collection and all its requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if err := a.Hub().DeleteCollection(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete collection: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "Deleted collection "+args[0])
				return nil
			})
		},
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
