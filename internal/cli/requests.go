package cli

import (
	"context"
	"fmt"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/spf13/cobra"
)

// NewRequestsCommand creates the requests command group.
func NewRequestsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request", "req"},
		Short:   "Manage saved requests on the backend",
	}

	cmd.AddCommand(
		newRequestsListCommand(opts),
		newRequestsGetCommand(opts),
		newRequestsSaveCommand(opts),
		newRequestsUpdateCommand(opts),
		newRequestsDeleteCommand(opts),
		newRequestsRunCommand(opts),
	)
	return cmd
}

func newRequestsListCommand(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list COLLECTION_ID",
		Short: "List the requests of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				requests, err := a.Hub().ListRequests(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list requests: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), nonNil(requests))
				}
				out := cmd.OutOrStdout()
				if len(requests) == 0 {
					fmt.Fprintln(out, "No requests")
					return nil
				}
				for _, r := range requests {
					fmt.Fprintf(out, "%s  %-7s %-24s %s\n", r.ID, r.Method, r.Name, r.URL)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newRequestsGetCommand(opts *Options) *cobra.Command {
	var asJSON bool
	var outFile string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a saved request as a draft",
		Long:  "Show a saved request as a YAML draft. With --output the draft is written to a file that send --file and the request screen can open.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				saved, err := a.Hub().GetRequest(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get request: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), saved)
				}

				d, err := hub.DraftFromSaved(saved)
				if err != nil {
					return err
				}
				if outFile != "" {
					if err := filesystem.WriteDraft(outFile, d); err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "Wrote "+outFile)
					return nil
				}
				content, err := filesystem.MarshalDraft(d)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(content)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the stored document as JSON")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the draft to this file")
	return cmd
}

func newRequestsSaveCommand(opts *Options) *cobra.Command {
	draft := &draftFlags{}

	cmd := &cobra.Command{
		Use:   "save COLLECTION_ID [METHOD URL]",
		Short: "Save a request into a collection",
		Long: `Save a request into a collection. The request is built like send builds
it: from --file or --curl, positional METHOD and URL, and the request flags.
Without --name it is named after its method and URL.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := draftFromArgs(draft, args[1:])
			if err != nil {
				return err
			}
			if d.Name == "" {
				d.SetName(string(d.Method) + " " + d.URL)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				r := hub.SavedFromDraft(d)
				r.Collection = args[0]
				saved, err := a.Hub().CreateRequest(ctx, r)
				if err != nil {
					return fmt.Errorf("failed to save request: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved %s (%s)", saved.Name, saved.ID))
				return nil
			})
		},
	}

	draft.register(cmd)
	return cmd
}

func newRequestsUpdateCommand(opts *Options) *cobra.Command {
	draft := &draftFlags{}

	cmd := &cobra.Command{
		Use:   "update ID [METHOD URL]",
		Short: "Update a saved request",
		Long: `Update a saved request. With --file or --curl the stored request is
replaced; otherwise the flags are applied on top of what is stored.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 || len(args) == 3 {
				return nil
			}
			return fmt.Errorf("expected ID, optionally followed by METHOD and URL")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				d, err := draft.base()
				if err != nil {
					return err
				}
				if !draft.hasBase() {
					saved, err := a.Hub().GetRequest(ctx, args[0])
					if err != nil {
						return fmt.Errorf("failed to get request: %w", err)
					}
					if d, err = hub.DraftFromSaved(saved); err != nil {
						return err
					}
				}
				if len(args) == 3 {
					if err := setTarget(d, args[1], args[2]); err != nil {
						return err
					}
				}
				if err := draft.apply(d); err != nil {
					return err
				}

				updated, err := a.Hub().UpdateRequest(ctx, args[0], hub.PatchFrom(hub.SavedFromDraft(d)))
				if err != nil {
					return fmt.Errorf("failed to update request: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "Updated "+updated.Name)
				return nil
			})
		},
	}

	draft.register(cmd)
	return cmd
}

func newRequestsDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if err := a.Hub().DeleteRequest(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete request: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "Deleted request "+args[0])
				return nil
			})
		},
	}
}

func newRequestsRunCommand(opts *Options) *cobra.Command {
	output := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Send a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(output.configure)
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := a.Hub().GetRequest(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get request: %w", err)
			}
			d, err := hub.DraftFromSaved(saved)
			if err != nil {
				return err
			}
			return executeDraft(cmd, a, d, output)
		},
	}

	output.register(cmd)
	return cmd
}

// draftFromArgs builds a draft from the request flags and optional METHOD
// and URL arguments.
func draftFromArgs(draft *draftFlags, args []string) (*core.RequestDraft, error) {
	d, err := draft.base()
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		if !draft.hasBase() {
			return nil, fmt.Errorf("expected METHOD and URL, --file or --curl")
		}
	case 2:
		if err := setTarget(d, args[0], args[1]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected METHOD and URL together")
	}
	if err := draft.apply(d); err != nil {
		return nil, err
	}
	return d, nil
}
