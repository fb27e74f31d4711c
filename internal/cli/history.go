package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse requests sent from this machine",
	}

	cmd.AddCommand(
		newHistoryListCommand(opts),
		newHistoryShowCommand(opts),
		newHistoryClearCommand(opts),
		newHistoryPruneCommand(opts),
	)
	return cmd
}

// withHistory opens the application with history enabled and hands its
// store to fn.
func withHistory(cmd *cobra.Command, opts *Options, fn func(ctx context.Context, store history.Store) error) error {
	a, err := opts.newApp(func(cfg *app.Config) { cfg.History = true })
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(contextOf(cmd), a.History())
}

func newHistoryListCommand(opts *Options) *cobra.Command {
	var query history.QueryOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(ctx context.Context, store history.Store) error {
				entries, err := store.List(ctx, query)
				if err != nil {
					return fmt.Errorf("failed to list history: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), nonNil(entries))
				}
				printEntries(cmd, entries)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&query.Limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	flags.StringVar(&query.Method, "method", "", "Only this method")
	flags.StringVar(&query.URLPattern, "url", "", "Only URLs matching this SQL LIKE pattern (e.g. %/users%)")
	flags.StringVar(&query.Search, "search", "", "Only entries containing this text")
	flags.BoolVar(&query.FailedOnly, "failed", false, "Only requests that got no response")
	flags.BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []history.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history")
		return
	}
	dim := color.New(color.Faint).SprintFunc()
	for _, e := range entries {
		status := statusColor(e.Status).Sprintf("%3d", e.Status)
		if e.Failed() {
			status = color.New(color.FgRed).Sprint("ERR")
		}
		fmt.Fprintf(out, "%s  %s  %s %-7s %s %s\n",
			e.ID, dim(e.Timestamp.Local().Format(time.DateTime)), status, e.Method, e.URL,
			dim(fmt.Sprintf("%dms", e.DurationMs)))
	}
}

func newHistoryShowCommand(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one request and its response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(ctx context.Context, store history.Store) error {
				entry, err := store.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get history entry: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), entry)
				}
				printEntry(cmd, entry)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printEntry(cmd *cobra.Command, e history.Entry) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if e.Name != "" {
		fmt.Fprintln(out, bold(e.Name))
	}
	fmt.Fprintf(out, "%s %s\n", bold(e.Method), e.URL)
	fmt.Fprintf(out, "Sent: %s\n", e.Timestamp.Local().Format(time.DateTime))
	if e.Auth != "" {
		fmt.Fprintf(out, "Auth: %s\n", e.Auth)
	}
	for _, h := range e.RequestHeaders {
		fmt.Fprintf(out, "%s: %s\n", cyan(h.Key), h.Value)
	}
	if e.RequestBody != "" {
		fmt.Fprintf(out, "\n%s\n", e.RequestBody)
	}

	fmt.Fprintln(out)
	if e.Failed() {
		printError(out, e.Error)
		return
	}
	statusText := e.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d", e.Status)
	}
	fmt.Fprintf(out, "%s (%dms, %d bytes)\n", statusColor(e.Status).Sprint(statusText), e.DurationMs, e.Size)
	for _, h := range e.ResponseHeaders {
		fmt.Fprintf(out, "%s: %s\n", cyan(h.Key), h.Value)
	}
	if e.ResponseBody != "" {
		fmt.Fprintf(out, "\n%s\n", e.ResponseBody)
	}
}

func newHistoryClearCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(ctx context.Context, store history.Store) error {
				if err := store.Clear(ctx); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "History cleared")
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(opts *Options) *cobra.Command {
	var prune history.PruneOptions

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prune.OlderThan <= 0 && prune.KeepLast <= 0 {
				return fmt.Errorf("one of --older-than or --keep is required")
			}
			return withHistory(cmd, opts, func(ctx context.Context, store history.Store) error {
				res, err := store.Prune(ctx, prune)
				if err != nil {
					return fmt.Errorf("failed to prune history: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted %d entries", res.DeletedCount))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&prune.OlderThan, "older-than", 0, "Delete entries older than this (e.g. 720h)")
	cmd.Flags().IntVar(&prune.KeepLast, "keep", 0, "Keep only the newest N entries")
	return cmd
}
