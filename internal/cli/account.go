package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/spf13/cobra"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(opts *Options) *cobra.Command {
	var creds hub.Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backend and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Hub().Register(ctx, creds)
				if err != nil {
					return fmt.Errorf("failed to register: %w", err)
				}
				return saveLogin(ctx, cmd, a, res)
			})
		},
	}

	cmd.Flags().StringVar(&creds.Name, "name", "", "User name")
	cmd.Flags().StringVar(&creds.OrgName, "org", "", "Organization name")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *Options) *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in by user or organization name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Hub().Login(ctx, name, password)
				if err != nil {
					return fmt.Errorf("failed to log in: %w", err)
				}
				return saveLogin(ctx, cmd, a, res)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "User or organization name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if err := a.Logout(ctx); err != nil {
					return fmt.Errorf("failed to log out: %w", err)
				}
				printSuccess(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				session, err := requireSession(ctx, a)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name:   %s\n", session.Name)
				fmt.Fprintf(out, "Org:    %s\n", session.OrgName)
				fmt.Fprintf(out, "ID:     %s\n", session.UserID)
				fmt.Fprintf(out, "Server: %s\n", session.ServerURL)
				return nil
			})
		},
	}
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your account",
	}

	var creds hub.Credentials
	edit := &cobra.Command{
		Use:   "edit",
		Short: "Change name, organization or password",
		Long:  "Change name, organization or password. Name and organization keep their current values when not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				session, err := requireSession(ctx, a)
				if err != nil {
					return err
				}
				update := creds
				if update.Name == "" {
					update.Name = session.Name
				}
				if update.OrgName == "" {
					update.OrgName = session.OrgName
				}
				res, err := a.Hub().EditProfile(ctx, update)
				if err != nil {
					return fmt.Errorf("failed to edit profile: %w", err)
				}
				return saveLogin(ctx, cmd, a, res)
			})
		},
	}
	edit.Flags().StringVar(&creds.Name, "name", "", "New user name")
	edit.Flags().StringVar(&creds.OrgName, "org", "", "New organization name")
	edit.Flags().StringVar(&creds.Password, "password", "", "New password")

	cmd.AddCommand(edit)
	return cmd
}

// withApp opens the application for one backend command and closes it
// afterwards. History is not opened.
func withApp(cmd *cobra.Command, opts *Options, fn func(ctx context.Context, a *app.App) error) error {
	a, err := opts.newApp(func(cfg *app.Config) { cfg.History = false })
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(contextOf(cmd), a)
}

// requireSession returns the saved login or hub.ErrNotAuthenticated.
func requireSession(ctx context.Context, a *app.App) (*filesystem.Session, error) {
	session, err := a.Session(ctx)
	if errors.Is(err, filesystem.ErrNoSession) {
		return nil, fmt.Errorf("%w: run 'httphub login' first", hub.ErrNotAuthenticated)
	}
	return session, err
}

func saveLogin(ctx context.Context, cmd *cobra.Command, a *app.App, res hub.AuthResult) error {
	if err := a.SaveLogin(ctx, res); err != nil {
		return fmt.Errorf("failed to save login: %w", err)
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s (%s as %s)", res.Message, res.User.Name, res.User.OrgName))
	return nil
}
