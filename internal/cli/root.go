package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/artpar/httphub/internal/app"
	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/logger"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/artpar/httphub/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Options holds the flags shared by every command.
type Options struct {
	DataDir   string
	ServerURL string
	Verbose   bool
}

// newApp builds the application from the shared flags. Per-command
// settings are applied to cfg by configure.
func (o *Options) newApp(configure func(*app.Config)) (*app.App, error) {
	cfg := app.DefaultConfig()
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.ServerURL != "" {
		cfg.ServerURL = o.ServerURL
	}
	if configure != nil {
		configure(&cfg)
	}

	log, err := o.logger()
	if err != nil {
		return nil, err
	}
	return app.New(app.WithConfig(cfg), app.WithLogger(log))
}

func (o *Options) logger() (*zap.Logger, error) {
	if !o.Verbose {
		return logger.Nop(), nil
	}
	log, err := logger.New(true)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}
	var draftFile string

	cmd := &cobra.Command{
		Use:           "httphub",
		Short:         "httphub - a personal API testing tool",
		Long:          "httphub composes HTTP requests, sends them and shows the response, from a terminal screen or the command line.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts, draftFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "Data directory (default: ~/.config/httphub)")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "Backend address (default: $"+app.ServerURLEnv+" or "+app.DefaultServerURL+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log to stderr")
	cmd.Flags().StringVarP(&draftFile, "file", "f", "", "Draft file to open; ctrl+w writes it back")

	cmd.AddCommand(
		NewSendCommand(opts),
		NewServeCommand(opts),
		NewRegisterCommand(opts),
		NewLoginCommand(opts),
		NewLogoutCommand(opts),
		NewWhoamiCommand(opts),
		NewProfileCommand(opts),
		NewCollectionsCommand(opts),
		NewRequestsCommand(opts),
		NewHistoryCommand(opts),
	)

	return cmd
}

// tuiModel wraps the RequestView for bubbletea.
type tuiModel struct {
	view *views.RequestView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.RequestView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// newTUIModel opens the request screen, starting from the draft in path when
// it exists.
func newTUIModel(ctx context.Context, application *app.App, path string) (tuiModel, error) {
	opts := []views.Option{views.WithContext(ctx)}
	if path != "" {
		d, err := filesystem.ReadDraft(path)
		switch {
		case err == nil:
			opts = append(opts, views.WithDraft(d))
		case errors.Is(err, fs.ErrNotExist):
			opts = append(opts, views.WithDraft(core.NewDraft()))
		default:
			return tuiModel{}, err
		}
		opts = append(opts, views.WithDraftFile(path))
	}
	return tuiModel{view: views.NewRequestView(application.NewSession(), opts...)}, nil
}

// runTUI starts the TUI application.
func runTUI(ctx context.Context, opts *Options, draftFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	application, err := opts.newApp(nil)
	if err != nil {
		return err
	}
	defer application.Close()

	model, err := newTUIModel(ctx, application, draftFile)
	if err != nil {
		return err
	}

	start := time.Now()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	application.Logger().Debug("tui closed", zap.Duration("session", time.Since(start)))
	return nil
}
