package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/artpar/httphub/internal/logger"
	"github.com/artpar/httphub/internal/server"
	"github.com/artpar/httphub/internal/server/memstore"
	"github.com/artpar/httphub/internal/server/mongostore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	ConfigPath string
	Addr       string
	InMemory   bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(opts *Options) *cobra.Command {
	serveOpts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the collections backend",
		Long: `Run the backend that stores users, collections and saved requests.

Configuration is read from a YAML file; MONGO_URI, JWT_SECRET and PORT
override it. With --in-memory nothing is persisted and MongoDB is not
needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, serveOpts)
		},
	}

	cmd.Flags().StringVarP(&serveOpts.ConfigPath, "config", "c", "", "Config file (YAML)")
	cmd.Flags().StringVar(&serveOpts.Addr, "addr", "", "Listen address (overrides the config file)")
	cmd.Flags().BoolVar(&serveOpts.InMemory, "in-memory", false, "Keep data in memory instead of MongoDB")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *Options, serveOpts *ServeOptions) error {
	cfg, err := server.LoadConfig(serveOpts.ConfigPath)
	if err != nil {
		return err
	}
	if serveOpts.Addr != "" {
		cfg.Server.Addr = serveOpts.Addr
	}

	log, err := logger.New(cfg.Log.Development || opts.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	store, err := openStore(ctx, cfg, serveOpts.InMemory)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	srv := server.New(cfg, store, server.WithLogger(log))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.ListenAddr())

	<-ctx.Done()
	log.Info("shutting down")
	return srv.Stop()
}

func openStore(ctx context.Context, cfg server.Config, inMemory bool) (server.Store, error) {
	if inMemory {
		return memstore.New(), nil
	}
	store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
