package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artpar/httphub/internal/executor"
	"github.com/artpar/httphub/internal/history"
	"github.com/artpar/httphub/internal/history/sqlite"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/interfaces"
	httpclient "github.com/artpar/httphub/internal/protocol/http"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"go.uber.org/zap"
)

// DefaultServerURL is the backend used when nothing else is configured.
const DefaultServerURL = "http://localhost:3000"

// ServerURLEnv overrides the backend address.
const ServerURLEnv = "HTTPHUB_SERVER"

// Config holds application configuration.
type Config struct {
	DataDir         string
	ServerURL       string
	Timeout         time.Duration
	History         bool
	FollowRedirects bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	serverURL := os.Getenv(ServerURLEnv)
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return Config{
		DataDir:         filepath.Join(configDir, "httphub"),
		ServerURL:       serverURL,
		Timeout:         executor.DefaultTimeout,
		History:         true,
		FollowRedirects: true,
	}
}

// App is the main application container with dependency injection.
type App struct {
	config    Config
	logger    *zap.Logger
	requester interfaces.Requester
	history   history.Store
	sessions  *filesystem.SessionStore
	executor  *executor.Executor
	hub       *hub.Client
}

// Option is a function that configures the App.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRequester replaces the HTTP transport.
func WithRequester(r interfaces.Requester) Option {
	return func(a *App) {
		a.requester = r
	}
}

// WithHistoryStore supplies the history store instead of opening one in the
// data directory.
func WithHistoryStore(store history.Store) Option {
	return func(a *App) {
		a.history = store
	}
}

// New creates the application. The session file, if any, provides the hub
// token and, when it names one, the backend address.
func New(opts ...Option) (*App, error) {
	a := &App{
		config: DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	sessions, err := filesystem.NewSessionStore(a.config.DataDir)
	if err != nil {
		return nil, err
	}
	a.sessions = sessions

	if a.requester == nil {
		a.requester, err = newRequester(a.config)
		if err != nil {
			return nil, err
		}
	}

	if a.history == nil && a.config.History {
		store, err := sqlite.New(filepath.Join(a.config.DataDir, "history.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.history = store
	}

	execOpts := []executor.Option{
		executor.WithRequester(a.requester),
		executor.WithTimeout(a.config.Timeout),
		executor.WithLogger(a.logger),
	}
	if a.history != nil && a.config.History {
		execOpts = append(execOpts, executor.WithRecorder(history.NewRecorder(a.history)))
	}
	a.executor = executor.New(execOpts...)

	a.hub = hub.NewClient(a.config.ServerURL)
	if session, err := sessions.Load(context.Background()); err == nil {
		if session.ServerURL == "" || session.ServerURL == a.hub.BaseURL() {
			a.hub.SetToken(session.Token)
		}
	} else if !errors.Is(err, filesystem.ErrNoSession) {
		a.logger.Warn("ignoring unreadable session", zap.Error(err))
	}

	return a, nil
}

func newRequester(cfg Config) (interfaces.Requester, error) {
	jar, err := httpclient.NewCookieJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	opts := []httpclient.Option{httpclient.WithCookieJar(jar)}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}
	if !cfg.FollowRedirects {
		opts = append(opts, httpclient.WithNoRedirects())
	}
	return httpclient.NewClient(opts...), nil
}

// Config returns the application configuration.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Executor returns the request executor.
func (a *App) Executor() *executor.Executor {
	return a.executor
}

// NewSession returns a fresh response session for one screen.
func (a *App) NewSession() *executor.Session {
	return executor.NewSession(a.executor)
}

// History returns the history store, or nil when history is disabled.
func (a *App) History() history.Store {
	return a.history
}

// Hub returns the backend client.
func (a *App) Hub() *hub.Client {
	return a.hub
}

// Session returns the saved login, or filesystem.ErrNoSession.
func (a *App) Session(ctx context.Context) (*filesystem.Session, error) {
	return a.sessions.Load(ctx)
}

// SaveLogin persists the result of register, login or profile edit.
func (a *App) SaveLogin(ctx context.Context, res hub.AuthResult) error {
	a.hub.SetToken(res.Token)
	return a.sessions.Save(ctx, &filesystem.Session{
		ServerURL: a.hub.BaseURL(),
		Token:     res.Token,
		UserID:    res.User.ID,
		Name:      res.User.Name,
		OrgName:   res.User.OrgName,
	})
}

// Logout forgets the saved login.
func (a *App) Logout(ctx context.Context) error {
	a.hub.SetToken("")
	return a.sessions.Clear(ctx)
}

// Close releases the history store.
func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
