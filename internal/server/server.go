package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt cost used for stored passwords.
const DefaultPasswordCost = 10

// Server is the REST API for users, collections and saved requests.
type Server struct {
	config       Config
	store        Store
	tokens       *Tokens
	logger       *zap.Logger
	passwordCost int
	handler      http.Handler

	httpServer *http.Server
	listener   net.Listener
	running    bool
	mu         sync.RWMutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPasswordCost overrides the bcrypt cost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}

// New creates a server over store.
func New(config Config, store Store, opts ...Option) *Server {
	s := &Server{
		config:       config,
		store:        store,
		tokens:       NewTokens(config.Auth.JWTSecret, config.Auth.TokenTTL),
		logger:       zap.NewNop(),
		passwordCost: DefaultPasswordCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = newCORS().Handler(s.Router())
	return s
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is running"})
	})

	auth := r.Group("/api/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/edit", requireAuth(s.tokens), s.editProfile)

	collections := r.Group("/api/collections", requireAuth(s.tokens))
	collections.GET("/user/:userId", s.listCollections)
	collections.POST("", s.createCollection)
	collections.PATCH("/:id", s.renameCollection)
	collections.DELETE("/:id", s.deleteCollection)

	requests := r.Group("/api/requests", requireAuth(s.tokens))
	requests.GET("/collection/:id", s.listRequests)
	requests.POST("", s.createRequest)
	requests.GET("/:id", s.getRequest)
	requests.PATCH("/:id", s.updateRequest)
	requests.DELETE("/:id", s.deleteRequest)

	return r
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves in the background until ctx is done or Stop is
// called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.Server.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.httpServer.Close()
	}

	s.running = false
	return nil
}

// IsRunning returns true if the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ListenAddr returns the actual address the server is listening on.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Server.Addr
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// internalError logs err and answers 500.
func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("store failure",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
}
