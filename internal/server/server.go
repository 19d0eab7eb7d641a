package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mvstories/internal/config"
	"mvstories/internal/library"
	"mvstories/internal/logging"
	"mvstories/internal/services"
)

const component = "server"

// Server serves the library API.
type Server struct {
	cfg    *config.Config
	store  *library.Store
	svc    *services.Services
	logger *slog.Logger

	router  *gin.Engine
	limiter *clientLimiter

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithServices replaces the toolchain built from the configuration.
func WithServices(svc *services.Services) Option {
	return func(s *Server) {
		if svc != nil {
			s.svc = svc
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a server over store.
func New(cfg *config.Config, store *library.Store, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if store == nil {
		return nil, errors.New("server: library store is required")
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.svc == nil {
		s.svc = services.New(cfg, s.logger)
	}
	s.logger = logging.NewComponentLogger(s.logger, component)
	s.limiter = newClientLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured bind address and serves in the
// background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return fmt.Errorf("api listen: empty bind address")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.http = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down, waiting up to five seconds for in-flight
// requests.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
		gin.CustomRecoveryWithWriter(io.Discard, s.recoverPanic),
		corsMiddleware(s.cfg.Server.AllowedOrigins),
		s.rateLimitMiddleware(),
	)

	r.GET("/api/health", s.handleHealth)

	authed := r.Group("/api", authMiddleware(s.cfg.Paths.APIToken))
	authed.GET("/stats", s.handleStats)

	sessions := authed.Group("/session")
	sessions.GET("", s.handleListSessions)
	sessions.POST("", s.bodyLimit(), s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.PUT("/:id", s.bodyLimit(), s.handleUpdateSession)
	sessions.DELETE("/:id", s.handleDelete(library.KindSession))
	sessions.GET("/:id/data", s.handleData(library.KindSession))

	stories := authed.Group("/story")
	stories.GET("", s.handleListStories)
	stories.POST("", s.bodyLimit(), s.handleCreateStory)
	stories.GET("/:id", s.handleGetStory)
	stories.DELETE("/:id", s.handleDelete(library.KindStory))
	stories.GET("/:id/data", s.handleData(library.KindStory))
	stories.GET("/:id/html", s.handleStoryHTML)

	r.NoRoute(func(c *gin.Context) {
		writeErrorMessage(c, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("handler panic",
		logging.String("path", c.Request.URL.Path),
		logging.Any("panic", recovered),
	)
	writeErrorMessage(c, http.StatusInternalServerError, "internal", "internal server error")
}
