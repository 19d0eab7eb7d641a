package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"mvstories/internal/logging"
	"mvstories/internal/services"
	"mvstories/internal/storyerr"
)

const component = "devserver"

// LockFile is created inside the watched folder while a preview runs.
const LockFile = ".mvs.lock"

// DefaultDebounce is the quiet period before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// DefaultViewerURL is the hosted viewer used in direct-serve mode.
const DefaultViewerURL = "https://molstar.org/mol-view-stories/"

// Server previews one story folder.
type Server struct {
	Dir  string
	Host string
	// Port 0 picks a free port.
	Port     int
	Debounce time.Duration
	// DirectServe redirects / to the hosted viewer instead of rendering a
	// local playback page.
	DirectServe bool
	ViewerURL   string
	Services    *services.Services
	Logger      *slog.Logger

	initOnce sync.Once
	logger   *slog.Logger
	hub      *hub
	handler  http.Handler

	buildMu sync.Mutex
	mu      sync.RWMutex
	current *build
	status  Status

	lock     *flock.Flock
	listener net.Listener
	http     *http.Server
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		if s.Debounce <= 0 {
			s.Debounce = DefaultDebounce
		}
		if strings.TrimSpace(s.ViewerURL) == "" {
			s.ViewerURL = DefaultViewerURL
		}
		if s.Logger == nil {
			s.Logger = logging.NewNop()
		}
		if s.Services == nil {
			s.Services = services.New(nil, s.Logger)
		}
		s.logger = logging.NewComponentLogger(s.Logger, component)
		s.hub = newHub(s.logger)
		s.status = Status{Dir: s.Dir}
		s.handler = s.routes()
	})
}

// Handler returns the preview HTTP handler.
func (s *Server) Handler() http.Handler {
	s.init()
	return s.handler
}

// Start locks the folder, builds it, starts watching, and begins serving.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	s.init()
	info, err := os.Stat(s.Dir)
	if err != nil {
		return storyerr.Wrap(storyerr.ErrNotFound, component, "start", "story folder does not exist", err).WithSubject(s.Dir)
	}
	if !info.IsDir() {
		return storyerr.Wrap(storyerr.ErrValidation, component, "start", "story path is not a directory", nil).WithSubject(s.Dir)
	}

	lock := flock.New(filepath.Join(s.Dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return storyerr.Wrap(storyerr.ErrUnavailable, component, "start", "another preview is already watching this folder", nil).WithSubject(s.Dir)
	}
	s.lock = lock

	host := strings.TrimSpace(s.Host)
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(s.Port)))
	if err != nil {
		s.releaseLock()
		return fmt.Errorf("preview listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	watch, err := newWatcher(s.Dir, s.logger)
	if err != nil {
		cancel()
		_ = listener.Close()
		s.releaseLock()
		return err
	}

	s.Rebuild(runCtx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.http = srv
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("preview server error", logging.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		watch.run(runCtx, s.Debounce, func() { s.Rebuild(runCtx) })
	}()

	s.logger.Info("preview server listening",
		logging.String("address", "http://"+listener.Addr().String()),
		logging.String("dir", s.Dir),
		logging.Bool("direct_serve", s.DirectServe),
	)
	return nil
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops watching, disconnects clients, shuts the server down, and
// releases the folder lock.
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.http, s.cancel
	s.http, s.cancel, s.listener = nil, nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	cancel()
	s.hub.closeAll()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	err := srv.Shutdown(shutdownCtx)
	s.wg.Wait()
	s.releaseLock()
	return err
}

func (s *Server) releaseLock() {
	if s.lock == nil {
		return
	}
	_ = s.lock.Unlock()
	_ = os.Remove(s.lock.Path())
	s.lock = nil
}
