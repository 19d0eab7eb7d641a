package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"mvstories/internal/fileutil"
	"mvstories/internal/logging"
	"mvstories/internal/storyerr"
)

// DefaultVersion is the molstar release whose mvs-stories build is used.
const DefaultVersion = "4.18.0"

const component = "engine"

// Runtime is a resolved viewer bundle.
type Runtime struct {
	Version   string
	ScriptURL string
	StyleURL  string
	// Script and Style are empty for linked (non-inlined) runtimes.
	Script []byte
	Style  []byte
}

// Inlined reports whether the bundle contents are available.
func (r *Runtime) Inlined() bool {
	return r != nil && len(r.Script) > 0
}

// Options configure a Loader.
type Options struct {
	Version    string
	CDNBaseURL string
	// CacheDir holds downloaded bundles under engine/<version>/. Empty
	// disables the disk cache.
	CacheDir string
	CacheTTL time.Duration
	// Timeout bounds a single resolution.
	Timeout time.Duration
	Source  Source
	Logger  *slog.Logger
}

type loadCall struct {
	done    chan struct{}
	runtime *Runtime
	err     error
}

// Loader resolves the viewer bundle once and shares the result.
type Loader struct {
	opts   Options
	cache  *cache.Cache
	logger *slog.Logger

	mu   sync.Mutex
	call *loadCall
}

// NewLoader returns a loader for opts.
func NewLoader(opts Options) *Loader {
	if strings.TrimSpace(opts.Version) == "" {
		opts.Version = DefaultVersion
	}
	if strings.TrimSpace(opts.CDNBaseURL) == "" {
		opts.CDNBaseURL = DefaultCDNBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Source == nil {
		opts.Source = CDNSource{BaseURL: opts.CDNBaseURL}
	}
	return &Loader{
		opts:   opts,
		cache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger: logging.NewComponentLogger(opts.Logger, component),
	}
}

// Version returns the molstar version the loader resolves.
func (l *Loader) Version() string { return l.opts.Version }

// Linked returns a runtime that references the CDN without downloading it.
func (l *Loader) Linked() *Runtime {
	return &Runtime{
		Version:   l.opts.Version,
		ScriptURL: BundleURL(l.opts.CDNBaseURL, l.opts.Version, ScriptFile),
		StyleURL:  BundleURL(l.opts.CDNBaseURL, l.opts.Version, StyleFile),
	}
}

// Ready returns the inlined runtime. The first caller starts resolution;
// concurrent callers wait for the same outcome. A failure is sticky until
// Reset is called.
func (l *Loader) Ready(ctx context.Context) (*Runtime, error) {
	l.mu.Lock()
	call := l.call
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		l.call = call
		go l.load(context.WithoutCancel(ctx), call)
	}
	l.mu.Unlock()

	select {
	case <-call.done:
		return call.runtime, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reset forgets the current readiness outcome so the next Ready call
// resolves again. Cached bundles are kept.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.call = nil
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, call *loadCall) {
	defer close(call.done)
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()
	call.runtime, call.err = l.resolve(ctx)
}

func (l *Loader) resolve(ctx context.Context) (*Runtime, error) {
	version := l.opts.Version
	if cached, ok := l.cache.Get(version); ok {
		return cached.(*Runtime), nil
	}

	rt := l.Linked()
	started := time.Now()
	script, style, source, err := l.readDisk(version)
	if err != nil {
		script, style, err = l.opts.Source.Fetch(ctx, version)
		if err != nil {
			l.logger.Warn("viewer bundle unavailable",
				logging.String("version", version),
				logging.String(logging.FieldEventType, "engine_fetch_failed"),
				logging.Error(err),
			)
			return nil, storyerr.Wrap(storyerr.ErrUnavailable, component, "load_engine", "fetch viewer bundle", err).WithSubject(version)
		}
		source = "cdn"
		l.writeDisk(version, script, style)
	}
	rt.Script = script
	rt.Style = style
	l.cache.SetDefault(version, rt)
	l.logger.Info("viewer bundle ready",
		logging.String("version", version),
		logging.String("source", source),
		logging.Int("script_bytes", len(script)),
		logging.Elapsed(started),
	)
	return rt, nil
}

func (l *Loader) diskDir(version string) string {
	if strings.TrimSpace(l.opts.CacheDir) == "" {
		return ""
	}
	return filepath.Join(l.opts.CacheDir, "engine", version)
}

func (l *Loader) readDisk(version string) ([]byte, []byte, string, error) {
	dir := l.diskDir(version)
	if dir == "" {
		return nil, nil, "", errors.New("disk cache disabled")
	}
	script, err := os.ReadFile(filepath.Join(dir, ScriptFile))
	if err != nil {
		return nil, nil, "", err
	}
	style, err := os.ReadFile(filepath.Join(dir, StyleFile))
	if err != nil {
		return nil, nil, "", err
	}
	if len(script) == 0 {
		return nil, nil, "", errors.New("empty cached script")
	}
	return script, style, "disk", nil
}

func (l *Loader) writeDisk(version string, script, style []byte) {
	dir := l.diskDir(version)
	if dir == "" {
		return
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, StyleFile), style, 0o644); err != nil {
		l.logger.Debug("bundle cache write failed", logging.Error(err))
		return
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, ScriptFile), script, 0o644); err != nil {
		l.logger.Debug("bundle cache write failed", logging.Error(err))
	}
}
