package services

import (
	"log/slog"

	"mvstories/internal/api"
	"mvstories/internal/config"
	"mvstories/internal/container"
	"mvstories/internal/engine"
	"mvstories/internal/logging"
	"mvstories/internal/mvs"
)

// Services bundles the configured toolchain.
type Services struct {
	Compiler *mvs.Compiler
	Codec    container.Codec
	Engine   *engine.Loader
	// Inline embeds the viewer bundle in playback documents.
	Inline bool
	Logger *slog.Logger

	engineSource engine.Source
}

// Option customizes the assembled toolchain.
type Option func(*Services)

// WithEngineSource replaces the CDN source of the viewer loader.
func WithEngineSource(src engine.Source) Option {
	return func(s *Services) {
		if src != nil {
			s.engineSource = src
		}
	}
}

// New builds the toolchain described by cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Services {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Services{Logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	s.Compiler = &mvs.Compiler{
		Timeout: cfg.SceneTimeout(),
		Workers: cfg.Compiler.Workers,
		Version: cfg.Compiler.MVSVersion,
		Logger:  logger,
	}
	s.Codec = container.Codec{
		Level:           cfg.Container.CompressionLevel,
		MaxDecompressed: cfg.MaxDecompressedBytes(),
	}
	s.Engine = engine.NewLoader(engine.Options{
		Version:    cfg.Engine.MolstarVersion,
		CDNBaseURL: cfg.Engine.CDNBaseURL,
		CacheDir:   cfg.Paths.CacheDir,
		CacheTTL:   cfg.EngineCacheTTL(),
		Timeout:    cfg.EngineDownloadTimeout(),
		Source:     s.engineSource,
		Logger:     logger,
	})
	s.Inline = cfg.Engine.Inline
	return s
}

// ManagerOptions returns the api.Manager options matching the toolchain.
func (s *Services) ManagerOptions() []api.Option {
	return []api.Option{
		api.WithCompiler(s.Compiler),
		api.WithCodec(s.Codec),
		api.WithEngine(s.Engine, s.Inline),
		api.WithLogger(s.Logger),
	}
}

// NewManager returns an empty-story manager wired to the toolchain.
func (s *Services) NewManager() *api.Manager {
	return api.New(s.ManagerOptions()...)
}
