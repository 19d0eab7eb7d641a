package testsupport

import (
	"path/filepath"
	"testing"

	"mvstories/internal/config"
)

// ConfigOption adjusts the config returned by NewConfig.
type ConfigOption func(*config.Config)

// NewConfig returns the default config with data, cache and log directories
// under a per-test temp dir, an ephemeral API port and two compile workers.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.CacheDir = filepath.Join(root, "cache")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Compiler.Workers = 2
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIToken sets the bearer token the library API requires.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) { cfg.Paths.APIToken = token }
}

// WithMaxUploadMB overrides the API body limit.
func WithMaxUploadMB(mb int) ConfigOption {
	return func(cfg *config.Config) { cfg.Server.MaxUploadMB = mb }
}

// WithRateLimit overrides the API token bucket.
func WithRateLimit(perSecond float64, burst int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.RequestsPerSecond = perSecond
		cfg.Server.Burst = burst
	}
}
