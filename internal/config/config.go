package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Compiler controls scene script execution.
type Compiler struct {
	SceneTimeoutSeconds int    `toml:"scene_timeout_seconds"`
	Workers             int    `toml:"workers"`
	MVSVersion          string `toml:"mvs_version"`
}

// Engine controls how the viewer runtime is fetched and embedded.
type Engine struct {
	MolstarVersion         string `toml:"molstar_version"`
	CDNBaseURL             string `toml:"cdn_base_url"`
	Inline                 bool   `toml:"inline"`
	CacheTTLMinutes        int    `toml:"cache_ttl_minutes"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
}

// Container tunes the session container codec.
type Container struct {
	CompressionLevel  int `toml:"compression_level"`
	MaxDecompressedMB int `toml:"max_decompressed_mb"`
}

// Server configures the library HTTP API.
type Server struct {
	MaxUploadMB       int      `toml:"max_upload_mb"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	AllowedOrigins    []string `toml:"allowed_origins"`
}

// Watch configures the live preview server.
type Watch struct {
	Port        int  `toml:"port"`
	DebounceMs  int  `toml:"debounce_ms"`
	DirectServe bool `toml:"direct_serve"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mvs.
//
// Configuration sections by subsystem:
//   - Paths: library data, engine cache, logs, and the API bind address
//   - Compiler: scene timeout, worker count, emitted MVS version
//   - Engine: viewer runtime version, CDN, cache lifetime
//   - Container: compression level and decompression bound
//   - Server: upload limit, rate limit, CORS origins
//   - Watch: preview port and debounce
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Compiler  Compiler  `toml:"compiler"`
	Engine    Engine    `toml:"engine"`
	Container Container `toml:"container"`
	Server    Server    `toml:"server"`
	Watch     Watch     `toml:"watch"`
	Logging   Logging   `toml:"logging"`
}

// EnsureDirectories creates the data, cache, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LibraryPath is the SQLite database backing the story library.
func (c *Config) LibraryPath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// SceneTimeout is the per-scene script budget.
func (c *Config) SceneTimeout() time.Duration {
	return time.Duration(c.Compiler.SceneTimeoutSeconds) * time.Second
}

// EngineCacheTTL is how long a fetched runtime stays in memory.
func (c *Config) EngineCacheTTL() time.Duration {
	return time.Duration(c.Engine.CacheTTLMinutes) * time.Minute
}

// EngineDownloadTimeout bounds a single runtime download.
func (c *Config) EngineDownloadTimeout() time.Duration {
	return time.Duration(c.Engine.DownloadTimeoutSeconds) * time.Second
}

// WatchDebounce is the quiet period before the preview rebuilds.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// MaxUploadBytes is the request body limit of the library API.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// MaxDecompressedBytes bounds container inflation.
func (c *Config) MaxDecompressedBytes() int64 {
	return int64(c.Container.MaxDecompressedMB) << 20
}
