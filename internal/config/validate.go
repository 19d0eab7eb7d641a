package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCompiler(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateContainer(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCompiler() error {
	return ensurePositiveMap(map[string]int{
		"compiler.scene_timeout_seconds": c.Compiler.SceneTimeoutSeconds,
		"compiler.workers":               c.Compiler.Workers,
	})
}

func (c *Config) validateEngine() error {
	if err := ensurePositiveMap(map[string]int{
		"engine.cache_ttl_minutes":        c.Engine.CacheTTLMinutes,
		"engine.download_timeout_seconds": c.Engine.DownloadTimeoutSeconds,
	}); err != nil {
		return err
	}
	parsed, err := url.Parse(c.Engine.CDNBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("engine.cdn_base_url %q is not an absolute URL", c.Engine.CDNBaseURL)
	}
	return nil
}

func (c *Config) validateContainer() error {
	if c.Container.CompressionLevel < 0 || c.Container.CompressionLevel > 9 {
		return errors.New("container.compression_level must be between 0 and 9")
	}
	if c.Container.MaxDecompressedMB <= 0 {
		return errors.New("container.max_decompressed_mb must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := ensurePositiveMap(map[string]int{
		"server.max_upload_mb": c.Server.MaxUploadMB,
		"server.burst":         c.Server.Burst,
	}); err != nil {
		return err
	}
	if c.Server.RequestsPerSecond <= 0 {
		return errors.New("server.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Port <= 0 || c.Watch.Port > 65535 {
		return fmt.Errorf("watch.port %d is out of range", c.Watch.Port)
	}
	if c.Watch.DebounceMs < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", strings.TrimSpace(c.Logging.Level))
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
