package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.applyEnvOverrides(); err != nil {
		return err
	}
	c.normalizeCompiler()
	c.normalizeEngine()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

// applyEnvOverrides lets the environment (including values loaded from .env)
// win over the file.
func (c *Config) applyEnvOverrides() error {
	if value, ok := os.LookupEnv("MVS_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("MAX_UPLOAD_SIZE_MB"); ok && strings.TrimSpace(value) != "" {
		mb, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_SIZE_MB: %w", err)
		}
		c.Server.MaxUploadMB = mb
	}
	if value, ok := os.LookupEnv("MVS_DIRECT_SERVE"); ok && strings.TrimSpace(value) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MVS_DIRECT_SERVE: %w", err)
		}
		c.Watch.DirectServe = enabled
	}
	if value, ok := os.LookupEnv("MVS_MOLSTAR_VERSION"); ok && strings.TrimSpace(value) != "" {
		c.Engine.MolstarVersion = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeCompiler() {
	c.Compiler.MVSVersion = strings.TrimSpace(c.Compiler.MVSVersion)
	if c.Compiler.MVSVersion == "" {
		c.Compiler.MVSVersion = defaultMVSVersion
	}
}

func (c *Config) normalizeEngine() {
	c.Engine.MolstarVersion = strings.TrimPrefix(strings.TrimSpace(c.Engine.MolstarVersion), "v")
	if c.Engine.MolstarVersion == "" {
		c.Engine.MolstarVersion = defaultMolstarVersion
	}
	c.Engine.CDNBaseURL = strings.TrimRight(strings.TrimSpace(c.Engine.CDNBaseURL), "/")
	if c.Engine.CDNBaseURL == "" {
		c.Engine.CDNBaseURL = defaultCDNBaseURL
	}
}

func (c *Config) normalizeServer() {
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.Server.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
