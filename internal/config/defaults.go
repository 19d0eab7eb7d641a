package config

const (
	defaultConfigPath            = "~/.config/mvs/config.toml"
	projectConfigName            = "mvs.toml"
	defaultDataDir               = "~/.local/share/mvs"
	defaultLogDir                = "~/.local/share/mvs/logs"
	defaultAPIBind               = "127.0.0.1:7490"
	defaultSceneTimeoutSeconds   = 10
	defaultCompilerWorkers       = 4
	defaultMVSVersion            = "1.4"
	defaultMolstarVersion        = "4.18.0"
	defaultCDNBaseURL            = "https://cdn.jsdelivr.net/npm"
	defaultEngineCacheTTLMinutes = 60
	defaultEngineDownloadTimeout = 30
	defaultCompressionLevel      = 3
	defaultMaxDecompressedMB     = 512
	defaultMaxUploadMB           = 50
	defaultRequestsPerSecond     = 10
	defaultRequestBurst          = 20
	defaultWatchPort             = 8080
	defaultWatchDebounceMs       = 500
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Compiler: Compiler{
			SceneTimeoutSeconds: defaultSceneTimeoutSeconds,
			Workers:             defaultCompilerWorkers,
			MVSVersion:          defaultMVSVersion,
		},
		Engine: Engine{
			MolstarVersion:         defaultMolstarVersion,
			CDNBaseURL:             defaultCDNBaseURL,
			Inline:                 true,
			CacheTTLMinutes:        defaultEngineCacheTTLMinutes,
			DownloadTimeoutSeconds: defaultEngineDownloadTimeout,
		},
		Container: Container{
			CompressionLevel:  defaultCompressionLevel,
			MaxDecompressedMB: defaultMaxDecompressedMB,
		},
		Server: Server{
			MaxUploadMB:       defaultMaxUploadMB,
			RequestsPerSecond: defaultRequestsPerSecond,
			Burst:             defaultRequestBurst,
			AllowedOrigins:    []string{"*"},
		},
		Watch: Watch{
			Port:       defaultWatchPort,
			DebounceMs: defaultWatchDebounceMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
