package config

const (
	defaultConfigPath          = "~/.config/framepress/config.toml"
	defaultScratchDir          = "~/.cache/framepress/scratch"
	defaultLogDir              = "~/.local/share/framepress/logs"
	defaultRuntimeBaseURL      = "file:///usr/local/share/framepress/runtime"
	defaultRuntimeVersion      = "7.1"
	defaultCoreAsset           = "ffmpeg"
	defaultCoreMIME            = "application/x-executable"
	defaultBackendAsset        = "libffmpeg-backend.so"
	defaultBackendMIME         = "application/x-sharedlib"
	defaultFetchTimeoutSeconds = 300
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"

	runtimeBaseURLEnv = "FRAMEPRESS_RUNTIME_BASE_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Runtime: Runtime{
			BaseURL:             defaultRuntimeBaseURL,
			Version:             defaultRuntimeVersion,
			CoreAsset:           defaultCoreAsset,
			CoreMIME:            defaultCoreMIME,
			BackendAsset:        defaultBackendAsset,
			BackendMIME:         defaultBackendMIME,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
