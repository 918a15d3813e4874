package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
}

// Runtime describes where the engine runtime payload is fetched from. Both
// assets are resolved as <base_url>/<version>/<asset>.
type Runtime struct {
	BaseURL             string `toml:"base_url"`
	Version             string `toml:"version"`
	CoreAsset           string `toml:"core_asset"`
	CoreMIME            string `toml:"core_mime"`
	BackendAsset        string `toml:"backend_asset"`
	BackendMIME         string `toml:"backend_mime"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for metric export.
type Metrics struct {
	// TextfilePath, when set, receives a Prometheus textfile snapshot after
	// each CLI command.
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for framepress.
//
// Configuration sections by subsystem:
//   - Paths: engine scratch root and log directory
//   - Runtime: versioned location of the engine runtime payload
//   - Logging: log format and level
//   - Metrics: optional Prometheus textfile export
type Config struct {
	Paths   Paths   `toml:"paths"`
	Runtime Runtime `toml:"runtime"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// EnsureDirectories creates the scratch and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CoreURL returns the fully resolved URL of the engine core module.
func (c *Config) CoreURL() string {
	return c.assetURL(c.Runtime.CoreAsset)
}

// BackendURL returns the fully resolved URL of the execution backend.
func (c *Config) BackendURL() string {
	return c.assetURL(c.Runtime.BackendAsset)
}

func (c *Config) assetURL(asset string) string {
	base := strings.TrimRight(c.Runtime.BaseURL, "/")
	parts := []string{base}
	if version := strings.Trim(c.Runtime.Version, "/"); version != "" {
		parts = append(parts, url.PathEscape(version))
	}
	parts = append(parts, url.PathEscape(strings.Trim(asset, "/")))
	return strings.Join(parts, "/")
}

// FetchTimeout returns the per-asset download timeout.
func (c *Config) FetchTimeout() time.Duration {
	if c.Runtime.FetchTimeoutSeconds <= 0 {
		return time.Duration(defaultFetchTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Runtime.FetchTimeoutSeconds) * time.Second
}
