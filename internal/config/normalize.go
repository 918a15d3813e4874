package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRuntime()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeRuntime() {
	if value, ok := os.LookupEnv(runtimeBaseURLEnv); ok && strings.TrimSpace(value) != "" {
		c.Runtime.BaseURL = value
	}
	c.Runtime.BaseURL = strings.TrimSpace(c.Runtime.BaseURL)
	if c.Runtime.BaseURL == "" {
		c.Runtime.BaseURL = defaultRuntimeBaseURL
	}
	c.Runtime.Version = strings.TrimSpace(c.Runtime.Version)
	c.Runtime.CoreAsset = strings.TrimSpace(c.Runtime.CoreAsset)
	if c.Runtime.CoreAsset == "" {
		c.Runtime.CoreAsset = defaultCoreAsset
	}
	c.Runtime.BackendAsset = strings.TrimSpace(c.Runtime.BackendAsset)
	if c.Runtime.BackendAsset == "" {
		c.Runtime.BackendAsset = defaultBackendAsset
	}
	c.Runtime.CoreMIME = strings.ToLower(strings.TrimSpace(c.Runtime.CoreMIME))
	if c.Runtime.CoreMIME == "" {
		c.Runtime.CoreMIME = defaultCoreMIME
	}
	c.Runtime.BackendMIME = strings.ToLower(strings.TrimSpace(c.Runtime.BackendMIME))
	if c.Runtime.BackendMIME == "" {
		c.Runtime.BackendMIME = defaultBackendMIME
	}
	if c.Runtime.FetchTimeoutSeconds == 0 {
		c.Runtime.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
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

func (c *Config) normalizeMetrics() error {
	path := strings.TrimSpace(c.Metrics.TextfilePath)
	if path == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	c.Metrics.TextfilePath = expanded
	return nil
}
