package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRuntime(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	return nil
}

func (c *Config) validateRuntime() error {
	parsed, err := url.Parse(c.Runtime.BaseURL)
	if err != nil {
		return fmt.Errorf("runtime.base_url: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("runtime.base_url %q has no host", c.Runtime.BaseURL)
		}
	case "file":
		if parsed.Path == "" {
			return fmt.Errorf("runtime.base_url %q has no path", c.Runtime.BaseURL)
		}
	default:
		return fmt.Errorf("runtime.base_url scheme %q is not supported (use http, https, or file)", parsed.Scheme)
	}
	if c.Runtime.CoreAsset == c.Runtime.BackendAsset {
		return errors.New("runtime.core_asset and runtime.backend_asset must differ")
	}
	for key, value := range map[string]string{
		"runtime.core_asset":    c.Runtime.CoreAsset,
		"runtime.backend_asset": c.Runtime.BackendAsset,
	} {
		if strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%s must be a file name, got %q", key, value)
		}
	}
	if c.Runtime.FetchTimeoutSeconds < 0 {
		return errors.New("runtime.fetch_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
