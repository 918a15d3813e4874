package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"framepress/internal/config"
	"framepress/internal/deps"
)

const runtimeCheckTimeout = 5 * time.Second

// CheckRuntimeSource verifies that a runtime asset URL can be fetched. http
// and https sources are probed with a HEAD request; file sources are checked
// on disk.
func CheckRuntimeSource(ctx context.Context, client *http.Client, name, rawURL string) Result {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url %q", rawURL)}
	}

	switch parsed.Scheme {
	case "file":
		status := deps.CheckFile(deps.Requirement{Name: name, Path: parsed.Path})
		if !status.Available {
			return Result{Name: name, Detail: status.Detail}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (present)", parsed.Path)}
	case "http", "https":
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, runtimeCheckTimeout)
	defer cancel()
	if client == nil {
		client = &http.Client{Timeout: runtimeCheckTimeout}
	}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, parsed.String(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeFetchError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		detail := "Reachable"
		if resp.ContentLength > 0 {
			detail = fmt.Sprintf("Reachable (%d bytes)", resp.ContentLength)
		}
		return Result{Name: name, Passed: true, Detail: detail}
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return Result{Name: name, Passed: true, Detail: "Reachable (HEAD not allowed)"}
	case resp.StatusCode == http.StatusNotFound:
		return Result{Name: name, Detail: "asset not found (check runtime.version)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLocalAssets reports the on-disk runtime assets for file:// sources.
// Remote sources have no local requirements and yield nil.
func CheckLocalAssets(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	var requirements []deps.Requirement
	for _, asset := range []struct {
		name, url, description string
	}{
		{"Engine core", cfg.CoreURL(), "Executable staged into each engine sandbox"},
		{"Execution backend", cfg.BackendURL(), "Shared library loaded by the engine core"},
	} {
		parsed, err := url.Parse(asset.url)
		if err != nil || parsed.Scheme != "file" {
			continue
		}
		requirements = append(requirements, deps.Requirement{
			Name:        asset.name,
			Path:        parsed.Path,
			Description: asset.description,
		})
	}
	if len(requirements) == 0 {
		return nil
	}
	return deps.CheckFiles(requirements)
}

// summarizeFetchError produces a human-readable summary for runtime source failures.
func summarizeFetchError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (runtime source unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (runtime source unreachable)"
	}
	return err.Error()
}
