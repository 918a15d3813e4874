package preflight

import (
	"context"
	"net/http"

	"framepress/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	return RunAllWithClient(ctx, cfg, nil)
}

// RunAllWithClient is RunAll with the HTTP client used for remote runtime
// sources. A nil client uses a short-timeout default.
func RunAllWithClient(ctx context.Context, cfg *config.Config, client *http.Client) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results,
		CheckRuntimeSource(ctx, client, "Engine core", cfg.CoreURL()),
		CheckRuntimeSource(ctx, client, "Execution backend", cfg.BackendURL()),
	)

	if probe := ProbeSandboxes(cfg.Paths.ScratchDir); probe.Err == nil {
		results = append(results, Result{Name: "Engine sandboxes", Passed: true, Detail: probe.Detail()})
	} else {
		results = append(results, Result{Name: "Engine sandboxes", Detail: probe.Detail()})
	}

	return results
}
