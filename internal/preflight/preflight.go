package preflight

import (
	"context"

	"mvstories/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckLibrary(ctx, cfg),
		CheckListenAddress("API bind", cfg.Paths.APIBind),
	}

	// The bundle is fetched by mvs when inlining and by the browser otherwise,
	// so the CDN has to be reachable either way.
	results = append(results, CheckViewerBundle(ctx, cfg.Engine.CDNBaseURL, cfg.Engine.MolstarVersion))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
