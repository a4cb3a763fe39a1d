package preflight

import (
	"context"
	"path/filepath"

	"mediakeep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckTool(ctx, cfg.ExifToolBinary()),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Paths.CatalogDB)),
		CheckCatalog(ctx, cfg.Paths.CatalogDB),
	}
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
