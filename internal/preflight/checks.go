package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"mediakeep/internal/catalog"
	"mediakeep/internal/exiftool"
)

const toolCheckTimeout = 10 * time.Second

// CheckTool verifies that exiftool resolves and answers -ver.
func CheckTool(ctx context.Context, binary string) Result {
	const name = "exiftool"

	resolved, err := exiftool.Locate(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	client, err := exiftool.New(resolved)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, toolCheckTimeout)
	defer cancel()
	version, err := client.Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", resolved, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", resolved, version)}
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

// CheckCatalog verifies the catalog database opens with the expected schema.
// A missing database is reported rather than created.
func CheckCatalog(ctx context.Context, dbPath string) Result {
	const name = "Catalog"

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist; run mediakeep import)", dbPath)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dbPath, err)}
	}
	store, err := catalog.OpenPath(dbPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dbPath, err)}
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dbPath, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", dbPath)}
}
