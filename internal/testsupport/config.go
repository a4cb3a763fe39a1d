package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediakeep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CatalogDB = filepath.Join(base, "data", "catalog.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithWorkers overrides the writer concurrency on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Writer.Workers = n
	}
}

// WithMode overrides the default processing mode on the test config.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Writer.Mode = mode
	}
}

// WithStubbedTool writes an executable shell script named name into a bin
// directory, prepends it to PATH, and points the exiftool binary at it. An
// empty script exits 0 after confirming one updated file.
func WithStubbedTool(name, script string) ConfigOption {
	return func(b *configBuilder) {
		if name == "" {
			name = "exiftool"
		}
		if script == "" {
			script = "echo \"    1 image files updated\"\nexit 0\n"
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.ExifTool.Binary = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
