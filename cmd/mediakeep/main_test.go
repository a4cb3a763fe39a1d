package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
	"mediakeep/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, mediaDir: filepath.Join(base, "media")}
}

func runCLI(t *testing.T, args []string, configPath string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substr, output)
	}
}

func TestCLIImportWriteStatusFlow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedTool("exiftool", ""))
	files := testsupport.MediaFiles(t, env.mediaDir, "a.jpg", "b.mov")
	input := strings.Join([]string{
		`{"path":"` + files[0] + `","metadata":{"camera":"Canon EOS","people":["Bob","Alice"]}}`,
		`{"path":"` + files[1] + `","metadata":{"datetime":"2020-01-01T10:00:00Z"}}`,
		`{"path":"` + filepath.Join(env.mediaDir, "gone.jpg") + `","metadata":{"camera":"X"}}`,
		`{"path":"","metadata":{}}`,
		`{"path":"/x.jpg","metadata":"nope"}`,
		``,
	}, "\n")

	out, stderr, err := runCLI(t, []string{"import", "-"}, env.configPath, input)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	requireContains(t, out, "Imported 3 new, 0 refreshed, 2 rejected")
	requireContains(t, stderr, "line 4")

	out, _, err = runCLI(t, []string{"write"}, env.configPath, "")
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	requireContains(t, out, "3 of 3")
	requireContains(t, out, "Recent activity")
	requireContains(t, out, "skipped: file missing")
	requireContains(t, out, "[WARN] 2 of 3 written in full")

	out, _, err = runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	requireContains(t, out, "Stored outcomes")
	requireContains(t, out, "[OK]")

	store := testsupport.MustOpenCatalog(t, env.cfg)
	if rec := testsupport.MustGet(t, store, files[0]); rec.WriteStatus != catalog.StatusSuccess {
		t.Fatalf("unexpected status for %s: %q", files[0], rec.WriteStatus)
	}
}

func TestCLIWriteDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	files := testsupport.MediaFiles(t, env.mediaDir, "a.jpg")
	input := `{"path":"` + files[0] + `","metadata":{"albums":["Trip"],"gps":{"latitude":-33.8,"longitude":151.2}}}`
	if _, _, err := runCLI(t, []string{"import", "-"}, env.configPath, input); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"write", "--dry-run", "--mode", "force-refresh"}, env.configPath, "")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	requireContains(t, out, "Dry run (force_refresh): 1 files selected")
	requireContains(t, out, `"-GPSLatitudeRef=S"`)
	requireContains(t, out, `"-Keywords+=Trip"`)
}

func TestCLIWriteMissingToolFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.ExifTool.Binary = "mediakeep-no-such-tool"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"write"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected write to fail without exiftool")
	}
	requireContains(t, err.Error(), "metadata tool not found")
}

func TestCLIReset(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenCatalog(t, env.cfg)
	testsupport.AddRecord(t, store, "/m/a.jpg", `{}`)
	testsupport.AddRecord(t, store, "/m/b.jpg", `{}`)
	if err := store.MarkWriteStatus(context.Background(), "/m/a.jpg", catalog.StatusError, "boom"); err != nil {
		t.Fatalf("MarkWriteStatus: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	requireContains(t, out, "[ERROR] 1 files incomplete; run write --mode retry_errors")

	out, _, err = runCLI(t, []string{"reset"}, env.configPath, "")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	requireContains(t, out, "Reset 1 records to pending")

	if _, _, err := runCLI(t, []string{"reset", "--status", "done"}, env.configPath, ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestCLIConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "mediakeep.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists")
	}

	env := setupCLITestEnv(t)
	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	requireContains(t, out, "catalog_db")
	requireContains(t, out, env.cfg.Paths.CatalogDB)
}
