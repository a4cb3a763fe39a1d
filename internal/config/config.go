package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains catalog and log locations.
type Paths struct {
	CatalogDB string `toml:"catalog_db"`
	LogDir    string `toml:"log_dir"`
}

// ExifTool contains configuration for the external metadata tool.
type ExifTool struct {
	// Binary is a command name resolved through PATH or an absolute path.
	Binary string `toml:"binary"`
}

// Writer contains configuration for the metadata write pipeline.
type Writer struct {
	// Mode is the default processing mode: new_only, retry_errors, or force_refresh.
	Mode string `toml:"mode"`
	// Workers bounds how many files are processed at once. 1 keeps the
	// strictly sequential protocol.
	Workers int `toml:"workers"`
	// SessionLogSize is the number of recent outcomes kept for the run summary.
	SessionLogSize int `toml:"session_log_size"`
	// DiagnosticLimit caps the tool output stored with an error outcome.
	DiagnosticLimit int `toml:"diagnostic_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mediakeep.
//
// Configuration sections by subsystem:
//   - Paths: catalog database and log directory
//   - ExifTool: external metadata tool lookup
//   - Writer: processing mode and write pipeline tuning
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	ExifTool ExifTool `toml:"exiftool"`
	Writer   Writer   `toml:"writer"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediakeep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the catalog's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if dbDir := filepath.Dir(c.Paths.CatalogDB); dbDir != "" && dbDir != "." {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExifToolBinary returns the configured exiftool executable name or path.
func (c *Config) ExifToolBinary() string {
	if binary := strings.TrimSpace(c.ExifTool.Binary); binary != "" {
		return binary
	}
	return defaultExifToolBinary
}

// LockPath returns the lock file guarding write runs against the catalog.
func (c *Config) LockPath() string {
	return c.Paths.CatalogDB + ".lock"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
