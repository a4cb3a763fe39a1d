package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWriter(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CatalogDB) == "" {
		return errors.New("paths.catalog_db must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWriter() error {
	if err := ValidateMode(c.Writer.Mode); err != nil {
		return fmt.Errorf("writer.mode: %w", err)
	}
	if c.Writer.Workers < 1 || c.Writer.Workers > maxWriterWorkers {
		return fmt.Errorf("writer.workers must be between 1 and %d", maxWriterWorkers)
	}
	if c.Writer.SessionLogSize < 1 {
		return errors.New("writer.session_log_size must be positive")
	}
	if c.Writer.DiagnosticLimit < 16 {
		return errors.New("writer.diagnostic_limit must be at least 16")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// ValidateMode reports whether mode names a known processing mode.
func ValidateMode(mode string) error {
	switch mode {
	case ModeNewOnly, ModeRetryErrors, ModeForceRefresh:
		return nil
	default:
		return fmt.Errorf("unsupported mode %q (expected one of %s)", mode, strings.Join(Modes(), ", "))
	}
}
