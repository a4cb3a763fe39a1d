package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExifTool()
	c.normalizeWriter()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CatalogDB) == "" {
		c.Paths.CatalogDB = defaultCatalogDB
	}
	if c.Paths.CatalogDB, err = expandPath(c.Paths.CatalogDB); err != nil {
		return fmt.Errorf("paths.catalog_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExifTool() {
	c.ExifTool.Binary = strings.TrimSpace(c.ExifTool.Binary)
	if value, ok := os.LookupEnv("EXIFTOOL_PATH"); ok && strings.TrimSpace(value) != "" {
		if c.ExifTool.Binary == "" || c.ExifTool.Binary == defaultExifToolBinary {
			c.ExifTool.Binary = strings.TrimSpace(value)
		}
	}
	if c.ExifTool.Binary == "" {
		c.ExifTool.Binary = defaultExifToolBinary
	}
	if strings.HasPrefix(c.ExifTool.Binary, "~") {
		if expanded, err := expandPath(c.ExifTool.Binary); err == nil {
			c.ExifTool.Binary = expanded
		}
	}
}

func (c *Config) normalizeWriter() {
	c.Writer.Mode = NormalizeMode(c.Writer.Mode)
	if c.Writer.Mode == "" {
		c.Writer.Mode = defaultWriterMode
	}
	if c.Writer.Workers <= 0 {
		c.Writer.Workers = defaultWriterWorkers
	}
	if c.Writer.SessionLogSize <= 0 {
		c.Writer.SessionLogSize = defaultSessionLogSize
	}
	if c.Writer.DiagnosticLimit <= 0 {
		c.Writer.DiagnosticLimit = defaultDiagnosticLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// NormalizeMode lowercases a processing mode and accepts dashed spellings
// such as "retry-errors".
func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	return strings.ReplaceAll(mode, "-", "_")
}
