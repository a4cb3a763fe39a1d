package config

const (
	defaultConfigPath       = "~/.config/mediakeep/config.toml"
	defaultCatalogDB        = "~/.local/share/mediakeep/catalog.db"
	defaultLogDir           = "~/.local/share/mediakeep/logs"
	defaultExifToolBinary   = "exiftool"
	defaultWriterMode       = ModeNewOnly
	defaultWriterWorkers    = 1
	defaultSessionLogSize   = 20
	defaultDiagnosticLimit  = 300
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	maxWriterWorkers        = 16
)

// Processing modes select which catalog records a write run considers.
const (
	ModeNewOnly      = "new_only"
	ModeRetryErrors  = "retry_errors"
	ModeForceRefresh = "force_refresh"
)

// Modes lists every accepted processing mode.
func Modes() []string {
	return []string{ModeNewOnly, ModeRetryErrors, ModeForceRefresh}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDB: defaultCatalogDB,
			LogDir:    defaultLogDir,
		},
		ExifTool: ExifTool{
			Binary: defaultExifToolBinary,
		},
		Writer: Writer{
			Mode:            defaultWriterMode,
			Workers:         defaultWriterWorkers,
			SessionLogSize:  defaultSessionLogSize,
			DiagnosticLimit: defaultDiagnosticLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
