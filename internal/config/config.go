package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/xpense/internal/common"
	"github.com/Veraticus/xpense/internal/normalize"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath      = "database.path"
	KeyDateFormats       = "import.date_formats"
	KeyCategoryMatch     = "import.category_match"
	KeyFuzzyCategories   = "import.fuzzy_categories"
	KeyBackupStrict      = "backup.strict"
	KeyBackupDir         = "backup.dir"
	KeyCheckpointEnabled = "checkpoint.enabled"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/xpense/xpense.db"

// Config is the resolved application configuration.
type Config struct {
	Database   DatabaseConfig
	Logging    LoggingConfig
	Backup     BackupConfig
	Import     ImportConfig
	Checkpoint CheckpointConfig
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string
}

// ImportConfig tunes CSV and OFX parsing.
type ImportConfig struct {
	CategoryMatch   normalize.MatchMode
	DateFormats     []string
	FuzzyCategories bool
}

// BackupConfig tunes backup export and restore.
type BackupConfig struct {
	Dir    string
	Strict bool
}

// CheckpointConfig controls snapshots before destructive operations.
type CheckpointConfig struct {
	Enabled bool
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Format string
	Level  slog.Level
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyDateFormats, normalize.DefaultDateFormats)
	v.SetDefault(KeyCategoryMatch, string(normalize.MatchExactFirst))
	v.SetDefault(KeyFuzzyCategories, false)
	v.SetDefault(KeyBackupStrict, false)
	v.SetDefault(KeyBackupDir, ".")
	v.SetDefault(KeyCheckpointEnabled, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load resolves the configuration from v, expanding paths and validating enums.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	mode, err := normalize.ParseMatchMode(v.GetString(KeyCategoryMatch))
	if err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyCategoryMatch, err)
	}

	level, err := common.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return cfg, err
	}

	format := strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat)))
	switch format {
	case "", "console", "json":
	default:
		return cfg, fmt.Errorf("%w: unknown log format %q", common.ErrInvalidConfig, format)
	}

	formats := cleanFormats(v.GetStringSlice(KeyDateFormats))
	if len(formats) == 0 {
		formats = append([]string(nil), normalize.DefaultDateFormats...)
	}

	cfg = Config{
		Database: DatabaseConfig{Path: resolveDatabasePath(v.GetString(KeyDatabasePath))},
		Import: ImportConfig{
			DateFormats:     formats,
			CategoryMatch:   mode,
			FuzzyCategories: v.GetBool(KeyFuzzyCategories),
		},
		Backup: BackupConfig{
			Strict: v.GetBool(KeyBackupStrict),
			Dir:    resolveDir(v.GetString(KeyBackupDir)),
		},
		Checkpoint: CheckpointConfig{Enabled: v.GetBool(KeyCheckpointEnabled)},
		Logging:    LoggingConfig{Level: level, Format: format},
	}
	return cfg, nil
}

func cleanFormats(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
