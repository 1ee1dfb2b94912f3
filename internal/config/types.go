// Package config loads askdb settings from defaults, a YAML file, a .env
// file, ASKDB_* environment variables, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/csheth/askdb/internal/ask"
)

const (
	// EnvPrefix is the prefix for environment overrides: ASKDB_ENDPOINT -> endpoint.
	EnvPrefix = "ASKDB_"

	DefaultTimeout  = 60 * time.Second
	DefaultOutput   = "table"
	DefaultLogLevel = "info"
	appDirName      = "askdb"
)

// Config holds every askdb setting.
type Config struct {
	Endpoint         string        `koanf:"endpoint"`
	Timeout          time.Duration `koanf:"timeout"`
	StatusCheck      bool          `koanf:"status_check"`
	CancelSuperseded bool          `koanf:"cancel_superseded"`
	Output           string        `koanf:"output"`
	ExportDir        string        `koanf:"export_dir"`
	LogFile          string        `koanf:"log_file"`
	LogLevel         string        `koanf:"log_level"`
	LogJSON          bool          `koanf:"log_json"`
	NoAltScreen      bool          `koanf:"no_alt_screen"`
	NoColor          bool          `koanf:"no_color"`
	Verbose          bool          `koanf:"verbose"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"endpoint":          ask.DefaultEndpoint,
		"timeout":           DefaultTimeout.String(),
		"status_check":      true,
		"cancel_superseded": true,
		"output":            DefaultOutput,
		"export_dir":        DefaultExportDir(),
		"log_file":          "",
		"log_level":         DefaultLogLevel,
		"log_json":          false,
		"no_alt_screen":     false,
		"no_color":          false,
		"verbose":           false,
	}
}

// DefaultExportDir is $XDG_DATA_HOME/askdb/exports, falling back to
// ~/.local/share/askdb/exports.
func DefaultExportDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDirName, "exports")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", appDirName, "exports")
	}
	return filepath.Join(home, ".local", "share", appDirName, "exports")
}

// HistoryFile is where the line-mode prompt keeps its history.
func (c *Config) HistoryFile() string {
	return filepath.Join(filepath.Dir(c.ExportDir), "repl_history")
}
