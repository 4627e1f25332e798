// Package config provides configuration loading and defaults for eyedropper.
//
// Configuration is loaded from a TOML file in the user's data directory.
// It covers hex formatting, hex entry behavior, copied-color history,
// palette sources, swatch rendering, update checks, and logging.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/finefindus/eyedropper/internal/atomicfile"
	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/migrate"
	"github.com/finefindus/eyedropper/internal/paths"
)

// DefaultFailureMessage is the notification shown when entry text is not a color.
const DefaultFailureMessage = "Failed to parse color"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Format holds hex text layout settings.
	Format FormatConfig `toml:"format"`
	// Entry holds hex entry behavior.
	Entry EntryConfig `toml:"entry"`
	// History holds copied-color history settings.
	History HistoryConfig `toml:"history"`
	// Palettes holds palette source settings.
	Palettes PalettesConfig `toml:"palettes"`
	// Swatch holds PNG swatch rendering defaults.
	Swatch SwatchConfig `toml:"swatch"`
	// Update holds release check settings.
	Update UpdateConfig `toml:"update"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// FormatConfig holds hex text layout settings.
type FormatConfig struct {
	// AlphaPosition is "end" (RRGGBBAA) or "start" (AARRGGBB).
	AlphaPosition string `toml:"alpha_position"`
}

// EntryConfig holds hex entry behavior.
type EntryConfig struct {
	// TrimWhitespace strips surrounding whitespace before parsing.
	TrimWhitespace bool `toml:"trim_whitespace"`
	// FailureMessage is the notification text for unparseable input.
	FailureMessage string `toml:"failure_message"`
}

// HistoryConfig holds copied-color history settings.
type HistoryConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// PalettesConfig holds palette source settings.
type PalettesConfig struct {
	// Dir is the palette directory; empty means <data-dir>/palettes.
	Dir string `toml:"dir"`
	// Patterns are doublestar globs, relative to Dir, selecting palette files.
	Patterns []string `toml:"patterns"`
	// URLs are remote palette documents fetched at startup.
	URLs []string `toml:"urls"`
	// Watch reloads palettes when files in Dir change.
	Watch bool `toml:"watch"`
}

// SwatchConfig holds PNG swatch rendering defaults.
type SwatchConfig struct {
	// CellSize is the edge length of one color square in pixels.
	CellSize int `toml:"cell_size"`
	// Columns is the number of squares per row.
	Columns int `toml:"columns"`
	// Labels draws each color's name and hex below its square.
	Labels bool `toml:"labels"`
}

// UpdateConfig holds release check settings.
type UpdateConfig struct {
	// ManifestURL points at a JSON object whose "." key is the latest
	// release version. Empty disables "version -check".
	ManifestURL string `toml:"manifest_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Format: FormatConfig{
			AlphaPosition: "end",
		},
		Entry: EntryConfig{
			TrimWhitespace: false,
			FailureMessage: DefaultFailureMessage,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 50,
		},
		Palettes: PalettesConfig{
			Dir:      "",
			Patterns: []string{"**/*.yaml", "**/*.yml", "**/*.txt"},
			URLs:     []string{},
			Watch:    true,
		},
		Swatch: SwatchConfig{
			CellSize: 96,
			Columns:  8,
			Labels:   true,
		},
		Update: UpdateConfig{
			ManifestURL: "",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Migrations
// ///////////////////////////////////////////////

func init() {
	migrate.Config.Register(migrate.Migration{
		Version:     2,
		Description: "move alpha_position into [format]",
		Upgrade:     moveAlphaPosition,
	})
}

// moveAlphaPosition upgrades v1 files, which kept alpha_position at the top
// level, to the v2 layout with a [format] table.
func moveAlphaPosition(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode v1 config: %w", err)
	}
	if v, ok := doc["alpha_position"]; ok {
		format, _ := doc["format"].(map[string]any)
		if format == nil {
			format = map[string]any{}
		}
		if _, set := format["alpha_position"]; !set {
			format["alpha_position"] = v
		}
		doc["format"] = format
		delete(doc, "alpha_position")
	}
	doc["version"] = 2

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode v2 config: %w", err)
	}
	return buf.Bytes(), nil
}

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil || v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses dataDir/config.toml. A missing file yields
// DefaultConfig. Older schema versions are migrated, backed up to
// config.toml.bak, and re-saved.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)
	migrated := migrate.Config.NeedsMigration(version)
	if migrated {
		if backupErr := atomicfile.Write(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		data, _, err = migrate.Config.Run(data, version)
		if err != nil {
			return nil, fmt.Errorf("migrate config: %w", err)
		}
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "key", key.String())
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if migrated {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// Swatch cells smaller than the label font or large enough to exhaust memory
// are rejected.
const (
	MinCellSize = 16
	MaxCellSize = 1024
)

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if _, err := color.ParseAlphaPosition(c.Format.AlphaPosition); err != nil {
		return fmt.Errorf("invalid format.alpha_position %q: must be start or end", c.Format.AlphaPosition)
	}

	if strings.TrimSpace(c.Entry.FailureMessage) == "" {
		return fmt.Errorf("entry.failure_message must not be empty")
	}

	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be > 0, got %d", c.History.MaxEntries)
	}

	for _, p := range c.Palettes.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid palettes.patterns entry %q", p)
		}
	}

	for _, u := range c.Palettes.URLs {
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			return fmt.Errorf("invalid palettes.urls entry %q: must be an http(s) URL", u)
		}
	}

	if c.Swatch.CellSize < MinCellSize || c.Swatch.CellSize > MaxCellSize {
		return fmt.Errorf("swatch.cell_size must be between %d and %d, got %d", MinCellSize, MaxCellSize, c.Swatch.CellSize)
	}

	if c.Swatch.Columns <= 0 {
		return fmt.Errorf("swatch.columns must be > 0, got %d", c.Swatch.Columns)
	}

	if u := c.Update.ManifestURL; u != "" && !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return fmt.Errorf("invalid update.manifest_url %q: must be an http(s) URL", u)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}

	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// AlphaPosition returns the configured alpha layout. Invalid values, which
// Validate rejects, fall back to AlphaEnd.
func (c *Config) AlphaPosition() color.AlphaPosition {
	pos, err := color.ParseAlphaPosition(c.Format.AlphaPosition)
	if err != nil {
		return color.AlphaEnd
	}
	return pos
}

// PaletteDir resolves the palette directory against dataDir.
func (c *Config) PaletteDir(dataDir string) string {
	switch {
	case c.Palettes.Dir == "":
		return paths.DataDir{Root: dataDir}.Palettes()
	case strings.HasPrefix(c.Palettes.Dir, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.Palettes.Dir[2:])
		}
		return c.Palettes.Dir
	case filepath.IsAbs(c.Palettes.Dir):
		return c.Palettes.Dir
	default:
		return filepath.Join(dataDir, c.Palettes.Dir)
	}
}
