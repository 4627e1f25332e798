// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	ConfigFile      = "config.toml"
	LogFile         = "eyedropper.log"
	HistoryFile     = "history.json"
	HistoryLockFile = "history.lock"
	PalettesDir     = "palettes"
	PaletteCacheDir = "palette-cache"
)

const (
	BinaryName = "eyedropper"
	DataDirRel = ".eyedropper" // relative to $HOME
)

// Settings keys the GUI shell persists window geometry under. Reserved here so
// headless tools never reuse them; nothing in this module reads or writes them.
const (
	KeyWindowWidth  = "window-width"
	KeyWindowHeight = "window-height"
	KeyIsMaximized  = "is-maximized"
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// History returns the full path to the copied-color history.
func (d DataDir) History() string { return filepath.Join(d.Root, HistoryFile) }

// HistoryLock returns the full path to the lock file guarding History.
func (d DataDir) HistoryLock() string { return filepath.Join(d.Root, HistoryLockFile) }

// Palettes returns the default palette directory.
func (d DataDir) Palettes() string { return filepath.Join(d.Root, PalettesDir) }

// PaletteCache returns the directory holding cached remote palettes.
func (d DataDir) PaletteCache() string { return filepath.Join(d.Root, PaletteCacheDir) }
