// Package migrate applies sequential schema migrations to on-disk data,
// upgrading from one version to the next.
package migrate

import (
	"fmt"
	"log/slog"
	"slices"
)

// Migration upgrades raw file contents to Version from the version before it.
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description is a short human-readable label for log output.
	Description string
	// Upgrade transforms data from the prior version to Version.
	Upgrade func(data []byte) ([]byte, error)
}

// Run applies, in version order, every migration newer than fromVersion.
// It returns the transformed data and the last version reached; on error the
// version is the one before the failing migration.
func Run(data []byte, fromVersion int, migrations []Migration) ([]byte, int, error) {
	version := fromVersion
	for _, m := range Pending(fromVersion, migrations) {
		slog.Info("applying migration", "version", m.Version, "description", m.Description)
		out, err := m.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		data, version = out, m.Version
	}
	return data, version, nil
}

// Pending returns the migrations newer than fromVersion, sorted by version.
func Pending(fromVersion int, migrations []Migration) []Migration {
	var out []Migration
	for _, m := range migrations {
		if m.Version > fromVersion {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out
}

// ///////////////////////////////////////////////
// Registry
// ///////////////////////////////////////////////

// Registry holds the current version and migrations for one file kind.
type Registry struct {
	// CurrentVersion is the schema version written by this build.
	CurrentVersion int
	// Migrations is exported so tests can swap the list.
	Migrations []Migration
}

// Register adds m. It panics on a duplicate version or a version beyond
// CurrentVersion, both of which are programming errors.
func (r *Registry) Register(m Migration) {
	if m.Version > r.CurrentVersion {
		panic(fmt.Sprintf("migrate: migration v%d exceeds current version %d", m.Version, r.CurrentVersion))
	}
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (description: %q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
}

// NeedsMigration reports whether a file at fileVersion must be rewritten.
func (r *Registry) NeedsMigration(fileVersion int) bool {
	return fileVersion != r.CurrentVersion
}

// Run upgrades data from fromVersion. Data newer than CurrentVersion is
// rejected since this build cannot know its shape.
func (r *Registry) Run(data []byte, fromVersion int) ([]byte, int, error) {
	if fromVersion > r.CurrentVersion {
		return nil, fromVersion, fmt.Errorf("file version %d is newer than supported version %d", fromVersion, r.CurrentVersion)
	}
	return Run(data, fromVersion, r.Migrations)
}

// Config is the migration registry for config.toml.
var Config = &Registry{CurrentVersion: 2}

// History is the migration registry for history.json.
var History = &Registry{CurrentVersion: 1}
