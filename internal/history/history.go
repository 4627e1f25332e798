// Package history records copied colors in a small JSON file shared by every
// eyedropper process. Writers serialize through an advisory lock on a
// sibling lock file and replace the JSON atomically.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/finefindus/eyedropper/internal/atomicfile"
	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/migrate"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Item is one copied color.
type Item struct {
	// Hex is the canonical "#rrggbbaa" form (alpha last).
	Hex string `json:"hex"`
	// CopiedAt is a Unix timestamp in seconds.
	CopiedAt int64 `json:"copied_at"`
}

// Color parses the stored hex.
func (it Item) Color() (color.Color, error) {
	return color.Parse(it.Hex, color.AlphaEnd)
}

// file is the on-disk document.
type file struct {
	Version int    `json:"version"`
	Entries []Item `json:"entries"`
}

// Store reads and updates one history file.
type Store struct {
	path     string
	lockPath string
	max      int
	now      func() time.Time
}

// NewStore returns a Store for path, keeping at most max entries and using
// lockPath for cross-process exclusion.
func NewStore(path, lockPath string, max int) *Store {
	return &Store{path: path, lockPath: lockPath, max: max, now: time.Now}
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Load returns the entries, newest first. A missing file is empty history.
func (s *Store) Load() ([]Item, error) {
	f, err := s.read()
	if err != nil {
		return nil, err
	}
	return f.Entries, nil
}

// Add records c as the newest entry. Re-copying the newest color only
// refreshes its timestamp. Older entries beyond the limit are dropped.
func (s *Store) Add(c color.Color) error {
	return s.update(func(f *file) {
		item := Item{Hex: color.Format(c, color.AlphaEnd), CopiedAt: s.now().Unix()}
		if len(f.Entries) > 0 && f.Entries[0].Hex == item.Hex {
			f.Entries[0] = item
		} else {
			f.Entries = append([]Item{item}, f.Entries...)
		}
		if len(f.Entries) > s.max {
			f.Entries = f.Entries[:s.max]
		}
	})
}

// Clear removes every entry.
func (s *Store) Clear() error {
	return s.update(func(f *file) { f.Entries = nil })
}

// ///////////////////////////////////////////////
// Internal helpers
// ///////////////////////////////////////////////

// update runs fn on the current contents under the lock and writes the result.
func (s *Store) update(fn func(f *file)) error {
	lf, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open history lock: %w", err)
	}
	defer lf.Close()
	if err := lockFile(lf); err != nil {
		return err
	}
	defer unlockFile(lf)

	f, err := s.read()
	if err != nil {
		return err
	}
	fn(f)
	f.Version = migrate.History.CurrentVersion

	return atomicfile.WriteFunc(s.path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	})
}

// read loads and, if needed, migrates the history file.
func (s *Store) read() (*file, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &file{Version: migrate.History.CurrentVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var peek struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	if peek.Version == 0 {
		peek.Version = 1
	}
	if migrate.History.NeedsMigration(peek.Version) {
		if data, _, err = migrate.History.Run(data, peek.Version); err != nil {
			return nil, fmt.Errorf("migrate history: %w", err)
		}
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return &f, nil
}
