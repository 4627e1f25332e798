package palette

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher signals when the palette directory changes, using fsnotify with a
// polling fallback.
type Watcher struct {
	dir string
	// events is buffered to 1 so bursts of file writes coalesce into one reload.
	events chan struct{}
	done   chan struct{}
	once   sync.Once

	// mu guards fsw, which is nil when polling or closed.
	mu  sync.Mutex
	fsw *fsnotify.Watcher

	polling      atomic.Bool
	pollInterval time.Duration
}

// NewWatcher watches dir and its existing subdirectories. A directory that
// does not exist yet is polled until it appears.
func NewWatcher(dir string) (*Watcher, error) {
	return newWatcher(dir, 2*time.Second)
}

func newWatcher(dir string, pollInterval time.Duration) (*Watcher, error) {
	w := &Watcher{
		dir:          dir,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: pollInterval,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, polling palette directory", "error", err)
		w.startPolling()
		return w, nil
	}

	if err := addTree(fsw, dir); err != nil {
		slog.Info("cannot watch palette directory, polling", "path", dir, "error", err)
		fsw.Close()
		w.startPolling()
		return w, nil
	}

	w.fsw = fsw
	go w.watch(fsw)
	return w, nil
}

// addTree registers dir and every directory below it.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
}

// Polling reports whether the watcher fell back to polling.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal after the directory changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if fsw := w.takeFSW(); fsw != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

// takeFSW hands the fsnotify watcher to exactly one caller.
func (w *Watcher) takeFSW() *fsnotify.Watcher {
	w.mu.Lock()
	defer w.mu.Unlock()
	fsw := w.fsw
	w.fsw = nil
	return fsw
}

func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories need their own watch.
				_ = addTree(fsw, event.Name)
			}
			w.notify()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			w.fallBack()
			return
		}
	}
}

// fallBack replaces a failed fsnotify watcher with polling. Changes during
// the switch may have been lost, so one reload is signalled.
func (w *Watcher) fallBack() {
	fsw := w.takeFSW()
	if fsw == nil {
		return // closed
	}
	fsw.Close()
	select {
	case <-w.done:
		return
	default:
	}
	w.startPolling()
	w.notify()
}

// startPolling records the baseline before returning, so changes made right
// after it are seen by the first tick.
func (w *Watcher) startPolling() {
	w.polling.Store(true)
	go w.poll(w.snapshot())
}

// poll compares a snapshot of the tree every interval.
func (w *Watcher) poll(last treeState) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur := w.snapshot()
			if cur != last {
				last = cur
				w.notify()
			}
		}
	}
}

// treeState is what polling compares between ticks.
type treeState struct {
	files  int
	latest time.Time
}

func (w *Watcher) snapshot() treeState {
	var st treeState
	_ = filepath.WalkDir(w.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		st.files++
		if info.ModTime().After(st.latest) {
			st.latest = info.ModTime()
		}
		return nil
	})
	return st
}

// notify sends one signal, dropping it if one is already pending.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
