package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"

	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/entry"
	"github.com/finefindus/eyedropper/internal/history"
	"github.com/finefindus/eyedropper/internal/logger"
	"github.com/finefindus/eyedropper/internal/palette"
)

// ///////////////////////////////////////////////
// Picker
// ///////////////////////////////////////////////

const pickHelp = `enter a hex color (#rrggbb, #rrggbbaa) or a palette color name
  :copy              copy the current color to the clipboard
  :alpha end|start   change where the alpha pair goes
  :help              show this help
  :quit              leave`

// picker is the state of one interactive session. It is driven from the
// single loop in cmdPick.
type picker struct {
	a      *app
	entry  *entry.Entry
	store  *history.Store
	remote []*palette.Palette
	set    *palette.Set
}

func newPicker(a *app) *picker {
	p := &picker{a: a, set: &palette.Set{}}
	p.entry = entry.New(entry.Options{
		AlphaPosition:  a.cfg.AlphaPosition(),
		TrimWhitespace: a.cfg.Entry.TrimWhitespace,
		FailureMessage: a.cfg.Entry.FailureMessage,
		Clipboard:      osc52Clipboard{w: a.stderr},
		Notifier:       toastNotifier{w: a.stderr},
	})
	if a.cfg.History.Enabled {
		p.store = a.historyStore()
	}

	p.entry.OnColorChanged(func(text string) {
		logger.Trace(slog.Default(), "entry text changed", "text", text)
	})
	p.entry.OnCopiedColor(p.recordCopy)
	return p
}

// recordCopy adds a copied color to the history. Text that is not a color is
// copied but not recorded.
func (p *picker) recordCopy(text string) {
	if p.store == nil {
		return
	}
	c, err := color.Parse(strings.TrimSpace(text), p.entry.AlphaPosition())
	if err != nil {
		slog.Debug("copied text is not a color, not recorded", "text", text)
		return
	}
	if err := p.store.Add(c); err != nil {
		slog.Warn("failed to record copied color", "error", err)
	}
}

// loadPalettes fetches remote palettes once and local ones on every call.
func (p *picker) loadPalettes(fetchRemote bool) {
	cfg := p.a.cfg
	pos := cfg.AlphaPosition()
	if fetchRemote {
		p.remote = palette.FetchAll(cfg.Palettes.URLs, p.a.paths.PaletteCache(), pos)
	}
	local, err := palette.LoadDir(cfg.PaletteDir(p.a.paths.Root), cfg.Palettes.Patterns, pos)
	if err != nil {
		slog.Warn("failed to load palettes", "error", err)
		return
	}
	p.set = &palette.Set{Palettes: append(local, p.remote...)}
	slog.Info("palettes loaded", "palettes", len(p.set.Palettes), "colors", p.set.Len())
}

// handle processes one input line and reports whether the session should end.
func (p *picker) handle(line string) (quit bool) {
	cmd := strings.TrimSpace(line)
	switch {
	case cmd == "":
	case cmd == ":quit" || cmd == ":q":
		return true
	case cmd == ":help":
		fmt.Fprintln(p.a.stdout, pickHelp)
	case cmd == ":copy":
		p.copy()
	case cmd == ":alpha" || strings.HasPrefix(cmd, ":alpha "):
		p.setAlpha(strings.TrimSpace(strings.TrimPrefix(cmd, ":alpha")))
	case strings.HasPrefix(cmd, ":"):
		fmt.Fprintf(p.a.stderr, "unknown command %s (try :help)\n", cmd)
	default:
		p.activate(line)
	}
	return false
}

// activate parses the line as hex or, failing that, resolves a palette
// reference. Hex always wins so typed colors follow the session's alpha
// layout, not the layout a palette was written in. A valid color replaces the
// entry text with its canonical form.
func (p *picker) activate(line string) {
	pos := p.entry.AlphaPosition()
	ref := strings.TrimSpace(line)
	if _, err := color.Parse(ref, pos); err != nil {
		if e, ok := p.set.Resolve(ref); ok {
			p.entry.SetColor(e.Color)
			fmt.Fprintf(p.a.stdout, "%s\t%s\t%s\n", color.Format(e.Color, pos), e.Color.CSS(), e.Name)
			return
		}
	}

	p.entry.SetText(line)
	c, err := p.entry.Activate()
	if err != nil {
		fmt.Fprintf(p.a.stderr, "  %s\n", describe(err))
		return
	}
	p.entry.SetColor(c)
	fmt.Fprintf(p.a.stdout, "%s\t%s\n", color.Format(c, pos), c.CSS())
}

func (p *picker) copy() {
	err := p.entry.Copy()
	switch {
	case errors.Is(err, entry.ErrEmpty):
		fmt.Fprintln(p.a.stderr, "nothing to copy")
	case err != nil:
		fmt.Fprintf(p.a.stderr, "copy failed: %v\n", err)
	default:
		fmt.Fprintf(p.a.stdout, "copied %s\n", p.entry.Text())
	}
}

func (p *picker) setAlpha(arg string) {
	if arg == "" {
		fmt.Fprintf(p.a.stdout, "alpha position: %s\n", p.entry.AlphaPosition())
		return
	}
	pos, err := color.ParseAlphaPosition(arg)
	if err != nil {
		fmt.Fprintln(p.a.stderr, err)
		return
	}
	// Keep a valid entry showing the same color in the new layout.
	c, parseErr := color.Parse(p.entry.Text(), p.entry.AlphaPosition())
	p.entry.SetAlphaPosition(pos)
	if parseErr == nil {
		p.entry.SetColor(c)
	}
	fmt.Fprintf(p.a.stdout, "alpha position: %s\n", pos)
}

// ///////////////////////////////////////////////
// Event Loop
// ///////////////////////////////////////////////

// cmdPick runs the picker until stdin ends, :quit, or a shutdown signal.
// Palette directory changes reload palettes between lines.
func cmdPick(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	p := newPicker(a)
	p.loadPalettes(true)

	var paletteEvents <-chan struct{}
	if a.cfg.Palettes.Watch {
		w, err := palette.NewWatcher(a.cfg.PaletteDir(a.paths.Root))
		if err != nil {
			slog.Warn("palette watcher unavailable", "error", err)
		} else {
			defer w.Close()
			paletteEvents = w.Events()
			if w.Polling() {
				slog.Info("using polling mode for palette directory")
			}
		}
	}

	sigCh := signalChannel()
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	lines := readLines(a.stdin, done)

	fmt.Fprintln(a.stderr, "type :help for commands")
	for {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			return nil
		case <-paletteEvents:
			p.loadPalettes(false)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if p.handle(line) {
				return nil
			}
		}
	}
}

// readLines delivers r line by line until EOF or until done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("reading input", "error", err)
		}
	}()
	return lines
}
