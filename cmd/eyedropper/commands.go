package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/config"
	"github.com/finefindus/eyedropper/internal/history"
	"github.com/finefindus/eyedropper/internal/logger"
	"github.com/finefindus/eyedropper/internal/palette"
	"github.com/finefindus/eyedropper/internal/swatch"
	"github.com/finefindus/eyedropper/internal/update"
)

// ///////////////////////////////////////////////
// Flag Helpers
// ///////////////////////////////////////////////

// alphaFlag is a flag.Value for an AlphaPosition.
type alphaFlag struct{ pos *color.AlphaPosition }

func (f alphaFlag) String() string {
	if f.pos == nil {
		return color.AlphaEnd.String()
	}
	return f.pos.String()
}

func (f alphaFlag) Set(s string) error {
	p, err := color.ParseAlphaPosition(s)
	if err != nil {
		return err
	}
	*f.pos = p
	return nil
}

// newFlagSet returns a quiet flag set; errors are reported through errUsage.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(splitFlags(fs, args)); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// ///////////////////////////////////////////////
// parse / format / convert
// ///////////////////////////////////////////////

// cmdParse prints every argument's canonical hex and CSS form. All arguments
// are attempted; the command fails if any of them was rejected.
func cmdParse(a *app, args []string) error {
	fs := newFlagSet("parse")
	pos := a.cfg.AlphaPosition()
	fs.Var(alphaFlag{&pos}, "alpha", "position of the alpha pair in 8-digit input")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	failed := 0
	for _, in := range fs.Args() {
		c, err := color.Parse(in, pos)
		if err != nil {
			failed++
			fmt.Fprintf(a.stderr, "%q: %s\n", in, describe(err))
			continue
		}
		fmt.Fprintf(a.stdout, "%s\t%s\n", color.Format(c, pos), c.CSS())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d colors could not be parsed", failed, fs.NArg())
	}
	return nil
}

// cmdFormat prints the hex string for decimal channel values.
func cmdFormat(a *app, args []string) error {
	fs := newFlagSet("format")
	pos := a.cfg.AlphaPosition()
	fs.Var(alphaFlag{&pos}, "alpha", "position of the alpha pair in the output")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 3 && fs.NArg() != 4 {
		return errUsage
	}

	ch := [4]uint8{0, 0, 0, 255}
	for i, s := range fs.Args() {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return fmt.Errorf("channel %d: %q is not a value from 0 to 255", i+1, s)
		}
		ch[i] = uint8(v)
	}
	fmt.Fprintln(a.stdout, color.Format(color.New(ch[0], ch[1], ch[2], ch[3]), pos))
	return nil
}

// cmdConvert rewrites hex colors from one alpha layout to the other.
func cmdConvert(a *app, args []string) error {
	fs := newFlagSet("convert")
	from, to := color.AlphaEnd, color.AlphaEnd
	fs.Var(alphaFlag{&from}, "from", "alpha layout of the input")
	fs.Var(alphaFlag{&to}, "to", "alpha layout of the output")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	for _, in := range fs.Args() {
		out, err := color.Convert(in, from, to)
		if err != nil {
			return fmt.Errorf("%q: %s", in, describe(err))
		}
		fmt.Fprintln(a.stdout, out)
	}
	return nil
}

// describe renders a parse error for people, with the offending position
// when one is known.
func describe(err error) string {
	var pe *color.ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	if pe.Offset >= 0 {
		return fmt.Sprintf("%v: %s (at position %d)", pe.Kind, color.Describe(err), pe.Offset+1)
	}
	return fmt.Sprintf("%v: %s", pe.Kind, color.Describe(err))
}

// ///////////////////////////////////////////////
// history / palettes / log / version
// ///////////////////////////////////////////////

func (a *app) historyStore() *history.Store {
	return history.NewStore(a.paths.History(), a.paths.HistoryLock(), a.cfg.History.MaxEntries)
}

// cmdHistory lists copied colors, newest first, or clears them.
func cmdHistory(a *app, args []string) error {
	fs := newFlagSet("history")
	n := fs.Int("n", 0, "show at most N entries (0 for all)")
	clearAll := fs.Bool("clear", false, "remove every entry")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 || *n < 0 {
		return errUsage
	}

	store := a.historyStore()
	if *clearAll {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "history cleared")
		return nil
	}

	items, err := store.Load()
	if err != nil {
		return err
	}
	if *n > 0 && len(items) > *n {
		items = items[:*n]
	}
	pos := a.cfg.AlphaPosition()
	for _, it := range items {
		c, err := it.Color()
		if err != nil {
			fmt.Fprintf(a.stderr, "skipping damaged entry %q\n", it.Hex)
			continue
		}
		when := time.Unix(it.CopiedAt, 0).Format(time.DateTime)
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", color.Format(c, pos), c.CSS(), when)
	}
	return nil
}

// loadPalettes reads every configured palette source.
func (a *app) loadPalettes() (*palette.Set, error) {
	return palette.LoadAll(palette.Sources{
		Dir:      a.cfg.PaletteDir(a.paths.Root),
		Patterns: a.cfg.Palettes.Patterns,
		URLs:     a.cfg.Palettes.URLs,
		CacheDir: a.paths.PaletteCache(),
	}, a.cfg.AlphaPosition())
}

// cmdPalettes prints each palette and its colors.
func cmdPalettes(a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	set, err := a.loadPalettes()
	if err != nil {
		return err
	}
	if len(set.Palettes) == 0 {
		fmt.Fprintf(a.stdout, "no palettes in %s\n", a.cfg.PaletteDir(a.paths.Root))
		return nil
	}
	pos := a.cfg.AlphaPosition()
	for _, p := range set.Palettes {
		fmt.Fprintf(a.stdout, "%s (%s)\n", p.Name, p.Source)
		for _, e := range p.Entries {
			fmt.Fprintf(a.stdout, "  %-20s %s\n", e.Name, color.Format(e.Color, pos))
		}
	}
	return nil
}

// cmdLog prints the last lines of the log file.
func cmdLog(a *app, args []string) error {
	fs := newFlagSet("log")
	n := fs.Int("n", 20, "number of lines")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return errUsage
	}
	lines, err := logger.ReadTail(a.paths.Log(), *n)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintln(a.stdout, l)
	}
	return nil
}

// cmdVersion prints the build version and, with -check, compares it with
// the release manifest named in the config.
func cmdVersion(a *app, args []string) error {
	fs := newFlagSet("version")
	check := fs.Bool("check", false, "compare with the latest release")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return errUsage
	}

	ver := resolveVersion()
	fmt.Fprintf(a.stdout, "eyedropper %s\n", ver)
	if !*check {
		return nil
	}

	cfg, err := config.Load(a.paths.Root)
	if err != nil {
		return err
	}
	if cfg.Update.ManifestURL == "" {
		return errors.New("update.manifest_url is not set")
	}
	res, err := update.Check(cfg.Update.ManifestURL, ver)
	if err != nil {
		return err
	}
	if res.Available {
		fmt.Fprintf(a.stdout, "newer version available: %s\n", res.Latest)
	} else {
		fmt.Fprintf(a.stdout, "latest release: %s\n", res.Latest)
	}
	return nil
}

// ///////////////////////////////////////////////
// swatch
// ///////////////////////////////////////////////

// cmdSwatch renders palettes, palette colors or hex colors to a PNG. With no
// arguments every loaded palette is drawn.
func cmdSwatch(a *app, args []string) error {
	fs := newFlagSet("swatch")
	out := fs.String("o", "swatch.png", "output PNG file")
	cell := fs.Int("cell", a.cfg.Swatch.CellSize, "square size in pixels")
	cols := fs.Int("columns", a.cfg.Swatch.Columns, "squares per row")
	labels := fs.Bool("labels", a.cfg.Swatch.Labels, "draw hex and name under each square")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *cell < config.MinCellSize || *cell > config.MaxCellSize {
		return fmt.Errorf("%w: -cell must be between %d and %d, got %d", errUsage, config.MinCellSize, config.MaxCellSize, *cell)
	}
	if *cols <= 0 {
		return fmt.Errorf("%w: -columns must be positive, got %d", errUsage, *cols)
	}

	set, err := a.loadPalettes()
	if err != nil {
		return err
	}
	pos := a.cfg.AlphaPosition()
	entries, err := swatchEntries(set, fs.Args(), pos)
	if err != nil {
		return err
	}

	opts := swatch.Options{CellSize: *cell, Columns: *cols, Labels: *labels, AlphaPosition: pos}
	if err := swatch.WriteFile(*out, entries, opts); err != nil {
		return err
	}
	slog.Info("swatch written", "path", *out, "colors", len(entries))
	fmt.Fprintf(a.stdout, "wrote %s (%d colors)\n", *out, len(entries))
	return nil
}

// swatchEntries expands each ref: a palette name yields all its colors, then
// hex text in pos, then palette color references.
func swatchEntries(set *palette.Set, refs []string, pos color.AlphaPosition) ([]palette.Entry, error) {
	var entries []palette.Entry
	if len(refs) == 0 {
		for _, p := range set.Palettes {
			entries = append(entries, p.Entries...)
		}
		return entries, nil
	}
	for _, ref := range refs {
		if p, ok := set.Find(ref); ok {
			entries = append(entries, p.Entries...)
			continue
		}
		c, err := color.Parse(ref, pos)
		if err == nil {
			entries = append(entries, palette.Entry{Color: c})
			continue
		}
		if e, ok := set.Resolve(ref); ok {
			entries = append(entries, e)
			continue
		}
		return nil, fmt.Errorf("%q does not name a palette or a color: %s", ref, describe(err))
	}
	return entries, nil
}
