// Package main implements the eyedropper command, a terminal shell around the
// hex color entry. It parses, formats and converts hex colors, runs an
// interactive picker that copies colors to the clipboard, manages the
// copied-color history and palettes, and renders swatches.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	rootpkg "github.com/finefindus/eyedropper"
	"github.com/finefindus/eyedropper/internal/config"
	"github.com/finefindus/eyedropper/internal/logger"
	"github.com/finefindus/eyedropper/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - goreleaser: -X main.version={{.Version}}  -> "0.1.0"
//   - make build: -X main.version=$(VERSION)    -> "0.0.0-dev+05ffee5"
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically.
var version = "dev"

// resolveVersion returns the ldflags version, or "dev+<hash>" built from the
// embedded VCS revision.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns ~/.eyedropper, or ./.eyedropper when the home
// directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Commands
// ///////////////////////////////////////////////

// errUsage makes run print the command's usage and exit with status 2.
var errUsage = errors.New("usage")

// command is one subcommand. needsEnv commands get a loaded config and the
// file logger; the rest run without touching the data directory.
type command struct {
	usage    string
	summary  string
	needsEnv bool
	run      func(a *app, args []string) error
}

var commands = map[string]command{
	"parse":    {"parse [-alpha end|start] HEX...", "print the channels of hex colors", false, cmdParse},
	"format":   {"format [-alpha end|start] R G B [A]", "print the hex form of channel values", false, cmdFormat},
	"convert":  {"convert -from end|start -to end|start HEX...", "move the alpha pair between layouts", false, cmdConvert},
	"pick":     {"pick", "interactive picker reading hex colors or palette names from stdin", true, cmdPick},
	"history":  {"history [-n N] [-clear]", "show or clear copied colors", true, cmdHistory},
	"palettes": {"palettes", "list loaded palettes", true, cmdPalettes},
	"swatch":   {"swatch [-o FILE] [-cell N] [-columns N] [-labels] [REF...]", "render colors or palettes to a PNG", true, cmdSwatch},
	"log":      {"log [-n N]", "print the end of the log file", true, cmdLog},
	"version":  {"version [-check]", "print the version, optionally checking for a newer release", false, cmdVersion},
}

// app carries what every command needs.
type app struct {
	paths  DataPaths
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataDir := fs.String("data-dir", defaultDataDir(), "Data directory for config, history, palettes, and logs")
	verbose := fs.Bool("v", false, "Also write log lines to stderr")
	fs.Usage = func() { printUsage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		printUsage(stderr, fs)
		return 2
	}

	a := &app{paths: DataPaths{Root: *dataDir}, stdin: stdin, stdout: stdout, stderr: stderr}
	if cmd.needsEnv {
		var echo io.Writer
		if *verbose {
			echo = stderr
		}
		prev := slog.Default()
		closer, err := a.setup(echo)
		if err != nil {
			fmt.Fprintf(stderr, "fatal: %v\n", err)
			return 1
		}
		defer func() {
			slog.SetDefault(prev)
			closer.Close()
		}()
	} else {
		a.cfg = loadConfigReadOnly(a.paths.Root, stderr)
	}

	err := cmd.run(a, fs.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		if err != errUsage {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
		}
		fmt.Fprintf(stderr, "usage: %s %s\n", paths.BinaryName, cmd.usage)
		return 2
	default:
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
}

// setup creates the data directory, writes the default config on first run,
// loads the config and installs the file logger as the slog default.
func (a *app) setup(echo io.Writer) (io.Closer, error) {
	if err := os.MkdirAll(a.paths.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	if _, err := os.Stat(a.paths.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(a.paths.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(a.stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(a.paths.Root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, closer := logger.NewLogger(logger.Options{
		Path:      a.paths.Log(),
		Level:     logger.ParseLevel(cfg.Log.Level),
		MaxSizeMB: cfg.Log.MaxSizeMB,
		Echo:      echo,
	})
	slog.SetDefault(log)
	slog.Debug("eyedropper starting", "version", resolveVersion(), "data_dir", a.paths.Root)
	return closer, nil
}

// loadConfigReadOnly loads the config for commands that do not need the data
// directory. A missing file gives the defaults and creates nothing; a broken
// one is reported and replaced by the defaults.
func loadConfigReadOnly(dataDir string, stderr io.Writer) *config.Config {
	cfg, err := config.Load(dataDir)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v; using defaults\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: %s [flags] <command> [args]\n\ncommands:\n", paths.BinaryName)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := commands[n]
		fmt.Fprintf(w, "  %-44s %s\n", c.usage, c.summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}

// splitFlags moves flag arguments ahead of positionals so flags may follow
// hex arguments ("parse ff0000 -alpha start"). A lone "--" stops the scan.
func splitFlags(fs *flag.FlagSet, args []string) []string {
	var flags, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || len(arg) < 2 || isNumber(arg) {
			rest = append(rest, arg)
			continue
		}
		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(append(flags, "--"), rest...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// isNumber reports whether s looks like a negative number rather than a flag.
func isNumber(s string) bool {
	for _, r := range strings.TrimPrefix(s, "-") {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
