package main

import (
	"bytes"
	"encoding/base64"
	"flag"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/history"
	"github.com/finefindus/eyedropper/internal/palette"
	"github.com/finefindus/eyedropper/internal/paths"
)

// runCLI runs the command with a fresh data directory unless args already
// name one, and returns the exit status and both streams.
func runCLI(t *testing.T, dataDir, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-data-dir", dataDir}, args...)
	code := run(full, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// ///////////////////////////////////////////////
// resolveVersion Tests
// ///////////////////////////////////////////////

func TestResolveVersionWithLdflags(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	if got := resolveVersion(); got != "1.2.3" {
		t.Errorf("resolveVersion() = %q, want %q", got, "1.2.3")
	}
}

func TestResolveVersionDev(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "dev"
	if got := resolveVersion(); !strings.HasPrefix(got, "dev") {
		t.Errorf("resolveVersion() = %q, expected to start with 'dev'", got)
	}
}

// ///////////////////////////////////////////////
// Dispatch Tests
// ///////////////////////////////////////////////

func TestRunUsage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"paint"}, 2},
		{"parse without args", []string{"parse"}, 2},
		{"format too few channels", []string{"format", "1", "2"}, 2},
		{"bad alpha flag", []string{"parse", "-alpha", "middle", "ff0000"}, 2},
		{"version", []string{"version"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, dir, "", tt.args...)
			if code != tt.want {
				t.Errorf("exit = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestStatelessCommandsDoNotTouchDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if code, _, _ := runCLI(t, dir, "", "parse", "ff0000"); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("parse created the data directory")
	}
}

// ///////////////////////////////////////////////
// parse / format / convert
// ///////////////////////////////////////////////

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    string
		wantErrSub string
	}{
		{
			name:    "six and eight digits",
			args:    []string{"parse", "#FF000080", "00ff00"},
			wantOut: "#ff000080\trgba(255, 0, 0, 0.50)\n#00ff00ff\trgba(0, 255, 0, 1.00)\n",
		},
		{
			name:    "alpha start after positional",
			args:    []string{"parse", "80ff0000", "-alpha", "start"},
			wantOut: "#80ff0000\trgba(255, 0, 0, 0.50)\n",
		},
		{
			name:       "invalid length",
			args:       []string{"parse", "#12345"},
			wantCode:   1,
			wantErrSub: "invalid length",
		},
		{
			name:       "invalid digit with position",
			args:       []string{"parse", "ff00zz"},
			wantCode:   1,
			wantErrSub: "invalid digit: contains a character that is not a hex digit (at position 5)",
		},
		{
			name:       "good colors still printed",
			args:       []string{"parse", "000000", "nope", "ffffff"},
			wantCode:   1,
			wantOut:    "#000000ff\trgba(0, 0, 0, 1.00)\n#ffffffff\trgba(255, 255, 255, 1.00)\n",
			wantErrSub: "1 of 3 colors could not be parsed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, dir, "", tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.wantCode, errOut)
			}
			if tt.wantOut != "" && out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
			if !strings.Contains(errOut, tt.wantErrSub) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.wantErrSub)
			}
		})
	}
}

func TestFormatCommand(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		args     []string
		wantCode int
		wantOut  string
	}{
		{[]string{"format", "255", "0", "0"}, 0, "#ff0000ff\n"},
		{[]string{"format", "255", "0", "0", "128"}, 0, "#ff000080\n"},
		{[]string{"format", "-alpha", "start", "255", "0", "0", "128"}, 0, "#80ff0000\n"},
		{[]string{"format", "256", "0", "0"}, 1, ""},
		{[]string{"format", "-1", "0", "0"}, 1, ""},
	}
	for _, tt := range tests {
		code, out, _ := runCLI(t, dir, "", tt.args...)
		if code != tt.wantCode || out != tt.wantOut {
			t.Errorf("%v = %d, %q; want %d, %q", tt.args, code, out, tt.wantCode, tt.wantOut)
		}
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	code, out, _ := runCLI(t, dir, "", "convert", "-from", "end", "-to", "start", "#ff000080", "00ff00")
	if code != 0 || out != "#80ff0000\n#ff00ff00\n" {
		t.Errorf("convert = %d, %q", code, out)
	}

	code, _, errOut := runCLI(t, dir, "", "convert", "-to", "start", "#ff0000800")
	if code != 1 || !strings.Contains(errOut, "invalid length") {
		t.Errorf("convert bad input = %d, %q", code, errOut)
	}
}

func TestStatelessCommandsUseConfiguredAlpha(t *testing.T) {
	dir := t.TempDir()
	cfg := "version = 2\n[format]\nalpha_position = \"start\"\n"
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(cfg), 0o644)

	tests := []struct {
		args    []string
		wantOut string
	}{
		{[]string{"format", "255", "0", "0", "128"}, "#80ff0000\n"},
		{[]string{"parse", "80ff0000"}, "#80ff0000\trgba(255, 0, 0, 0.50)\n"},
		{[]string{"parse", "-alpha", "end", "ff000080"}, "#ff000080\trgba(255, 0, 0, 0.50)\n"},
	}
	for _, tt := range tests {
		code, out, errOut := runCLI(t, dir, "", tt.args...)
		if code != 0 || out != tt.wantOut {
			t.Errorf("%v = %d, %q (stderr %q); want %q", tt.args, code, out, errOut, tt.wantOut)
		}
	}
}

func TestStatelessCommandsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte("version = 2\n[format]\nalpha_position = \"middle\"\n"), 0o644)

	code, out, errOut := runCLI(t, dir, "", "format", "1", "2", "3")
	if code != 0 || out != "#010203ff\n" {
		t.Errorf("format = %d, %q", code, out)
	}
	if !strings.Contains(errOut, "using defaults") {
		t.Errorf("stderr = %q, want a warning", errOut)
	}
}

// ///////////////////////////////////////////////
// pick
// ///////////////////////////////////////////////

func TestPickSession(t *testing.T) {
	dir := t.TempDir()
	palDir := filepath.Join(dir, paths.PalettesDir)
	os.MkdirAll(palDir, 0o755)
	os.WriteFile(filepath.Join(palDir, "theme.txt"), []byte("accent #112233\n"), 0o644)

	input := strings.Join([]string{
		":copy",
		"#FF000080",
		":copy",
		"nope",
		"theme/accent",
		":alpha start",
		":copy",
		":bogus",
		":quit",
		"#ffffff",
	}, "\n")
	code, out, errOut := runCLI(t, dir, input, "pick")
	if code != 0 {
		t.Fatalf("exit = %d (stderr %q)", code, errOut)
	}

	wantOut := "#ff000080\trgba(255, 0, 0, 0.50)\n" +
		"copied #ff000080\n" +
		"#112233ff\trgba(17, 34, 51, 1.00)\taccent\n" +
		"alpha position: start\n" +
		"copied #ff112233\n"
	if out != wantOut {
		t.Errorf("stdout =\n%s\nwant\n%s", out, wantOut)
	}

	for _, want := range []string{
		"nothing to copy",
		"! Failed to parse color",
		"invalid length",
		"\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte("#ff000080")) + "\a",
		"unknown command :bogus",
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%q", want, errOut)
		}
	}

	store := history.NewStore(filepath.Join(dir, paths.HistoryFile), filepath.Join(dir, paths.HistoryLockFile), 50)
	items, err := store.Load()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var got []string
	for _, it := range items {
		got = append(got, it.Hex)
	}
	if want := []string{"#112233ff", "#ff000080"}; !slices.Equal(got, want) {
		t.Errorf("history = %q, want %q", got, want)
	}
}

func TestPickHistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := "version = 2\n[history]\nenabled = false\nmax_entries = 5\n"
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(cfg), 0o644)

	code, _, _ := runCLI(t, dir, "00ff00\n:copy\n", "pick")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, paths.HistoryFile)); !os.IsNotExist(err) {
		t.Error("history written while disabled")
	}
}

func TestPickCustomFailureMessage(t *testing.T) {
	dir := t.TempDir()
	cfg := "version = 2\n[entry]\nfailure_message = \"Bad color\"\ntrim_whitespace = true\n"
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(cfg), 0o644)

	code, out, errOut := runCLI(t, dir, "  #00ff00  \nzz\n", "pick")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if out != "#00ff00ff\trgba(0, 255, 0, 1.00)\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "! Bad color") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestPickHexBeatsUnnamedPaletteEntry(t *testing.T) {
	dir := t.TempDir()
	palDir := filepath.Join(dir, paths.PalettesDir)
	os.MkdirAll(palDir, 0o755)
	// Unnamed entries are named by their hex in the palette's layout (end).
	os.WriteFile(filepath.Join(palDir, "loose.txt"), []byte("#ff000080\n"), 0o644)

	code, out, errOut := runCLI(t, dir, ":alpha start\n#ff000080\n", "pick")
	if code != 0 {
		t.Fatalf("exit = %d (stderr %q)", code, errOut)
	}
	want := "alpha position: start\n#ff000080\trgba(0, 0, 128, 1.00)\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestPickBadConfig(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte("version = 2\n[format]\nalpha_position = \"middle\"\n"), 0o644)

	code, _, errOut := runCLI(t, dir, "", "pick")
	if code != 1 || !strings.Contains(errOut, "load config") {
		t.Errorf("exit = %d, stderr = %q", code, errOut)
	}
}

// ///////////////////////////////////////////////
// history / palettes / log
// ///////////////////////////////////////////////

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	store := history.NewStore(filepath.Join(dir, paths.HistoryFile), filepath.Join(dir, paths.HistoryLockFile), 50)
	for _, c := range []color.Color{color.RGB(1, 2, 3), color.New(4, 5, 6, 7)} {
		if err := store.Add(c); err != nil {
			t.Fatal(err)
		}
	}

	code, out, _ := runCLI(t, dir, "", "history", "-n", "1")
	if code != 0 || !strings.HasPrefix(out, "#04050607\trgba(4, 5, 6, 0.03)\t") || strings.Count(out, "\n") != 1 {
		t.Errorf("history -n 1 = %d, %q", code, out)
	}

	if code, _, _ := runCLI(t, dir, "", "history", "-clear"); code != 0 {
		t.Fatalf("history -clear exit = %d", code)
	}
	if code, out, _ := runCLI(t, dir, "", "history"); code != 0 || out != "" {
		t.Errorf("history after clear = %d, %q", code, out)
	}
}

func TestPalettesCommand(t *testing.T) {
	dir := t.TempDir()
	code, out, _ := runCLI(t, dir, "", "palettes")
	if code != 0 || !strings.HasPrefix(out, "no palettes in ") {
		t.Errorf("empty palettes = %d, %q", code, out)
	}

	palDir := filepath.Join(dir, paths.PalettesDir, "sub")
	os.MkdirAll(palDir, 0o755)
	os.WriteFile(filepath.Join(palDir, "mono.yaml"), []byte("name: Mono\ncolors:\n  - name: ink\n    hex: \"#000000\"\n"), 0o644)

	code, out, _ = runCLI(t, dir, "", "palettes")
	if code != 0 || !strings.HasPrefix(out, "Mono (") || !strings.Contains(out, "ink") || !strings.Contains(out, "#000000ff") {
		t.Errorf("palettes = %d, %q", code, out)
	}
}

func TestLogCommand(t *testing.T) {
	dir := t.TempDir()
	if code, _, _ := runCLI(t, dir, "", "log"); code != 0 {
		t.Errorf("log without a file exit = %d", code)
	}

	runCLI(t, dir, "", "pick")
	code, out, _ := runCLI(t, dir, "", "log", "-n", "5")
	if code != 0 || !strings.Contains(out, "[INFO] palettes loaded") {
		t.Errorf("log = %d, %q", code, out)
	}
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	if code, _, _ := runCLI(t, dir, "", "history"); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	data, err := os.ReadFile(filepath.Join(dir, paths.ConfigFile))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "alpha_position") {
		t.Errorf("unexpected default config:\n%s", data)
	}
}

// ///////////////////////////////////////////////
// swatch / version -check
// ///////////////////////////////////////////////

func TestSwatchCommand(t *testing.T) {
	dir := t.TempDir()
	palDir := filepath.Join(dir, paths.PalettesDir)
	os.MkdirAll(palDir, 0o755)
	os.WriteFile(filepath.Join(palDir, "warm.txt"), []byte("red #ff0000\norange #ff8800\n"), 0o644)

	out := filepath.Join(dir, "out.png")
	code, stdout, errOut := runCLI(t, dir, "", "swatch", "-o", out, "-cell", "20", "-labels=false", "warm", "#0000ff80")
	if code != 0 {
		t.Fatalf("exit = %d (stderr %q)", code, errOut)
	}
	if !strings.Contains(stdout, "(3 colors)") {
		t.Errorf("stdout = %q", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 20 {
		t.Errorf("size = %dx%d, want 60x20", b.Dx(), b.Dy())
	}

	for _, args := range [][]string{
		{"-cell", "3000000000"},
		{"-cell", "1"},
		{"-columns", "0"},
	} {
		full := append([]string{"swatch", "-o", out}, append(args, "ff0000")...)
		if code, _, errOut := runCLI(t, dir, "", full...); code != 2 || !strings.Contains(errOut, "usage:") {
			t.Errorf("%v = %d, %q; want usage error", args, code, errOut)
		}
	}

	code, _, errOut = runCLI(t, dir, "", "swatch", "-o", out, "nothing-here")
	if code != 1 || !strings.Contains(errOut, "does not name a palette or a color") {
		t.Errorf("bad ref = %d, %q", code, errOut)
	}
}

func TestSwatchEntries(t *testing.T) {
	set := &palette.Set{Palettes: []*palette.Palette{
		{Name: "a", Entries: []palette.Entry{{Name: "x", Color: color.RGB(1, 1, 1)}, {Name: "y", Color: color.RGB(2, 2, 2)}}},
		{Name: "b", Entries: []palette.Entry{{Name: "z", Color: color.RGB(3, 3, 3)}}},
	}}

	all, err := swatchEntries(set, nil, color.AlphaEnd)
	if err != nil || len(all) != 3 {
		t.Errorf("all = %+v, %v", all, err)
	}
	got, err := swatchEntries(set, []string{"b", "a/y", "ffffff"}, color.AlphaEnd)
	if err != nil {
		t.Fatalf("swatchEntries: %v", err)
	}
	want := []color.Color{color.RGB(3, 3, 3), color.RGB(2, 2, 2), color.RGB(255, 255, 255)}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Color != want[i] {
			t.Errorf("entry %d = %v, want %v", i, e.Color, want[i])
		}
	}
}

func TestSwatchEntriesHexBeforePaletteNames(t *testing.T) {
	set := &palette.Set{Palettes: []*palette.Palette{
		{Name: "loose", Entries: []palette.Entry{{Name: "#ff000080", Color: color.New(255, 0, 0, 0x80)}}},
	}}
	got, err := swatchEntries(set, []string{"#ff000080"}, color.AlphaStart)
	if err != nil {
		t.Fatalf("swatchEntries: %v", err)
	}
	if want := color.New(0, 0, 0x80, 0xff); len(got) != 1 || got[0].Color != want {
		t.Errorf("entries = %+v, want %v", got, want)
	}
}

func TestVersionCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{".": "9.9.9"}`))
	}))
	defer server.Close()

	original := version
	defer func() { version = original }()
	version = "1.0.0"

	dir := t.TempDir()
	code, _, errOut := runCLI(t, dir, "", "version", "-check")
	if code != 1 || !strings.Contains(errOut, "manifest_url is not set") {
		t.Errorf("unset manifest = %d, %q", code, errOut)
	}

	cfg := "version = 2\n[update]\nmanifest_url = \"" + server.URL + "\"\n"
	os.WriteFile(filepath.Join(dir, paths.ConfigFile), []byte(cfg), 0o644)
	code, out, _ := runCLI(t, dir, "", "version", "-check")
	if code != 0 || out != "eyedropper 1.0.0\nnewer version available: 9.9.9\n" {
		t.Errorf("version -check = %d, %q", code, out)
	}
}

// ///////////////////////////////////////////////
// splitFlags Tests
// ///////////////////////////////////////////////

func TestSplitFlags(t *testing.T) {
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	fs.String("alpha", "", "")
	fs.Bool("clear", false, "")

	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"ff0000", "-alpha", "start"}, []string{"-alpha", "start", "--", "ff0000"}},
		{[]string{"-alpha=end", "a", "b"}, []string{"-alpha=end", "--", "a", "b"}},
		{[]string{"-clear", "x"}, []string{"-clear", "--", "x"}},
		{[]string{"-5", "0"}, []string{"--", "-5", "0"}},
		{[]string{"a", "--", "-alpha"}, []string{"--", "a", "-alpha"}},
	}
	for _, tt := range tests {
		if got := splitFlags(fs, tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitFlags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
