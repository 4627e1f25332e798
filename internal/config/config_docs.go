package config

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ConfigDocs maps dotted TOML paths (e.g. "format.alpha_position") to their
// documentation. Every field of [Config] has an entry; config_test enforces it.
var ConfigDocs = map[string]FieldDoc{
	"version": {
		Comment: "Config schema version, do not edit.",
	},

	// ── Format ───────────────────────────────────────────────────
	"format.alpha_position": {
		Comment: "Where the alpha pair sits in 8-digit hex colors. Options: \"end\", \"start\"\n  end:   #RRGGBBAA (CSS style)\n  start: #AARRGGBB (Android / .NET style)\nSix-digit input is always opaque. Output always carries alpha.",
		Alternatives: []string{
			`alpha_position = "start"`,
		},
	},

	// ── Entry ────────────────────────────────────────────────────
	"entry.trim_whitespace": {
		Comment: "Strip spaces and newlines around entered text before parsing.",
	},
	"entry.failure_message": {
		Comment: "Notification shown when the entered text is not a hex color.",
	},

	// ── History ──────────────────────────────────────────────────
	"history.enabled": {
		Comment: "Remember copied colors in history.json.",
	},
	"history.max_entries": {
		Comment: "Number of copied colors to keep, newest first.",
	},

	// ── Palettes ─────────────────────────────────────────────────
	"palettes.dir": {
		Comment: "Palette directory. Empty means <data-dir>/palettes.\nRelative paths are resolved against the data directory; ~/ is expanded.",
		Alternatives: []string{
			`dir = "~/Pictures/palettes"`,
		},
	},
	"palettes.patterns": {
		Comment: "Glob patterns (relative to dir) selecting palette files. ** matches any depth.\nFiles ending in .yaml/.yml are YAML; anything else is plain text.",
	},
	"palettes.urls": {
		Comment: "Remote palettes fetched at startup. The last good copy is cached and\nused when the URL cannot be reached.",
		Alternatives: []string{
			`urls = ["https://example.com/palettes/solarized.yaml"]`,
		},
	},
	"palettes.watch": {
		Comment: "Reload palettes while picking when files in dir change.",
	},

	// ── Swatch ───────────────────────────────────────────────────
	"swatch.cell_size": {
		Comment: "Edge length of one color square in the swatch PNG, in pixels (16-1024).",
	},
	"swatch.columns": {
		Comment: "Color squares per row.",
	},
	"swatch.labels": {
		Comment: "Write each color's name and hex under its square.",
	},

	// ── Update ───────────────────────────────────────────────────
	"update.manifest_url": {
		Comment: "Release manifest checked by \"eyedropper version -check\": a JSON object whose\n\".\" key holds the latest version. Empty disables the check.",
		Alternatives: []string{
			`manifest_url = "https://example.com/eyedropper/release-manifest.json"`,
		},
	},

	// ── Log ──────────────────────────────────────────────────────
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
}
