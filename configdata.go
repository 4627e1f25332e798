// Package eyedropper provides embedded assets for the eyedropper CLI.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML], which the CLI writes to the data directory on first run.
package eyedropper

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time and regenerated by cmd/genconfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
