// Package main implements the genconfig tool that writes config.default.toml
// from config.DefaultConfig annotated with config.ConfigDocs.
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/finefindus/eyedropper/internal/config"
)

func main() {
	out, err := render(config.DefaultConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	// go generate runs from internal/config; the root package embeds the file.
	outPath := "../../config.default.toml"
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Println("wrote config.default.toml")
}

// render encodes cfg as TOML and places each documented key's comment above
// it and its alternatives, commented out, below it.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	enc := toml.NewEncoder(&raw)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# Eyedropper Configuration",
		"# ///////////////////////////////////////////////",
	}
	section := ""
	for _, line := range strings.Split(raw.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "["):
			section = strings.Trim(trimmed, "[]")
			out = append(out, "", "# ///// "+sectionTitle(section)+" /////", "", trimmed)
			continue
		}

		key, _, ok := strings.Cut(trimmed, "=")
		if !ok {
			out = append(out, trimmed)
			continue
		}
		path := strings.TrimSpace(key)
		if section != "" {
			path = section + "." + path
		}
		doc := docs[path]
		out = append(out, commentLines(doc.Comment)...)
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}
	return strings.Join(out, "\n") + "\n", nil
}

// commentLines turns a multi-line doc comment into "# " prefixed lines.
func commentLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("# "+l, " ")
	}
	return lines
}

// sectionTitle capitalizes a section name: "palettes" -> "Palettes".
func sectionTitle(section string) string {
	if section == "" {
		return ""
	}
	return strings.ToUpper(section[:1]) + section[1:]
}
