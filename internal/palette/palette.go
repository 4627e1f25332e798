// Package palette loads named color palettes from local files and remote
// URLs, and resolves palette references typed into the hex entry.
//
// Two document formats are understood. YAML:
//
//	name: Solarized
//	alpha_position: end   # optional, layout of 8-digit colors below
//	colors:
//	  - name: base03
//	    hex: "#002b36"
//
// and plain text, one color per line, optionally preceded by a name:
//
//	; comment
//	base03 #002b36
//	#268bd2
package palette

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/finefindus/eyedropper/internal/color"
	"gopkg.in/yaml.v3"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Entry is one named color.
type Entry struct {
	Name  string
	Color color.Color
}

// Palette is an ordered list of colors loaded from one source.
type Palette struct {
	Name string
	// Source is the file path or URL the palette came from.
	Source  string
	Entries []Entry
}

// Lookup returns the entry with the given name (case-insensitive).
func (p *Palette) Lookup(name string) (Entry, bool) {
	for _, e := range p.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// ///////////////////////////////////////////////
// Parsing
// ///////////////////////////////////////////////

// yamlDoc is the YAML palette schema.
type yamlDoc struct {
	Name          string               `yaml:"name"`
	AlphaPosition *color.AlphaPosition `yaml:"alpha_position"`
	Colors        []struct {
		Name string `yaml:"name"`
		Hex  string `yaml:"hex"`
	} `yaml:"colors"`
}

// Parse decodes data according to the source's extension: .yaml/.yml as
// YAML, anything else as plain text. pos is the default alpha layout.
func Parse(data []byte, source string, pos color.AlphaPosition) (*Palette, error) {
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return ParseYAML(data, source, pos)
	default:
		return ParseText(data, source, pos)
	}
}

// ParseYAML decodes a YAML palette. A document-level alpha_position overrides pos.
func ParseYAML(data []byte, source string, pos color.AlphaPosition) (*Palette, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("palette %s: %w", source, err)
	}
	if doc.AlphaPosition != nil {
		pos = *doc.AlphaPosition
	}

	p := &Palette{Name: doc.Name, Source: source}
	if p.Name == "" {
		p.Name = baseName(source)
	}
	for i, c := range doc.Colors {
		col, err := color.Parse(c.Hex, pos)
		if err != nil {
			return nil, fmt.Errorf("palette %s: color %d: %w", source, i+1, err)
		}
		name := c.Name
		if name == "" {
			name = color.Format(col, pos)
		}
		p.Entries = append(p.Entries, Entry{Name: name, Color: col})
	}
	return p, nil
}

// ParseText decodes a plain text palette. Lines are "hex" or "name hex";
// blank lines and lines starting with ';' are skipped.
func ParseText(data []byte, source string, pos color.AlphaPosition) (*Palette, error) {
	p := &Palette{Name: baseName(source), Source: source}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		fields := strings.Fields(text)
		hex := fields[len(fields)-1]
		col, err := color.Parse(hex, pos)
		if err != nil {
			return nil, fmt.Errorf("palette %s: line %d: %w", source, line, err)
		}
		name := color.Format(col, pos)
		if len(fields) > 1 {
			name = strings.Join(fields[:len(fields)-1], " ")
		}
		p.Entries = append(p.Entries, Entry{Name: name, Color: col})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("palette %s: %w", source, err)
	}
	return p, nil
}

// baseName returns the last path or URL element without its extension.
func baseName(source string) string {
	b := path.Base(strings.ReplaceAll(source, "\\", "/"))
	return strings.TrimSuffix(b, path.Ext(b))
}

// ///////////////////////////////////////////////
// Set
// ///////////////////////////////////////////////

// Set is an ordered collection of palettes.
type Set struct {
	Palettes []*Palette
}

// Len returns the total number of entries across all palettes.
func (s *Set) Len() int {
	n := 0
	for _, p := range s.Palettes {
		n += len(p.Entries)
	}
	return n
}

// Find returns the palette with the given name (case-insensitive).
func (s *Set) Find(name string) (*Palette, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Palettes {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// Resolve finds a color by reference. "palette/entry" addresses one palette;
// a bare name matches the first palette containing it.
func (s *Set) Resolve(ref string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	if pname, ename, ok := strings.Cut(ref, "/"); ok {
		if p, found := s.Find(pname); found {
			return p.Lookup(ename)
		}
		return Entry{}, false
	}
	for _, p := range s.Palettes {
		if e, ok := p.Lookup(ref); ok {
			return e, true
		}
	}
	return Entry{}, false
}
