package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrInvalidLength is returned when the input, without its "#" prefix,
	// is neither 6 nor 8 characters long.
	ErrInvalidLength = errors.New("invalid length")
	// ErrInvalidDigit is returned when a two-character group is not base-16.
	ErrInvalidDigit = errors.New("invalid digit")
)

// ParseError describes why [Parse] rejected an input. Kind is either
// [ErrInvalidLength] or [ErrInvalidDigit] and is exposed through Unwrap, so
// callers classify with errors.Is.
type ParseError struct {
	// Input is the text passed to Parse, unmodified.
	Input string
	// Kind is the error class.
	Kind error
	// Offset is the byte offset into Input of the offending digit pair, or
	// -1 for length errors.
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("parse hex color %q: %v at offset %d", e.Input, e.Kind, e.Offset)
	}
	return fmt.Sprintf("parse hex color %q: %v", e.Input, e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Kind }

// ///////////////////////////////////////////////
// Parse
// ///////////////////////////////////////////////

// Parse reads a hex color. An optional leading "#" is removed; the rest must
// be RRGGBB or, with alpha, RRGGBBAA (pos == AlphaEnd) or AARRGGBB
// (pos == AlphaStart). Digits are case-insensitive. Six-digit input is opaque
// regardless of pos. Whitespace is not trimmed.
func Parse(input string, pos AlphaPosition) (Color, error) {
	hex := strings.TrimPrefix(input, "#")
	prefix := len(input) - len(hex)

	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, &ParseError{Input: input, Kind: ErrInvalidLength, Offset: -1}
	}

	var ch [4]uint8
	for i := range len(hex) / 2 {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, &ParseError{Input: input, Kind: ErrInvalidDigit, Offset: prefix + 2*i}
		}
		ch[i] = uint8(v)
	}

	if len(hex) == 6 {
		return Color{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, nil
	}
	if pos == AlphaStart {
		return Color{R: ch[1], G: ch[2], B: ch[3], A: ch[0]}, nil
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// MustParse is like [Parse] but panics on error. Intended for literals.
func MustParse(input string, pos AlphaPosition) Color {
	c, err := Parse(input, pos)
	if err != nil {
		panic(err)
	}
	return c
}

// ///////////////////////////////////////////////
// Format
// ///////////////////////////////////////////////

const hexDigits = "0123456789abcdef"

// Format renders c as "#" followed by eight lowercase hex digits. Alpha is
// always emitted: first for AlphaStart, last for AlphaEnd.
func Format(c Color, pos AlphaPosition) string {
	order := [4]uint8{c.R, c.G, c.B, c.A}
	if pos == AlphaStart {
		order = [4]uint8{c.A, c.R, c.G, c.B}
	}
	buf := make([]byte, 9)
	buf[0] = '#'
	for i, v := range order {
		buf[1+2*i] = hexDigits[v>>4]
		buf[2+2*i] = hexDigits[v&0x0f]
	}
	return string(buf)
}

// Convert re-encodes a hex color from one alpha layout to another.
func Convert(input string, from, to AlphaPosition) (string, error) {
	c, err := Parse(input, from)
	if err != nil {
		return "", err
	}
	return Format(c, to), nil
}

// Describe returns a short human-readable reason for a Parse failure,
// suitable for a notification. Unknown errors yield err.Error().
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLength):
		return "expected 6 or 8 hex digits"
	case errors.Is(err, ErrInvalidDigit):
		return "contains a character that is not a hex digit"
	default:
		return err.Error()
	}
}
