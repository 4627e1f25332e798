// Package color defines the eyedropper color model and its hexadecimal codec.
//
// A [Color] is an immutable 8-bit-per-channel RGBA value. Textual forms are
// produced by [Format] and read back by [Parse]; where the alpha pair sits in
// the text is chosen per call with an [AlphaPosition] and is never stored in
// the Color itself.
package color

import (
	"fmt"
	imgcolor "image/color"
	"strings"
)

// ///////////////////////////////////////////////
// Color
// ///////////////////////////////////////////////

// Color is a non-premultiplied RGBA color with 8-bit channels.
// The zero value is transparent black.
type Color struct {
	R, G, B, A uint8
}

// New returns a Color from four channel values.
func New(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// RGB returns a fully opaque Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xff}
}

// Opaque reports whether the alpha channel is 255.
func (c Color) Opaque() bool {
	return c.A == 0xff
}

// Hex is shorthand for [Format](c, pos).
func (c Color) Hex(pos AlphaPosition) string {
	return Format(c, pos)
}

// String returns the color as "#rrggbbaa".
func (c Color) String() string {
	return Format(c, AlphaEnd)
}

// CSS returns the color in CSS rgba() notation, e.g. "rgba(255, 0, 0, 0.50)".
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, float64(c.A)/255)
}

// NRGBA converts c to the standard library's non-premultiplied color type.
func (c Color) NRGBA() imgcolor.NRGBA {
	return imgcolor.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// RGBA implements [image/color.Color].
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// FromNRGBA converts a standard library NRGBA value.
func FromNRGBA(n imgcolor.NRGBA) Color {
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// FromColor converts any [image/color.Color] through the NRGBA model.
func FromColor(c imgcolor.Color) Color {
	if cc, ok := c.(Color); ok {
		return cc
	}
	return FromNRGBA(imgcolor.NRGBAModel.Convert(c).(imgcolor.NRGBA))
}

// ///////////////////////////////////////////////
// AlphaPosition
// ///////////////////////////////////////////////

// AlphaPosition selects where the alpha pair appears in hex text.
type AlphaPosition uint8

const (
	// AlphaEnd places alpha after the color channels: RRGGBBAA.
	AlphaEnd AlphaPosition = iota
	// AlphaStart places alpha before the color channels: AARRGGBB.
	AlphaStart
)

// String returns "end" or "start".
func (p AlphaPosition) String() string {
	switch p {
	case AlphaStart:
		return "start"
	case AlphaEnd:
		return "end"
	default:
		return fmt.Sprintf("AlphaPosition(%d)", uint8(p))
	}
}

// ParseAlphaPosition converts "start" or "end" (case-insensitive).
func ParseAlphaPosition(s string) (AlphaPosition, error) {
	switch strings.ToLower(s) {
	case "end":
		return AlphaEnd, nil
	case "start":
		return AlphaStart, nil
	default:
		return AlphaEnd, fmt.Errorf("invalid alpha position %q: must be start or end", s)
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (p AlphaPosition) MarshalText() ([]byte, error) {
	if p != AlphaStart && p != AlphaEnd {
		return nil, fmt.Errorf("invalid alpha position %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *AlphaPosition) UnmarshalText(text []byte) error {
	v, err := ParseAlphaPosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
