// Package swatch renders colors as a PNG grid of squares, optionally labeled
// with each color's name and hex text. Translucent colors are drawn over a
// checkerboard so their alpha stays visible.
package swatch

import (
	"errors"
	"fmt"
	"image"
	imgcolor "image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"github.com/finefindus/eyedropper/internal/atomicfile"
	"github.com/finefindus/eyedropper/internal/color"
	"github.com/finefindus/eyedropper/internal/palette"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrNoColors is returned when there is nothing to render.
	ErrNoColors = errors.New("no colors to render")
	// ErrTooLarge is returned when the image would exceed MaxSide pixels.
	ErrTooLarge = errors.New("swatch image too large")
)

// MaxSide bounds both image dimensions.
const MaxSide = 1 << 15

// Options controls the layout.
type Options struct {
	// CellSize is the edge length of one square in pixels.
	CellSize int
	// Columns is the number of squares per row.
	Columns int
	// Labels adds a text strip under every square.
	Labels bool
	// AlphaPosition lays out the hex labels.
	AlphaPosition color.AlphaPosition
}

const (
	fontSize   = 11
	labelPad   = 4
	checkerBox = 8
)

var (
	labelBg = imgcolor.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	labelFg = imgcolor.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	checkLo = imgcolor.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	checkHi = imgcolor.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ///////////////////////////////////////////////
// Font
// ///////////////////////////////////////////////

var (
	monoFont     *opentype.Font
	monoFontErr  error
	monoFontOnce sync.Once
)

// labelFace returns a face of the embedded Go Mono font. The caller closes it.
func labelFace() (font.Face, error) {
	monoFontOnce.Do(func() {
		monoFont, monoFontErr = opentype.Parse(gomono.TTF)
	})
	if monoFontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", monoFontErr)
	}
	face, err := opentype.NewFace(monoFont, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// ///////////////////////////////////////////////
// Rendering
// ///////////////////////////////////////////////

// Render draws entries left to right, top to bottom.
func Render(entries []palette.Entry, opts Options) (*image.NRGBA, error) {
	if len(entries) == 0 {
		return nil, ErrNoColors
	}
	if opts.CellSize <= 0 || opts.Columns <= 0 {
		return nil, fmt.Errorf("invalid layout: cell size %d, columns %d", opts.CellSize, opts.Columns)
	}

	var face font.Face
	labelH := 0
	if opts.Labels {
		var err error
		if face, err = labelFace(); err != nil {
			return nil, err
		}
		defer face.Close()
		lineH := face.Metrics().Height.Ceil()
		labelH = 2*lineH + 2*labelPad
	}

	cols := min(opts.Columns, len(entries))
	rows := (len(entries) + cols - 1) / cols
	rowH := opts.CellSize + labelH
	if opts.CellSize > MaxSide || cols > MaxSide/opts.CellSize || rows > MaxSide/rowH {
		return nil, fmt.Errorf("%w: %d colors at %dpx cells", ErrTooLarge, len(entries), opts.CellSize)
	}
	img := image.NewNRGBA(image.Rect(0, 0, cols*opts.CellSize, rows*rowH))
	draw.Draw(img, img.Bounds(), image.NewUniform(labelBg), image.Point{}, draw.Src)

	for i, e := range entries {
		x := (i % cols) * opts.CellSize
		y := (i / cols) * rowH
		cell := image.Rect(x, y, x+opts.CellSize, y+opts.CellSize)
		fillCell(img, cell, e.Color)

		if face != nil {
			hex := color.Format(e.Color, opts.AlphaPosition)
			ascent := face.Metrics().Ascent.Ceil()
			lineH := face.Metrics().Height.Ceil()
			textY := y + opts.CellSize + labelPad + ascent
			maxW := opts.CellSize - 2*labelPad
			drawText(img, face, fit(face, hex, maxW), x+labelPad, textY)
			if e.Name != "" && e.Name != hex {
				drawText(img, face, fit(face, e.Name, maxW), x+labelPad, textY+lineH)
			}
		}
	}
	return img, nil
}

// fillCell paints c into r, over a checkerboard when c is translucent.
func fillCell(img *image.NRGBA, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c.NRGBA())
	if c.Opaque() {
		draw.Draw(img, r, src, image.Point{}, draw.Src)
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y += checkerBox {
		for x := r.Min.X; x < r.Max.X; x += checkerBox {
			box := image.Rect(x, y, x+checkerBox, y+checkerBox).Intersect(r)
			bg := checkLo
			if ((x-r.Min.X)/checkerBox+(y-r.Min.Y)/checkerBox)%2 == 0 {
				bg = checkHi
			}
			draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)
		}
	}
	draw.Draw(img, r, src, image.Point{}, draw.Over)
}

func drawText(img *image.NRGBA, face font.Face, s string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelFg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// fit shortens s with a trailing "~" until it is at most maxW pixels wide.
func fit(face font.Face, s string, maxW int) string {
	if font.MeasureString(face, s).Ceil() <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if t := string(r) + "~"; font.MeasureString(face, t).Ceil() <= maxW {
			return t
		}
	}
	return ""
}

// ///////////////////////////////////////////////
// Output
// ///////////////////////////////////////////////

// Encode renders entries and writes the PNG to w.
func Encode(w io.Writer, entries []palette.Entry, opts Options) error {
	img, err := Render(entries, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WriteFile renders entries to a PNG file, replacing it atomically.
func WriteFile(path string, entries []palette.Entry, opts Options) error {
	img, err := Render(entries, opts)
	if err != nil {
		return err
	}
	return atomicfile.WriteFunc(path, 0o644, func(w io.Writer) error {
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	})
}
