// Package entry implements the hex color entry: a text buffer that is parsed
// into a color when the user confirms it, can be copied to a clipboard, and
// notifies listeners when its text changes or is copied.
//
// An Entry is driven from a single event loop and is not safe for concurrent
// use. The shell supplies the [Clipboard] and [Notifier] implementations.
package entry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finefindus/eyedropper/internal/color"
)

// Clipboard receives copied text.
type Clipboard interface {
	SetText(text string) error
}

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string)
}

// ErrEmpty is returned by Copy when there is no text to copy.
var ErrEmpty = errors.New("entry is empty")

// Options configures [New].
type Options struct {
	// AlphaPosition is used for both parsing and SetColor formatting.
	AlphaPosition color.AlphaPosition
	// TrimWhitespace strips surrounding whitespace in Activate.
	TrimWhitespace bool
	// FailureMessage is passed to the Notifier on a failed Activate.
	FailureMessage string
	Clipboard      Clipboard
	Notifier       Notifier
}

// Entry is the hex entry controller.
type Entry struct {
	text      string
	opts      Options
	onChanged []func(text string)
	onCopied  []func(text string)
}

// New creates an empty Entry.
func New(opts Options) *Entry {
	if opts.FailureMessage == "" {
		opts.FailureMessage = "Failed to parse color"
	}
	return &Entry{opts: opts}
}

// Text returns the current buffer.
func (e *Entry) Text() string { return e.text }

// AlphaPosition returns the layout used for parsing and formatting.
func (e *Entry) AlphaPosition() color.AlphaPosition { return e.opts.AlphaPosition }

// SetAlphaPosition changes the layout for subsequent calls. The buffer is
// left as typed.
func (e *Entry) SetAlphaPosition(pos color.AlphaPosition) { e.opts.AlphaPosition = pos }

// OnColorChanged registers fn to run with the new text after every change.
func (e *Entry) OnColorChanged(fn func(text string)) {
	e.onChanged = append(e.onChanged, fn)
}

// OnCopiedColor registers fn to run with the copied text after every Copy.
func (e *Entry) OnCopiedColor(fn func(text string)) {
	e.onCopied = append(e.onCopied, fn)
}

// SetText replaces the buffer. Listeners run only when the text differs.
func (e *Entry) SetText(text string) {
	if text == e.text {
		return
	}
	e.text = text
	for _, fn := range e.onChanged {
		fn(text)
	}
}

// SetColor replaces the buffer with the canonical hex form of c.
func (e *Entry) SetColor(c color.Color) {
	e.SetText(color.Format(c, e.opts.AlphaPosition))
}

// Activate parses the buffer. On failure the Notifier receives the failure
// message and the parse error is returned; the buffer is kept either way.
func (e *Entry) Activate() (color.Color, error) {
	text := e.text
	if e.opts.TrimWhitespace {
		text = strings.TrimSpace(text)
	}
	slog.Debug("hex entry activated", "buffer", e.text)

	c, err := color.Parse(text, e.opts.AlphaPosition)
	if err != nil {
		slog.Debug("hex entry rejected", "error", err)
		if e.opts.Notifier != nil {
			e.opts.Notifier.Notify(e.opts.FailureMessage)
		}
		return color.Color{}, err
	}
	slog.Info("parsed color", "color", fmt.Sprintf("%+v", c), "hex", color.Format(c, e.opts.AlphaPosition))
	return c, nil
}

// Copy puts the buffer on the clipboard and then runs the copied listeners.
func (e *Entry) Copy() error {
	if e.text == "" {
		return ErrEmpty
	}
	slog.Debug("copying selected color", "text", e.text)
	if e.opts.Clipboard != nil {
		if err := e.opts.Clipboard.SetText(e.text); err != nil {
			return fmt.Errorf("set clipboard: %w", err)
		}
	}
	for _, fn := range e.onCopied {
		fn(e.text)
	}
	return nil
}
