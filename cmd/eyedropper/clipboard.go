package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
)

// ///////////////////////////////////////////////
// Clipboard
// ///////////////////////////////////////////////

// osc52Clipboard sets the system clipboard through the terminal using the
// OSC 52 escape sequence, which works over SSH and inside tmux when the
// terminal allows it.
type osc52Clipboard struct {
	w io.Writer
}

func (c osc52Clipboard) SetText(text string) error {
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
	if _, err := io.WriteString(c.w, seq); err != nil {
		return fmt.Errorf("write OSC 52 sequence: %w", err)
	}
	slog.Debug("clipboard set", "bytes", len(text))
	return nil
}

// ///////////////////////////////////////////////
// Toasts
// ///////////////////////////////////////////////

// toastNotifier prints notifications as single "! message" lines.
type toastNotifier struct {
	w io.Writer
}

func (n toastNotifier) Notify(message string) {
	fmt.Fprintf(n.w, "! %s\n", message)
}
