// Unix/Darwin signal handling for leaving the interactive picker.

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a channel that receives SIGINT and SIGTERM. The
// buffer of 1 keeps a signal that arrives while the receiver is busy.
// Callers release it with signal.Stop.
func signalChannel() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
