// Package signalshim implements a single-callback signal interface: an
// internal handler clears a running flag, which the lifecycle controller
// polls on each tick of its run loop.
package signalshim

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// Handler owns the running flag that handle_signal clears. Zero value is
// not usable; construct with New.
type Handler struct {
	running atomic.Bool
	sigC    chan os.Signal
}

// New registers against interrupt/terminate/quit/hangup (the platform
// equivalent set — see signals_unix.go / signals_other.go) and starts the
// goroutine that clears the running flag on receipt.
func New() *Handler {
	h := &Handler{sigC: make(chan os.Signal, 1)}
	h.running.Store(true)

	signal.Notify(h.sigC, signals()...)
	go h.run()

	return h
}

func (h *Handler) run() {
	<-h.sigC
	h.running.Store(false)
}

// Running reports whether no terminating signal has arrived yet, read
// from the lifecycle controller's main loop.
func (h *Handler) Running() bool { return h.running.Load() }

// Stop deregisters the handler. Used by tests and by orderly shutdown paths
// that want to restore default signal disposition.
func (h *Handler) Stop() {
	signal.Stop(h.sigC)
}
