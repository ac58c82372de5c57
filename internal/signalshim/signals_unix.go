//go:build linux || darwin

package signalshim

import (
	"os"
	"syscall"
)

// signals returns interrupt, terminate, quit, and hangup.
func signals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}
}
