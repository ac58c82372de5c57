//go:build !linux && !darwin

package signalshim

import "os"

// signals returns the platform's console control handler equivalent — on
// Windows only interrupt and a process-kill signal are portably available
// through os/signal.
func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
