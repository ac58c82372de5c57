//go:build linux || darwin

package wavfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncAndClose flushes f to stable storage with a direct fsync(2) call
// before closing, so an autosave file survives a crash shortly after
// being written.
func syncAndClose(f *os.File) error {
	_ = unix.Fsync(int(f.Fd()))
	return f.Close()
}
