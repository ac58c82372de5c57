//go:build !linux && !darwin

package wavfile

import "os"

// syncAndClose flushes f with the portable os.File.Sync on platforms
// without a direct fsync(2) binding.
func syncAndClose(f *os.File) error {
	_ = f.Sync()
	return f.Close()
}
