package signalshim

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunningClearsOnSignal(t *testing.T) {
	h := New()
	defer h.Stop()

	assert.True(t, h.Running())

	h.sigC <- syscall.SIGTERM

	assert.Eventually(t, func() bool {
		return !h.Running()
	}, time.Second, time.Millisecond)
}
