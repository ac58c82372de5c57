//go:build linux

package device

import (
	"context"

	"github.com/jochenvg/go-udev"

	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
)

// WatchHotplug subscribes to udev "sound" subsystem add/remove events and
// triggers an immediate Check on each one, so a freshly plugged-in (or
// removed) AudioMoth is noticed well ahead of the next scheduled poll tick.
// Linux-only: go-udev binds libudev via cgo and has no portable
// equivalent, so elsewhere Supervisor.Run's plain CheckInterval polling
// (quarter-second minimum cadence) is the only mechanism.
func (s *Supervisor) WatchHotplug(ctx context.Context) {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")
	if monitor == nil {
		logging.Warning(s.log, "udev monitor unavailable, falling back to polling only")
		return
	}

	if err := monitor.FilterAddMatchSubsystem("sound"); err != nil {
		logging.Warning(s.log, "udev subsystem filter failed", "err", err)
		return
	}

	deviceCh, err := monitor.DeviceChan(ctx)
	if err != nil {
		logging.Warning(s.log, "udev monitor channel failed", "err", err)
		return
	}

	for d := range deviceCh {
		logging.Root().Debug("udev sound device event", "action", d.Action(), "sysname", d.Sysname())
		s.Check()
	}
}
