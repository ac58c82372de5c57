//go:build !linux

package device

import "context"

// WatchHotplug is a no-op outside Linux; Supervisor.Run's CheckInterval
// polling is the only device-change detection mechanism there.
func (s *Supervisor) WatchHotplug(_ context.Context) {}
