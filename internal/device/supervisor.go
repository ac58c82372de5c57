package device

import (
	"sync"
	"time"

	"github.com/openacousticdevices/audiomoth-recorder/internal/audiotime"
	"github.com/openacousticdevices/audiomoth-recorder/internal/backend"
	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
)

// CheckInterval is the minimum device enumeration cadence: a quarter second.
const CheckInterval = 250 * time.Millisecond

// Findings is the published result of the most recent enumeration pass,
// guarded by its own lock so the Lifecycle Controller can read it without
// contending with the enumeration goroutine.
type Findings struct {
	AudioMothFound    bool
	OldFirmwareFound  bool
	PreferredName     string
	PreferredRateHz   int
	LastCheckTimeUnix int64
}

// Supervisor runs the periodic device enumeration loop.
type Supervisor struct {
	mu       sync.Mutex
	findings Findings

	log logging.Logger

	// enumerate is the device listing hook, normally backend.EnumerateDevices
	// for Capture devices; overridable in tests.
	enumerate func() ([]backend.DeviceInfo, error)
}

// New constructs a Supervisor. enumerate lists the currently visible input
// devices; pass nil to use the real portaudio-backed backend.
func New(log logging.Logger, enumerate func() ([]backend.DeviceInfo, error)) *Supervisor {
	if enumerate == nil {
		enumerate = func() ([]backend.DeviceInfo, error) {
			return backend.EnumerateDevices(backend.Capture)
		}
	}
	return &Supervisor{log: log, enumerate: enumerate}
}

// Check performs one enumeration pass and publishes its findings. It must
// not run concurrently with capture device init/uninit — callers serialize
// that externally, e.g. by only invoking Check from the background worker
// while the lifecycle controller holds off on restarts mid-pass.
func (s *Supervisor) Check() Findings {
	devices, err := s.enumerate()

	var f Findings
	f.LastCheckTimeUnix = audiotime.NowMillisecondUTC() / 1000

	if err != nil {
		logging.Error(s.log, "device enumeration failed", "err", err)
		s.publish(f)
		return f
	}

	for _, d := range devices {
		c := Classify(d.Name)

		if c.IsOldFirmware {
			f.OldFirmwareFound = true
		}

		if c.IsAudioMoth && !f.AudioMothFound {
			// The first enumerated AudioMoth device wins; enumeration halts
			// after selecting it.
			f.AudioMothFound = true
			f.PreferredName = d.Name
			f.PreferredRateHz = c.NativeRateHz
			break
		}
	}

	s.publish(f)
	return f
}

func (s *Supervisor) publish(f Findings) {
	s.mu.Lock()
	s.findings = f
	s.mu.Unlock()
}

// Latest returns the most recently published findings.
func (s *Supervisor) Latest() Findings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findings
}

// Run loops Check on CheckInterval until stop is closed, publishing the
// latest findings each tick. The lifecycle controller runs it on a
// goroutine of its own, separate from the autosave worker.
func (s *Supervisor) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Check()
		}
	}
}
