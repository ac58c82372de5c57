// Package backend implements the audio backend interface as an external
// collaborator: device enumeration by type, open/close with
// (format=s16, channels=1, sample_rate, period_in_frames, device id), a
// realtime data callback, and a notification callback surfacing
// started/stopped/rerouted/interruption events.
package backend

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// DeviceKind distinguishes capture from playback devices for enumeration.
type DeviceKind int

const (
	Capture DeviceKind = iota
	Playback
)

// DeviceInfo describes one enumerated audio device: an opaque handle plus
// the human-readable name later classification matches against device-name
// substrings ("AudioMoth", "F32x USBXpress Device", etc).
type DeviceInfo struct {
	Handle *portaudio.DeviceInfo
	Name   string
}

// Notification is the subset of backend device-notification types that are
// semantically consumed here: started and stopped. The others
// (rerouted, interruption began/ended) are part of the stated interface
// but this tool has no behavior hooked to them, matching the framing
// of the backend as mostly out of scope.
type Notification int

const (
	Started Notification = iota
	Stopped
)

// EnumerateDevices lists every input (Capture) or output (Playback) device
// currently visible to the backend.
func EnumerateDevices(kind DeviceKind) ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("backend: enumerate devices: %w", err)
	}

	var out []DeviceInfo
	for _, d := range devices {
		if kind == Capture && d.MaxInputChannels < 1 {
			continue
		}
		if kind == Playback && d.MaxOutputChannels < 1 {
			continue
		}
		out = append(out, DeviceInfo{Handle: d, Name: d.Name})
	}
	return out, nil
}

// DataCallback is invoked on the backend's realtime thread with one block
// of frames. For a capture stream, in holds the captured samples and out
// is nil. For a playback stream, out must be filled and in is nil.
type DataCallback func(in, out []int16)

// NotifyCallback is invoked (off the realtime thread) when the backend
// reports a lifecycle notification for a device.
type NotifyCallback func(Notification)

// Stream wraps a portaudio.Stream opened for either capture or playback of
// mono signed-16-bit PCM, 's fixed format.
type Stream struct {
	stream       *portaudio.Stream
	onData       DataCallback
	onNotify     NotifyCallback
	periodFrames int
}

// OpenCapture opens device for capture at sampleRate with periodInFrames
// samples per realtime callback, invoking onData and onNotify as data and
// lifecycle events arrive. device may be nil to use the backend's default.
func OpenCapture(device *portaudio.DeviceInfo, sampleRate, periodInFrames int, onData DataCallback, onNotify NotifyCallback) (*Stream, error) {
	s := &Stream{onData: onData, onNotify: onNotify, periodFrames: periodInFrames}

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = periodInFrames

	stream, err := portaudio.OpenStream(params, func(in []int16) {
		s.onData(in, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("backend: open capture stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// OpenPlayback opens the default output device for playback at sampleRate
// with periodInFrames samples per realtime callback.
func OpenPlayback(sampleRate, periodInFrames int, onData DataCallback) (*Stream, error) {
	s := &Stream{onData: onData, periodFrames: periodInFrames}

	params := portaudio.HighLatencyParameters(nil, nil)
	params.Output.Channels = 1
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = periodInFrames

	stream, err := portaudio.OpenStream(params, func(out []int16) {
		s.onData(nil, out)
	})
	if err != nil {
		return nil, fmt.Errorf("backend: open playback stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// Start begins the stream's realtime callbacks. On success it fires the
// Started notification — the resampler itself still owns the `started`
// flag, set on its own first callback; this notification is a convenience
// mirror for callers that only care about backend-level readiness.
func (s *Stream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("backend: start stream: %w", err)
	}
	if s.onNotify != nil {
		s.onNotify(Started)
	}
	return nil
}

// Stop drains outstanding callbacks and stops the stream. The Stopped
// notification is fired here, synchronously, once the backend's stop
// returns successfully; when the stop fails no notification is fired, so
// callers apply their own bounded timeout while waiting for it.
func (s *Stream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("backend: stop stream: %w", err)
	}
	if s.onNotify != nil {
		s.onNotify(Stopped)
	}
	return nil
}

// Close releases the stream's resources. The backend's device_check_mutex
// discipline is the caller's responsibility: enumeration must
// not run concurrently with Close/Open of the capture device.
func (s *Stream) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("backend: close stream: %w", err)
	}
	return nil
}

// Initialize starts up the portaudio backend. It must be called once
// before any enumeration or stream operation and matched with Terminate at
// process exit.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("backend: initialize: %w", err)
	}
	return nil
}

// Terminate shuts down the portaudio backend.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("backend: terminate: %w", err)
	}
	return nil
}
