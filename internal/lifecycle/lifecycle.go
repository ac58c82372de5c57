// Package lifecycle implements the top-level orchestrator: it wires every
// other collaborator together and drives the
// INIT → STARTING → RUNNING → RESTARTING → SHUTTING_DOWN → DONE state
// machine, never blocking the realtime callback threads it owns.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/openacousticdevices/audiomoth-recorder/internal/audiotime"
	"github.com/openacousticdevices/audiomoth-recorder/internal/autosave"
	"github.com/openacousticdevices/audiomoth-recorder/internal/backend"
	"github.com/openacousticdevices/audiomoth-recorder/internal/capture"
	"github.com/openacousticdevices/audiomoth-recorder/internal/config"
	"github.com/openacousticdevices/audiomoth-recorder/internal/device"
	"github.com/openacousticdevices/audiomoth-recorder/internal/heterodyne"
	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
	"github.com/openacousticdevices/audiomoth-recorder/internal/playback"
	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
	"github.com/openacousticdevices/audiomoth-recorder/internal/signalshim"
)

// Timing constants governing bounded waits and the device-change settle
// window.
const (
	deviceStopStartTimeout = 2 * time.Second
	deviceShutdownTimeout  = 2 * time.Second
	deviceChangeSettle     = 1 * time.Second
	timeMismatchLimitMs    = 2000
	callbacksPerSecond     = playback.CallbacksPerSecond
)

type state int

const (
	stateInit state = iota
	stateStarting
	stateRunning
	stateRestarting
	stateShuttingDown
	stateDone
)

// Controller is the Lifecycle Controller: the single state machine driving
// device (re)initialization, autosave, and playback.
type Controller struct {
	log  logging.Logger
	opts config.Options

	ring       *ringbuffer.Buffer
	timestamp  *capture.Timestamp
	resampler  *capture.Resampler
	supervisor *device.Supervisor
	signals    *signalshim.Handler

	queue  *autosave.Queue
	writer *autosave.Writer

	captureStream  *backend.Stream
	playbackStream *backend.Stream
	stoppedCh      chan struct{}

	usingAudioMoth    bool
	captureRate       int
	outputRate        int
	lastDeviceCheckAt time.Time
	warnedOldFirmware bool
	startedAt         time.Time
}

// New constructs a Controller ready to Run. It does not open any device or
// start the audio backend yet; that happens in the STARTING state.
func New(log logging.Logger, opts config.Options) *Controller {
	ring := ringbuffer.New()
	ts := &capture.Timestamp{}

	c := &Controller{
		log:        log,
		opts:       opts,
		ring:       ring,
		timestamp:  ts,
		supervisor: device.New(logging.Component("DEVICE"), nil),
		signals:    signalshim.New(),
		queue:      autosave.NewQueue(),
	}

	durationMinutes := opts.AutosaveMinutes
	c.writer = autosave.New(logging.Component("AUTOSAVE"), ring, durationMinutes, !opts.UseUTC, opts.DestinationDir)

	return c
}

// Run drives the state machine to completion (DONE), returning a non-nil
// error only for a fatal startup failure (exit code 1). Everything else is
// handled internally with the bounded retry/restart policy.
func (c *Controller) Run() error {
	if err := backend.Initialize(); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	defer backend.Terminate()

	supervisorStop := make(chan struct{})
	go c.supervisor.Run(supervisorStop)
	defer close(supervisorStop)

	hotplugCtx, cancelHotplug := context.WithCancel(context.Background())
	go c.supervisor.WatchHotplug(hotplugCtx)
	defer cancelHotplug()

	workerStop := make(chan struct{})
	go c.runAutosaveWorker(workerStop)
	defer close(workerStop)

	st := stateStarting

	for st != stateDone {
		switch st {
		case stateStarting:
			if err := c.enterStarting(); err != nil {
				if c.startedAt.IsZero() {
					return fmt.Errorf("lifecycle: %w", err)
				}
				logging.Error(c.log, "device start failed, will retry", "err", err)
				time.Sleep(deviceStopStartTimeout)
				st = stateStarting
				continue
			}
			st = stateRunning

		case stateRunning:
			st = c.runUntilTransition()

		case stateRestarting:
			c.enterRestarting()
			st = stateStarting

		case stateShuttingDown:
			c.enterShuttingDown()
			st = stateDone
		}
	}

	return nil
}

func (c *Controller) enterStarting() error {
	c.resampler = nil

	findings := c.supervisor.Check()
	c.usingAudioMoth = findings.AudioMothFound

	maxDefaultRate := playback.PlaybackRate
	if c.opts.HighSampleRate {
		maxDefaultRate = config.MaxSampleRate
	}

	c.captureRate = maxDefaultRate
	if c.usingAudioMoth && findings.PreferredRateHz > 0 {
		c.captureRate = findings.PreferredRateHz
	}

	requested := c.opts.RequestedSampleRate
	if requested == 0 {
		requested = maxDefaultRate
	}
	c.outputRate = requested
	if c.captureRate < c.outputRate {
		c.outputRate = c.captureRate
	}

	if c.opts.HeterodyneEnabled && c.opts.HeterodyneFrequency >= c.outputRate/2 {
		return fmt.Errorf("heterodyne frequency %d must be below half the resolved output rate (%d)",
			c.opts.HeterodyneFrequency, c.outputRate/2)
	}

	c.timestamp = &capture.Timestamp{}
	c.resampler = capture.New(c.ring, c.timestamp, c.outputRate)

	period := c.captureRate / callbacksPerSecond
	c.stoppedCh = make(chan struct{}, 1)

	onData := func(in, out []int16) {
		c.resampler.Process(in, c.captureRate)
	}
	onNotify := func(n backend.Notification) {
		if n == backend.Stopped {
			select {
			case c.stoppedCh <- struct{}{}:
			default:
			}
		}
	}

	var captureDevice backend.DeviceInfo
	if c.usingAudioMoth {
		if devices, err := backend.EnumerateDevices(backend.Capture); err == nil {
			for _, d := range devices {
				if d.Name == findings.PreferredName {
					captureDevice = d
					break
				}
			}
		}
	}

	stream, err := backend.OpenCapture(captureDevice.Handle, c.captureRate, period, onData, onNotify)
	if err != nil {
		return err
	}
	c.captureStream = stream

	if err := stream.Start(); err != nil {
		return err
	}

	deadline := time.Now().Add(deviceStopStartTimeout)
	for !c.resampler.Started() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !c.resampler.Started() {
		return fmt.Errorf("capture device did not start within %s", deviceStopStartTimeout)
	}

	c.startedAt = time.Now()

	if c.writer.Enabled() {
		c.queue.Push(c.startEvent())
	}

	if c.opts.Monitor || c.opts.HeterodyneEnabled {
		if err := c.openPlayback(); err != nil {
			logging.Warning(c.log, "playback device unavailable", "err", err)
		}
	}

	return nil
}

func (c *Controller) openPlayback() error {
	var demod *heterodyne.Demodulator
	if c.opts.HeterodyneEnabled {
		demod = heterodyne.New(c.outputRate, float64(c.opts.HeterodyneFrequency))
	}

	// This tool only ever targets desktop operating systems, so the
	// embedded lag-threshold profile never applies here.
	player := playback.New(c.ring, c.outputRate, true, demod)

	period := playback.PlaybackRate / callbacksPerSecond
	onData := func(in, out []int16) {
		player.Fill(out)
	}

	stream, err := backend.OpenPlayback(playback.PlaybackRate, period, onData)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		return err
	}
	c.playbackStream = stream
	return nil
}

func (c *Controller) startEvent() autosave.Event {
	startTimeMs, startCount, currentCount, rate := c.timestamp.Snapshot()
	_, writeIndex := c.ringSnapshot()
	return autosave.Event{
		Type:               autosave.Start,
		SampleRate:         rate,
		CurrentCount:       currentCount,
		CurrentIndex:       writeIndex,
		StartTimeMs:        startTimeMs,
		StartCount:         startCount,
		InputDeviceComment: c.supervisor.Latest().PreferredName,
	}
}

func (c *Controller) ringSnapshot() (int64, uint32) {
	_, _, currentCount, _ := c.timestamp.Snapshot()
	return currentCount, c.ring.SnapshotWriteIndex()
}

// runUntilTransition polls at callbacksPerSecond cadence until a restart or
// shutdown condition is observed, then returns the next state.
func (c *Controller) runUntilTransition() state {
	ticker := time.NewTicker(time.Second / callbacksPerSecond)
	defer ticker.Stop()

	for range ticker.C {
		if !c.signals.Running() {
			return stateShuttingDown
		}

		audioTimeMs := c.timestamp.AudioTimeMs()
		wallClockMs := audiotime.NowMillisecondUTC()
		if abs64(audioTimeMs-wallClockMs) > timeMismatchLimitMs {
			logging.Warning(c.log, "audio clock diverged from wall clock, restarting capture")
			return stateRestarting
		}

		if time.Since(c.startedAt) >= deviceChangeSettle {
			findings := c.supervisor.Latest()

			if findings.AudioMothFound != c.usingAudioMoth {
				logging.Warning(c.log, "preferred microphone availability changed, restarting capture")
				return stateRestarting
			}

			if findings.OldFirmwareFound && !c.warnedOldFirmware {
				logging.Warning(c.log, "legacy AudioMoth firmware detected")
				c.warnedOldFirmware = true
			}
			if !findings.OldFirmwareFound {
				c.warnedOldFirmware = false
			}
		}
	}

	return stateRunning
}

func (c *Controller) enterRestarting() {
	_, _, currentCount, rate := c.timestamp.Snapshot()

	if c.playbackStream != nil {
		c.playbackStream.Stop()
		c.playbackStream.Close()
		c.playbackStream = nil
	}

	if c.captureStream != nil {
		c.captureStream.Stop()

		select {
		case <-c.stoppedCh:
		case <-time.After(deviceStopStartTimeout):
			logging.Warning(c.log, "device stop notification timed out, proceeding")
		}

		c.captureStream.Close()
		c.captureStream = nil
	}

	if c.writer.Enabled() {
		startTimeMs, startCount, _, _ := c.timestamp.Snapshot()
		c.queue.Push(autosave.Event{
			Type:               autosave.Restart,
			SampleRate:         rate,
			CurrentCount:       currentCount,
			CurrentIndex:       c.ring.SnapshotWriteIndex(),
			StartTimeMs:        startTimeMs,
			StartCount:         startCount,
			InputDeviceComment: c.supervisor.Latest().PreferredName,
		})
	}
}

func (c *Controller) enterShuttingDown() {
	if !c.writer.Enabled() {
		c.stopStreams()
		return
	}

	_, _, currentCount, _ := c.timestamp.Snapshot()
	c.queue.Push(autosave.Event{
		Type:         autosave.Shutdown,
		CurrentCount: currentCount,
	})

	deadline := time.Now().Add(deviceShutdownTimeout)
	for !c.writer.ShutdownCompleted() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	c.stopStreams()
}

func (c *Controller) stopStreams() {
	if c.playbackStream != nil {
		c.playbackStream.Stop()
		c.playbackStream.Close()
	}
	if c.captureStream != nil {
		c.captureStream.Stop()
		c.captureStream.Close()
	}
}

// runAutosaveWorker drains the autosave event queue and checks for pending
// minute transitions on a quarter-second cadence, the same cadence the
// device supervisor polls on.
func (c *Controller) runAutosaveWorker(stop <-chan struct{}) {
	ticker := time.NewTicker(device.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.writer.Enabled() {
				continue
			}
			_, _, currentCount, _ := c.timestamp.Snapshot()
			c.writer.ProcessEvents(c.queue, currentCount)
			c.writer.CheckMinuteTransition(currentCount)
		}
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
