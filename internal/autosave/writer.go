package autosave

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/openacousticdevices/audiomoth-recorder/internal/assert"
	"github.com/openacousticdevices/audiomoth-recorder/internal/audiotime"
	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
)

const (
	secondsInMinute      = 60
	millisecondsInSecond = 1000
)

// ValidDurations is the set of permitted --autosave minute counts:
// {0, 1, 5, 10, 60}. 0 disables the subsystem entirely.
var ValidDurations = []int{0, 1, 5, 10, 60}

// Writer is the background worker: it drains the event
// queue, tracks the current file's cursor, and produces minute-aligned WAV
// files, appending when consecutive minutes share wall-clock continuity.
type Writer struct {
	log logging.Logger

	autosaveDurationMinutes int
	useLocalTime            bool
	destinationDir          string

	ring *ringbuffer.Buffer

	fileStartTimeS     int64
	fileStartIndex     uint32
	fileStartCount     int64
	fileSampleRate     int
	deviceComment      string
	targetCount        int64 // int64 max sentinel == "no file open"

	waitingForStart bool
	shutdownDone    atomic.Bool

	previousLocalOffset int
	previousStopTimeS   int64
	previousFilename    string
	haveWrittenBefore   bool

	writeFile  func(path string, sampleRate int32, numSamples int32, comment string, a, b []int16) bool
	appendFile func(path string, a, b []int16) bool
	now        func() int64 // epoch seconds, UTC — overridable in tests
}

// New constructs a Writer. ring is the shared capture ring buffer;
// durationMinutes must be one of ValidDurations (0 disables autosave).
func New(log logging.Logger, ring *ringbuffer.Buffer, durationMinutes int, useLocalTime bool, destinationDir string) *Writer {
	w := &Writer{
		log:                     log,
		autosaveDurationMinutes: durationMinutes,
		useLocalTime:            useLocalTime,
		destinationDir:          destinationDir,
		ring:                    ring,
		waitingForStart:         true,
		targetCount:             math.MaxInt64,
		now:                     func() int64 { return audiotime.NowMillisecondUTC() / 1000 },
	}
	w.writeFile = w.defaultWriteFile
	w.appendFile = w.defaultAppendFile

	if durationMinutes != 0 {
		assert.True(secondsInMinute%durationMinutes == 0,
			"autosave duration %d minutes does not evenly divide an hour", durationMinutes)
	}

	return w
}

// Enabled reports whether autosave is active (AUTOSAVE 0
// disables the entire subsystem; no events may be emitted and no files
// written in that case — enforced by the caller never constructing events
// when this is false).
func (w *Writer) Enabled() bool { return w.autosaveDurationMinutes != 0 }

// ShutdownCompleted reports whether a SHUTDOWN event has been fully
// processed, for the Lifecycle Controller's bounded wait.
func (w *Writer) ShutdownCompleted() bool { return w.shutdownDone.Load() }

// ProcessEvents drains all pending events from q in order, applying the
// per-event-type state transitions below, given a consistent snapshot of
// the current sample count (taken by the caller under the stream
// timestamp's lock).
func (w *Writer) ProcessEvents(q *Queue, currentSampleCount int64) {
	for {
		ev, ok := q.Pop()
		if !ok {
			return
		}
		w.processOne(ev, currentSampleCount)
	}
}

func (w *Writer) processOne(ev Event, currentSampleCount int64) {
	if w.waitingForStart && ev.Type == Start {
		w.fileSampleRate = ev.SampleRate
		w.deviceComment = ev.InputDeviceComment

		countDifference := ev.CurrentCount - ev.StartCount
		updatedStartTimeMs := ev.StartTimeMs + roundedDiv(countDifference*millisecondsInSecond, int64(w.fileSampleRate))

		ms := int32(updatedStartTimeMs % millisecondsInSecond)
		w.fileStartTimeS = updatedStartTimeMs / millisecondsInSecond
		w.fileStartCount = ev.CurrentCount
		w.fileStartIndex = ev.CurrentIndex

		w.updateForMillisecondOffset(ms)
		w.waitingForStart = false
	}

	if currentSampleCount >= w.targetCount && w.targetCount < ev.CurrentCount {
		w.makeMinuteTransitionRecording()
	}

	switch ev.Type {
	case Restart:
		duration := int32((ev.StartCount - w.fileStartCount) / int64(w.fileSampleRate))
		w.writeAutosaveFile(duration)

		w.fileSampleRate = ev.SampleRate
		w.deviceComment = ev.InputDeviceComment

		ms := int32(ev.StartTimeMs % millisecondsInSecond)
		w.fileStartTimeS = ev.StartTimeMs / millisecondsInSecond
		w.fileStartCount = ev.StartCount

		countDifference := ev.CurrentCount - ev.StartCount
		w.fileStartIndex = uint32((int64(ringbuffer.Capacity) + int64(ev.CurrentIndex) - countDifference) % ringbuffer.Capacity)

		w.updateForMillisecondOffset(ms)

	case Stop:
		duration := int32((ev.CurrentCount - w.fileStartCount) / int64(w.fileSampleRate))
		w.writeAutosaveFile(duration)
		w.waitingForStart = true
		w.targetCount = math.MaxInt64

	case Shutdown:
		if !w.waitingForStart {
			duration := int32((ev.CurrentCount - w.fileStartCount) / int64(w.fileSampleRate))
			w.writeAutosaveFile(duration)
		}
		w.shutdownDone.Store(true)
		w.waitingForStart = true
		w.targetCount = math.MaxInt64
	}
}

// CheckMinuteTransition runs after draining all
// events, if the sample count has already reached the target, emit one
// more minute-transition file (covers the case where no event arrived in
// this pass but a minute boundary still needs closing).
func (w *Writer) CheckMinuteTransition(currentSampleCount int64) {
	if currentSampleCount >= w.targetCount {
		w.makeMinuteTransitionRecording()
	}
}

// updateForMillisecondOffset realigns the file cursor to the next
// wall-clock minute boundary.
func (w *Writer) updateForMillisecondOffset(ms int32) {
	if ms > 0 {
		millisecondOffset := int32(millisecondsInSecond) - ms
		sampleOffset := int32(roundedDiv(int64(w.fileSampleRate)*int64(millisecondOffset), millisecondsInSecond))

		w.fileStartCount += int64(sampleOffset)
		w.fileStartIndex = uint32((int64(w.fileStartIndex) + int64(sampleOffset)) % ringbuffer.Capacity)
		w.fileStartTimeS++
	}

	t := audiotime.GMTime(w.fileStartTimeS)
	w.targetCount = w.fileStartCount + int64(secondsInMinute-t.Second())*int64(w.fileSampleRate)
}

// makeMinuteTransitionRecording closes out the file covering the elapsed
// minute and advances the cursor to the next one.
func (w *Writer) makeMinuteTransitionRecording() {
	sampleCountDifference := w.targetCount - w.fileStartCount
	duration := int32(sampleCountDifference / int64(w.fileSampleRate))

	w.writeAutosaveFile(duration)

	w.fileStartTimeS += int64(duration)
	w.fileStartIndex = uint32((int64(w.fileStartIndex) + sampleCountDifference) % ringbuffer.Capacity)
	w.fileStartCount = w.targetCount
	w.targetCount = w.fileStartCount + secondsInMinute*int64(w.fileSampleRate)
}

// writeAutosaveFile flushes duration seconds starting at fileStartIndex,
// appending to the previous file when the append-eligibility rule holds,
// else starting a fresh one.
func (w *Writer) writeAutosaveFile(duration int32) {
	if duration == 0 {
		return
	}

	localOffset := 0
	if w.useLocalTime {
		localOffset = audiotime.LocalOffsetSeconds(w.fileStartTimeS)
	}

	t := audiotime.GMTime(w.fileStartTimeS)

	// Append-eligibility rule. The third clause
	// (`sec == 0 && (min mod autosaveDuration) > 0`) is unusual but
	// intentional — it is not a bug to "fix".
	shouldAppend := localOffset == w.previousLocalOffset
	shouldAppend = shouldAppend && w.fileStartTimeS == w.previousStopTimeS
	shouldAppend = shouldAppend && t.Second() == 0 && t.Minute()%w.autosaveDurationMinutes > 0
	shouldAppend = shouldAppend && w.haveWrittenBefore

	w.previousStopTimeS = w.fileStartTimeS + int64(duration)
	w.previousLocalOffset = localOffset

	numberOfSamples := duration * int32(w.fileSampleRate)
	// Slice already returns two ranges exactly when the request straddles
	// the ring's wrap point — writes that span it are delivered to the WAV
	// encoder as two contiguous byte ranges.
	a, b := w.ring.Slice(w.fileStartIndex, uint32(numberOfSamples))

	success := false
	if shouldAppend {
		success = w.appendFile(w.previousFilename, a, b)
	}

	if !shouldAppend || !success {
		filename := w.newFilename(t.Unix() + int64(localOffset))
		comment := w.comment(t.Unix()+int64(localOffset), localOffset)
		success = w.writeFile(filename, int32(w.fileSampleRate), numberOfSamples, comment, a, b)
		w.previousFilename = filename
	}

	w.haveWrittenBefore = true

	w.logTimeRange(duration, localOffset)

	if !success {
		logging.Error(w.log, "Could not write WAV file")
	}
}

func roundedDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return (num + den/2) / den
}

func (w *Writer) logTimeRange(duration int32, localOffset int) {
	start := time.Unix(w.fileStartTimeS+int64(localOffset), 0).UTC()
	end := start.Add(time.Duration(duration) * time.Second)
	w.log.Info(start.Format("15:04:05") + " to " + end.Format("15:04:05") +
		" (" + audiotime.FormatUTCOffset(localOffset) + ")")
}
