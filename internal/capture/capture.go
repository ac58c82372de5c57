// Package capture implements the capture resampler: it converts
// device-rate frames delivered on the realtime capture callback into the
// user-requested output rate via box-filtered linear interpolation,
// appends them to the ring buffer, and maintains the stream-timestamp
// triple.
package capture

import (
	"sync"
	"sync/atomic"

	"github.com/openacousticdevices/audiomoth-recorder/internal/audiotime"
	"github.com/openacousticdevices/audiomoth-recorder/internal/resample"
	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
)

// Timestamp is the stream timestamp triple:
// (start_time_ms_utc, start_sample_count, current_sample_count), updated
// atomically under a lock on every device restart and on each callback.
type Timestamp struct {
	mu                sync.Mutex
	startTimeMs       int64
	startSampleCount  int64
	currentSampleCount int64
	sampleRate        int
}

// Snapshot returns a consistent copy of the timestamp triple and the
// sample rate it was computed against.
func (t *Timestamp) Snapshot() (startTimeMs, startSampleCount, currentSampleCount int64, sampleRate int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTimeMs, t.startSampleCount, t.currentSampleCount, t.sampleRate
}

// AudioTimeMs computes audio_time_ms:
// start_time_ms_utc + round(1000*(current-start)/rate).
func (t *Timestamp) AudioTimeMs() int64 {
	startTimeMs, startCount, currentCount, rate := t.Snapshot()
	if rate == 0 {
		return startTimeMs
	}
	deltaSamples := currentCount - startCount
	return startTimeMs + roundedDiv(deltaSamples*1000, int64(rate))
}

func roundedDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	if (num < 0) != (den < 0) {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}

// Resampler runs on the realtime capture callback thread. It must never
// allocate per-callback beyond what Go's GC already amortizes for the
// output slice, and must never block.
type Resampler struct {
	ring       *ringbuffer.Buffer
	ts         *Timestamp
	outputRate int

	stepper resample.Stepper
	started atomic.Bool
}

// New constructs a capture resampler writing into ring at outputRate
// (R_out = min(R_req, R_in), computed by the caller).
func New(ring *ringbuffer.Buffer, ts *Timestamp, outputRate int) *Resampler {
	return &Resampler{ring: ring, ts: ts, outputRate: outputRate}
}

// Started reports whether the first callback since the last Restart has
// completed — the Timestamp.startTimeMs/startSampleCount fields are valid
// only after this becomes true. The lifecycle controller polls this with
// its own bounded timeout; it is never blocked on here.
func (r *Resampler) Started() bool { return r.started.Load() }

// Restart clears the started flag so the next Process call reinitializes
// resampler and timestamp state on entry, after a device (re)start.
func (r *Resampler) Restart() {
	r.started.Store(false)
}

// Process handles one block of frameCount samples at deviceRate, as
// delivered by the realtime capture callback.
func (r *Resampler) Process(input []int16, deviceRate int) {
	divider := resample.Divider(deviceRate, r.outputRate)
	interpRate := int(divider) * r.outputRate
	step := float64(deviceRate) / float64(interpRate)

	if !r.started.Load() {
		startTime := audiotime.NowMillisecondUTC()
		r.stepper = resample.Stepper{Divider: divider}
		r.stepper.Reset()

		_, _, currentCount, _ := r.ts.Snapshot()
		r.ts.mu.Lock()
		r.ts.startTimeMs = startTime
		r.ts.startSampleCount = currentCount
		r.ts.sampleRate = r.outputRate
		r.ts.mu.Unlock()

		r.started.Store(true)
	} else {
		r.stepper.Divider = divider
	}

	var increment int64
	out := make([]int16, 0, len(input)/int(divider)+1)

	for _, s := range input {
		r.stepper.Step(float64(s), step, nil, func(sample int16) {
			out = append(out, sample)
			increment++
		})
	}

	r.ring.Append(out)

	r.ts.mu.Lock()
	r.ts.currentSampleCount += increment
	r.ts.mu.Unlock()
}
