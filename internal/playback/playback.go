// Package playback implements the playback resampler and heterodyne host:
// it runs on the backend's playback realtime thread, tracks its own read
// cursor into the ring buffer, resamples up to PlaybackRate, and optionally
// demodulates via a heterodyne mixer.
package playback

import (
	"github.com/openacousticdevices/audiomoth-recorder/internal/heterodyne"
	"github.com/openacousticdevices/audiomoth-recorder/internal/resample"
	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
)

// PlaybackRate is the fixed monitor output rate: 48kHz.
const PlaybackRate = 48000

// MaxSampleRate bounds the playback-side divider, matching the capture
// side's maximum requested rate.
const MaxSampleRate = 384000

// CallbacksPerSecond is the callback period constant: the device
// requests 1/CallbacksPerSecond seconds of audio per realtime callback.
const CallbacksPerSecond = 10

// lagThresholds holds the platform-dependent max/target lag pair, in
// callback periods: desktop MAX=CallbacksPerSecond/2, TARGET=CallbacksPerSecond/10;
// elsewhere MAX=CallbacksPerSecond/4, TARGET=CallbacksPerSecond/20.
type lagThresholds struct {
	max    float64
	target float64
}

var desktopLagThresholds = lagThresholds{
	max:    float64(CallbacksPerSecond) / 2,
	target: float64(CallbacksPerSecond) / 10,
}

var otherLagThresholds = lagThresholds{
	max:    float64(CallbacksPerSecond) / 4,
	target: float64(CallbacksPerSecond) / 20,
}

// Player is the playback-side state: its own read cursor, waiting flag,
// and resampler state, plus an optional heterodyne demodulator.
type Player struct {
	ring       *ringbuffer.Buffer
	outputRate int // R_out: the rate samples were captured/stored at
	desktop    bool

	readIndex uint32
	waiting   bool

	stepper resample.Stepper
	demod   *heterodyne.Demodulator
}

// New constructs a Player reading from ring, where ring holds samples at
// outputRate. desktop selects which lag-threshold pair applies. A nil demod
// means heterodyne is disabled.
func New(ring *ringbuffer.Buffer, outputRate int, desktop bool, demod *heterodyne.Demodulator) *Player {
	p := &Player{
		ring:       ring,
		outputRate: outputRate,
		desktop:    desktop,
		demod:      demod,
	}
	p.readIndex = ring.SnapshotWriteIndex()
	p.stepper.Divider = resample.Divider(MaxSampleRate, PlaybackRate)
	return p
}

func (p *Player) thresholds() lagThresholds {
	if p.desktop {
		return desktopLagThresholds
	}
	return otherLagThresholds
}

// sampleLag computes (N + write_index - read_index) mod N.
func (p *Player) sampleLag(writeIndex uint32) uint32 {
	return (ringbuffer.Capacity + writeIndex - p.readIndex) % ringbuffer.Capacity
}

// Fill produces frameCount output samples at PlaybackRate into out, as the
// backend's playback realtime callback requires.
func (p *Player) Fill(out []int16) {
	writeIndex := p.ring.SnapshotWriteIndex()
	lag := p.sampleLag(writeIndex)
	bufferLagCallbacks := float64(lag) * CallbacksPerSecond / float64(p.outputRate)

	th := p.thresholds()

	if bufferLagCallbacks > th.max {
		p.readIndex = writeIndex
		p.waiting = true
	}

	starvation := lag < uint32(len(out))

	if p.waiting || starvation {
		for i := range out {
			out[i] = 0
		}
		if bufferLagCallbacks > th.target {
			p.waiting = false
		}
		return
	}

	if p.demod != nil {
		p.demod.Normalise()
	}

	step := float64(p.outputRate) / float64(MaxSampleRate)

	var mix func(float64) float64
	if p.demod != nil {
		mix = p.demod.Next
	}

	outIdx := 0
	for outIdx < len(out) {
		a, rest := p.ring.Slice(p.readIndex, 1)
		var raw int16
		if len(a) == 1 {
			raw = a[0]
		} else if len(rest) == 1 {
			raw = rest[0]
		}
		p.readIndex = (p.readIndex + 1) % ringbuffer.Capacity

		p.stepper.Step(float64(raw), step, mix, func(sample int16) {
			if outIdx < len(out) {
				out[outIdx] = sample
				outIdx++
			}
		})
	}

	if bufferLagCallbacks > th.target {
		p.waiting = false
	}
}
