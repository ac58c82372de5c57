// Package heterodyne implements the demodulator: a stateful linear operator
// over sample streams, reset on init with (outputRate, carrierFreq). It
// mixes the input stream down by the carrier frequency and normalizes the
// result so ultrasonic content becomes audible without clipping.
package heterodyne

import "math"

// MinimumFrequency is the minimum heterodyne carrier frequency: 12kHz,
// below which the CLI must reject a HETERODYNE request.
const MinimumFrequency = 12000

// Demodulator mixes an input sample stream down by a fixed carrier
// frequency using a simple real-valued oscillator multiply, then tracks a
// running peak to normalize output amplitude. The zero value is not
// usable; construct with New.
type Demodulator struct {
	phaseIncrement float64 // radians per sample
	phase          float64

	peak float64 // running peak magnitude, decayed each normalise pass
}

// New constructs a Demodulator for sampleRate and carrierFreq, reset on
// every (re)configuration.
func New(sampleRate int, carrierFreq float64) *Demodulator {
	d := &Demodulator{}
	d.Reset(sampleRate, carrierFreq)
	return d
}

// Reset reinitializes the oscillator phase and normalization state for a
// new (sampleRate, carrierFreq) pair.
func (d *Demodulator) Reset(sampleRate int, carrierFreq float64) {
	d.phaseIncrement = 2 * math.Pi * carrierFreq / float64(sampleRate)
	d.phase = 0
	d.peak = 1
}

// Normalise is called once per output batch, before any Next calls. It
// decays the tracked peak slightly so the gain recovers after a transient.
func (d *Demodulator) Normalise() {
	d.peak *= 0.999
	if d.peak < 1 {
		d.peak = 1
	}
}

// Next mixes one raw per-tick interpolated sample down by the carrier and
// returns the normalized float result. It must be called on every
// oversampled tick before the box filter accumulates it, not on the
// decimated output — clipping to int16 happens later, once the box filter
// has averaged its ticks.
func (d *Demodulator) Next(sample float64) float64 {
	mixed := sample * math.Cos(d.phase)

	d.phase += d.phaseIncrement
	if d.phase > 2*math.Pi {
		d.phase -= 2 * math.Pi
	}

	if abs := math.Abs(mixed); abs > d.peak {
		d.peak = abs
	}

	return mixed * (32000 / d.peak)
}
