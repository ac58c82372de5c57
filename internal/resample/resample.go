// Package resample implements the box-filtered linear interpolation step
// function shared by capture resampling and playback.
package resample

import "math"

// Stepper holds the state one direction of resampling carries across
// callback invocations: the fractional sample position, the two samples
// bracketing it, the box-filter accumulator, and the oversample counter.
// The zero value holds cleared state, but emits nothing until Divider is
// set to a positive value.
type Stepper struct {
	Divider int32 // D: integer oversample divider

	pos  float64 // fractional position in [0,1)
	cur  float64
	next float64
	acc  float64
	ctr  int32
}

// Reset clears all interpolation state, as the capture resampler does on
// every (re)start. The playback resampler does not call it; its state
// carries over an overrun jump.
func (s *Stepper) Reset() {
	s.pos = 0
	s.cur = 0
	s.next = 0
	s.acc = 0
	s.ctr = 0
}

// Step feeds one input sample through the box filter and invokes emit for
// each output sample produced (zero or more times, typically zero or one).
// step is R_in/R_interp (or R_out/MAX_SAMPLE_RATE for playback's fixed
// divider case) — the fractional input-samples-per-interpolation-tick.
// mix, if non-nil, transforms each raw interpolated tick value before it is
// accumulated into the box filter — playback's heterodyne demodulator must
// run at this full oversampled tick rate, not on the decimated output.
func (s *Stepper) Step(sample float64, step float64, mix func(float64) float64, emit func(int16)) {
	s.cur = s.next
	s.next = sample

	for s.pos < 1.0 {
		tick := s.cur + s.pos*(s.next-s.cur)
		if mix != nil {
			tick = mix(tick)
		}
		s.acc += tick
		s.ctr++

		if s.ctr == s.Divider {
			emit(clipInt16(math.Round(s.acc / float64(s.Divider))))
			s.acc = 0
			s.ctr = 0
		}

		s.pos += step
	}

	s.pos -= 1.0
}

func clipInt16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// Divider computes D = ceil(rIn / rOut), the integer oversample divider.
func Divider(rIn, rOut int) int32 {
	if rOut <= 0 {
		return 1
	}
	d := rIn / rOut
	if rIn%rOut != 0 {
		d++
	}
	return int32(d)
}
