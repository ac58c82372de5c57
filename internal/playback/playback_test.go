package playback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openacousticdevices/audiomoth-recorder/internal/playback"
	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
)

func TestFillEmitsSilenceOnStarvation(t *testing.T) {
	ring := ringbuffer.New()
	p := playback.New(ring, 48000, true, nil)

	out := make([]int16, 480)
	for i := range out {
		out[i] = 1234 // poison value to make sure it's overwritten
	}
	p.Fill(out)

	for _, v := range out {
		assert.EqualValues(t, 0, v)
	}
}

func TestFillProducesAudioOnceBufferHasEnoughLag(t *testing.T) {
	ring := ringbuffer.New()
	p := playback.New(ring, 48000, true, nil)

	// Enough lag to clear starvation and the waiting flag, but not so much
	// it trips the overrun jump (desktop MAX_LAG is 5 callback-periods).
	samples := make([]int16, 48000*3/10)
	for i := range samples {
		samples[i] = 5000
	}
	ring.Append(samples)

	out := make([]int16, 480)
	p.Fill(out)

	var nonZero bool
	for _, v := range out {
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "expected non-silent output once ring has buffered audio")
}
