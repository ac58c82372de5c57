package resample_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openacousticdevices/audiomoth-recorder/internal/resample"
)

// TestIdentityResamplingPassesSamplesThrough checks the round-trip
// property: with R_in == R_out (divider 1, step 1), each input sample
// emerges unchanged (within rounding).
func TestIdentityResamplingPassesSamplesThrough(t *testing.T) {
	var s resample.Stepper
	s.Divider = resample.Divider(48000, 48000)
	assert.EqualValues(t, 1, s.Divider)

	input := []int16{0, 100, -100, 32000, -32000, 1, -1}
	var out []int16

	for _, v := range input {
		s.Step(float64(v), 1.0, nil, func(o int16) { out = append(out, o) })
	}
	// Flush the pipeline delay (one input behind) with a final sample.
	s.Step(float64(input[len(input)-1]), 1.0, nil, func(o int16) { out = append(out, o) })

	require_len := len(input)
	if len(out) < require_len {
		t.Fatalf("got %d output samples, want at least %d", len(out), require_len)
	}
	// Output is delayed by one sample (cur starts at 0); from index 1 on it
	// should track the input within ±1 LSB.
	for i := 1; i < len(input); i++ {
		got := out[i]
		want := input[i-1]
		diff := int(got) - int(want)
		if diff < -1 || diff > 1 {
			t.Fatalf("sample %d: got %d want %d (diff %d)", i, got, want, diff)
		}
	}
}

func TestDividerRoundsUp(t *testing.T) {
	assert.EqualValues(t, 8, resample.Divider(384000, 48000))
	assert.EqualValues(t, 1, resample.Divider(48000, 48000))
	assert.EqualValues(t, 2, resample.Divider(96000, 48000))
}

func TestResetClearsAccumulatedState(t *testing.T) {
	var s resample.Stepper
	s.Divider = 1
	s.Step(1000, 1.0, nil, func(int16) {})
	s.Reset()
	var out []int16
	s.Step(0, 1.0, nil, func(o int16) { out = append(out, o) })
	assert.Equal(t, []int16{0}, out)
}
