package ringbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/openacousticdevices/audiomoth-recorder/internal/ringbuffer"
)

func TestAppendAdvancesWriteIndexByLen(t *testing.T) {
	b := ringbuffer.New()

	before := b.SnapshotWriteIndex()
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(i)
	}
	b.Append(samples)
	after := b.SnapshotWriteIndex()

	require.EqualValues(t, len(samples), (after-before)%ringbuffer.Capacity)
}

func TestSliceRoundTripsWithinOneWrap(t *testing.T) {
	b := ringbuffer.New()

	samples := make([]int16, 5000)
	for i := range samples {
		samples[i] = int16(i % 32000)
	}
	b.Append(samples)

	a, rest := b.Slice(0, 5000)
	assert.Empty(t, rest)
	assert.Equal(t, samples, a)
}

func TestSliceSplitsAcrossWrap(t *testing.T) {
	b := ringbuffer.New()

	// Push the write index near the end of the buffer.
	pad := make([]int16, ringbuffer.Capacity-10)
	b.Append(pad)

	tail := make([]int16, 30)
	for i := range tail {
		tail[i] = int16(1000 + i)
	}
	b.Append(tail)

	a, rest := b.Slice(ringbuffer.Capacity-10, 30)
	require.Len(t, a, 10)
	require.Len(t, rest, 20)
	assert.Equal(t, tail[:10], a)
	assert.Equal(t, tail[10:], rest)
}

// TestSliceTotalLengthMatchesRequest is the property : a
// write that straddles the wrap point always splits into two ranges whose
// combined length equals the requested count, for any start/length pair.
func TestSliceTotalLengthMatchesRequest(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := ringbuffer.New()
		start := rapid.Uint32Range(0, ringbuffer.Capacity-1).Draw(rt, "start")
		length := rapid.Uint32Range(0, ringbuffer.Capacity).Draw(rt, "length")

		a, rest := b.Slice(start, length)
		if int(length) != len(a)+len(rest) {
			rt.Fatalf("got %d+%d samples, want %d", len(a), len(rest), length)
		}
	})
}
