package wavfile_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacousticdevices/audiomoth-recorder/internal/wavfile"
)

func readSamples(t *testing.T, path string) []int16 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Locate the "data" chunk id + size, then read its payload.
	idx := -1
	for i := 0; i+4 <= len(data); i++ {
		if string(data[i:i+4]) == "data" {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "data chunk not found")
	size := binary.LittleEndian.Uint32(data[idx+4 : idx+8])
	payload := data[idx+8 : idx+8+int(size)]

	out := make([]int16, len(payload)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return out
}

// TestWriteThenReadRoundTrips checks the round-trip property: encoding K
// samples then decoding the payload yields the same K samples.
func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(i - 500)
	}

	header := wavfile.Header{SampleRate: 48000, NumSamples: int32(len(samples)), Comment: "test"}
	require.NoError(t, wavfile.WriteFile(header, path, samples, nil))

	got := readSamples(t, path)
	assert.Equal(t, samples, got)
}

func TestWriteThenAppendGrowsDataChunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")

	first := []int16{1, 2, 3}
	header := wavfile.Header{SampleRate: 48000, NumSamples: int32(len(first))}
	require.NoError(t, wavfile.WriteFile(header, path, first, nil))

	second := []int16{4, 5}
	ok := wavfile.AppendFile(path, second, nil)
	require.True(t, ok)

	got := readSamples(t, path)
	assert.Equal(t, []int16{1, 2, 3, 4, 5}, got)
}

func TestWriteWithTwoRangesConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wrap.wav")

	a := []int16{10, 20, 30}
	b := []int16{40, 50}
	header := wavfile.Header{SampleRate: 48000, NumSamples: int32(len(a) + len(b))}
	require.NoError(t, wavfile.WriteFile(header, path, a, b))

	got := readSamples(t, path)
	assert.Equal(t, []int16{10, 20, 30, 40, 50}, got)
}
