package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithNoArguments(t *testing.T) {
	opts, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, ".", opts.DestinationDir)
	assert.False(t, opts.HighSampleRate)
	assert.False(t, opts.UseUTC)
	assert.Equal(t, 0, opts.AutosaveMinutes)
	assert.False(t, opts.Monitor)
	assert.False(t, opts.HeterodyneEnabled)
	assert.Equal(t, 0, opts.RequestedSampleRate)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	opts, err := Parse([]string{"hsr", "utc", "Monitor"})
	require.NoError(t, err)

	assert.True(t, opts.HighSampleRate)
	assert.True(t, opts.UseUTC)
	assert.True(t, opts.Monitor)
}

func TestAutosaveRejectsInvalidMinuteCount(t *testing.T) {
	_, err := Parse([]string{"AUTOSAVE", "7"})
	assert.Error(t, err)
}

func TestAutosaveAcceptsValidMinuteCount(t *testing.T) {
	opts, err := Parse([]string{"AUTOSAVE", "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, opts.AutosaveMinutes)
}

func TestHeterodyneRejectsFrequencyBelowMinimum(t *testing.T) {
	_, err := Parse([]string{"HETERODYNE", "1000"})
	assert.Error(t, err)
}

func TestHeterodyneRejectsFrequencyAboveNyquist(t *testing.T) {
	_, err := Parse([]string{"48000", "HETERODYNE", "24000"})
	assert.Error(t, err)
}

func TestHeterodyneAcceptsValidFrequency(t *testing.T) {
	opts, err := Parse([]string{"192000", "HETERODYNE", "40000"})
	require.NoError(t, err)
	assert.True(t, opts.HeterodyneEnabled)
	assert.Equal(t, 40000, opts.HeterodyneFrequency)
}

func TestBareIntegerSetsSampleRate(t *testing.T) {
	opts, err := Parse([]string{"96000"})
	require.NoError(t, err)
	assert.Equal(t, 96000, opts.RequestedSampleRate)
}

func TestBareIntegerRejectsUnsupportedRate(t *testing.T) {
	_, err := Parse([]string{"44100"})
	assert.Error(t, err)
}

func TestDestinationDirMustExist(t *testing.T) {
	_, err := Parse([]string{"/path/that/does/not/exist/hopefully"})
	assert.Error(t, err)
}

func TestDestinationDirAcceptsExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	opts, err := Parse([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, opts.DestinationDir)
}
