package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openacousticdevices/audiomoth-recorder/internal/backend"
	"github.com/openacousticdevices/audiomoth-recorder/internal/device"
	"github.com/openacousticdevices/audiomoth-recorder/internal/logging"
)

func TestCheckPrefersFirstAudioMoth(t *testing.T) {
	list := []backend.DeviceInfo{
		{Name: "Built-in Microphone"},
		{Name: "192kHz AudioMoth USB Microphone"},
		{Name: "384kHz AudioMoth USB Microphone"},
	}
	s := device.New(logging.Root(), func() ([]backend.DeviceInfo, error) { return list, nil })

	f := s.Check()
	assert.True(t, f.AudioMothFound)
	assert.Equal(t, 192000, f.PreferredRateHz)
	assert.Equal(t, f, s.Latest())
}

func TestCheckFlagsOldFirmwareAlongsidePreferredDevice(t *testing.T) {
	list := []backend.DeviceInfo{
		{Name: "F32x USBXpress Device"},
		{Name: "384kHz AudioMoth USB Microphone"},
	}
	s := device.New(logging.Root(), func() ([]backend.DeviceInfo, error) { return list, nil })

	f := s.Check()
	assert.True(t, f.OldFirmwareFound)
	assert.True(t, f.AudioMothFound)
}

func TestCheckWithNoPreferredDevice(t *testing.T) {
	list := []backend.DeviceInfo{{Name: "Built-in Microphone"}}
	s := device.New(logging.Root(), func() ([]backend.DeviceInfo, error) { return list, nil })

	f := s.Check()
	assert.False(t, f.AudioMothFound)
	assert.False(t, f.OldFirmwareFound)
}
