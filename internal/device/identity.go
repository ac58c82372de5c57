// Package device implements the Device Supervisor: it periodically
// enumerates input devices, classifies each by name to find the preferred
// microphone and legacy-firmware warnings, and publishes its findings for
// the Lifecycle Controller to pull.
package device

import (
	"strconv"
	"strings"
)

// legacyUSBXpressMarker and audiomothMarker are the device-name substrings
// that identify a recognized microphone: a bare "AudioMoth" without a rate
// prefix, or the "F32x USBXpress Device" name, both mark outdated firmware.
const (
	legacyUSBXpressMarker = "F32x USBXpress Device"
	audiomothMarker       = "AudioMoth"
	audiomothRateSuffix   = "kHz AudioMoth"
)

// Classification is the per-device classification result.
type Classification struct {
	IsAudioMoth   bool
	IsOldFirmware bool
	NativeRateHz  int // valid only when IsAudioMoth && NativeRateHz > 0
}

// Classify inspects one enumerated device name and reports whether it is an
// AudioMoth, whether it reports outdated firmware, and its native sample
// rate if known.
func Classify(name string) Classification {
	var c Classification

	if strings.Contains(name, legacyUSBXpressMarker) {
		c.IsOldFirmware = true
	}

	if strings.Contains(name, audiomothMarker) {
		c.IsAudioMoth = true

		if !strings.Contains(name, audiomothRateSuffix) {
			c.IsOldFirmware = true
		} else {
			c.NativeRateHz = parseNativeRate(name)
		}
	}

	return c
}

// parseNativeRate extracts the leading "<digits>kHz AudioMoth" rate, in
// Hz, from a recognized AudioMoth device name. It returns 0 if the name
// does not match that exact form.
func parseNativeRate(name string) int {
	idx := strings.Index(name, audiomothRateSuffix)
	if idx < 0 {
		return 0
	}

	digitsEnd := idx
	digitsStart := digitsEnd
	for digitsStart > 0 && name[digitsStart-1] >= '0' && name[digitsStart-1] <= '9' {
		digitsStart--
	}
	if digitsStart == digitsEnd {
		return 0
	}

	kHz, err := strconv.Atoi(name[digitsStart:digitsEnd])
	if err != nil {
		return 0
	}
	return kHz * 1000
}
