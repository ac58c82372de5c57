// Package wavfile implements WAV file output: header initialisation,
// sample-rate/duration details, a comment embedding the recording's epoch
// time and UTC offset, filename generation, and two-range write/append so a
// ring-buffer wrap never has to be copied into one contiguous slice first.
package wavfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/strftime"

	"github.com/openacousticdevices/audiomoth-recorder/internal/audiotime"
)

const (
	bitsPerSample  = 16
	numChannels    = 1
	bytesPerSample = bitsPerSample / 8
)

// filenamePattern mirrors the AudioMoth-Live filename convention: a
// UTC-or-local timestamp down to the second.
var filenamePattern = strftime.MustNew("%Y%m%d_%H%M%S.WAV")

// Filename returns the destination path for a recording starting at
// epochSeconds (already adjusted by the caller for local/UTC display).
func Filename(destinationDir string, epochSeconds int64) string {
	t := audiotime.GMTime(epochSeconds)
	var buf bytes.Buffer
	_ = filenamePattern.Format(&buf, t)
	return filepath.Join(destinationDir, buf.String())
}

// Comment builds the WAV file's embedded comment text: epoch time, UTC
// offset, and the input device's name, matching
// WavFile_setHeaderComment(header, epochSeconds, -1, localOffset, deviceName)
// 
func Comment(epochSeconds int64, localOffsetSeconds int, deviceName string) string {
	t := audiotime.GMTime(epochSeconds)
	return fmt.Sprintf("Recorded at %s (%s) by %s",
		t.Format("2006-01-02 15:04:05"),
		audiotime.FormatUTCOffset(localOffsetSeconds),
		deviceName)
}

// Header describes everything needed to render a RIFF/WAVE header for
// mono, signed 16-bit PCM audio — the only sample format the
// Non-goals permit.
type Header struct {
	SampleRate int32
	NumSamples int32
	Comment    string
}

const riffHeaderFixedSize = 44 // standard 44-byte PCM WAV header, no extension chunk

func (h Header) dataBytes() int32 { return h.NumSamples * numChannels * bytesPerSample }

// bytesOf renders the fixed 44-byte RIFF/WAVE header. The LIST/INFO
// comment chunk, if present, is appended after it and its size is folded
// into the RIFF chunk size.
func (h Header) bytesOf() []byte {
	var commentChunk []byte
	if h.Comment != "" {
		commentChunk = commentChunkBytes(h.Comment)
	}

	buf := make([]byte, riffHeaderFixedSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(riffHeaderFixedSize-8+len(commentChunk)+int(h.dataBytes())))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(buf[22:24], numChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.SampleRate))
	byteRate := h.SampleRate * numChannels * bytesPerSample
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], numChannels*bytesPerSample) // block align
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(h.dataBytes()))

	out := make([]byte, 0, len(buf)+len(commentChunk))
	out = append(out, buf...)
	out = append(out, commentChunk...)
	return out
}

func commentChunkBytes(comment string) []byte {
	payload := []byte(comment)
	if len(payload)%2 == 1 {
		payload = append(payload, 0) // chunks are word-aligned
	}
	chunk := make([]byte, 8+len(payload))
	copy(chunk[0:4], "ICMT")
	binary.LittleEndian.PutUint32(chunk[4:8], uint32(len(payload)))
	copy(chunk[8:], payload)
	return chunk
}

// WriteFile creates a new WAV file at path containing samplesA followed by
// samplesB, the two-range form that lets a ring-buffer wrap skip a
// contiguous copy first.
func WriteFile(header Header, path string, samplesA, samplesB []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavfile: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(header.bytesOf()); err != nil {
		return fmt.Errorf("wavfile: write header: %w", err)
	}
	if err := writeSamples(f, samplesA); err != nil {
		return err
	}
	if err := writeSamples(f, samplesB); err != nil {
		return err
	}

	return syncAndClose(f)
}

// AppendFile appends samplesA followed by samplesB to the existing WAV
// file at path, updating its RIFF/data chunk sizes in place. It reports
// whether the append succeeded; the caller falls back to WriteFile on
// failure 
func AppendFile(path string, samplesA, samplesB []int16) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return false
	}
	defer f.Close()

	added := int32(len(samplesA)+len(samplesB)) * bytesPerSample

	if err := bumpChunkSize(f, 4, added); err != nil {
		return false
	}
	if err := bumpChunkSize(f, 40, added); err != nil {
		return false
	}

	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		return false
	}
	if err := writeSamples(f, samplesA); err != nil {
		return false
	}
	if err := writeSamples(f, samplesB); err != nil {
		return false
	}

	return syncAndClose(f) == nil
}

func bumpChunkSize(f *os.File, offset int64, delta int32) error {
	var current [4]byte
	if _, err := f.ReadAt(current[:], offset); err != nil {
		return err
	}
	value := int32(binary.LittleEndian.Uint32(current[:])) + delta
	binary.LittleEndian.PutUint32(current[:], uint32(value))
	_, err := f.WriteAt(current[:], offset)
	return err
}

func writeSamples(f *os.File, samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	buf := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("wavfile: write samples: %w", err)
	}
	return nil
}
