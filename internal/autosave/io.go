package autosave

import "github.com/openacousticdevices/audiomoth-recorder/internal/wavfile"

func (w *Writer) newFilename(epochSeconds int64) string {
	return wavfile.Filename(w.destinationDir, epochSeconds)
}

func (w *Writer) comment(epochSeconds int64, localOffsetSeconds int) string {
	return wavfile.Comment(epochSeconds, localOffsetSeconds, w.deviceComment)
}

func (w *Writer) defaultWriteFile(path string, sampleRate int32, numSamples int32, comment string, a, b []int16) bool {
	header := wavfile.Header{SampleRate: sampleRate, NumSamples: numSamples, Comment: comment}
	return wavfile.WriteFile(header, path, a, b) == nil
}

func (w *Writer) defaultAppendFile(path string, a, b []int16) bool {
	if path == "" {
		return false
	}
	return wavfile.AppendFile(path, a, b)
}
