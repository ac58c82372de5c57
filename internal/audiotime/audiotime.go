// Package audiotime wraps the calendar/clock primitives used throughout the
// recorder: a UTC millisecond clock, a microsecond counter, UTC broken-down
// time, and the local time zone's offset.
package audiotime

import "time"

// NowMillisecondUTC returns the current UTC time as milliseconds since the
// Unix epoch.
func NowMillisecondUTC() int64 {
	return time.Now().UTC().UnixMilli()
}

// NowMicroseconds returns a free-running microsecond counter suitable for
// measuring elapsed durations. It is not an epoch timestamp.
func NowMicroseconds() uint32 {
	return uint32(time.Now().UnixMicro())
}

// GMTime decomposes epochSeconds (UTC) into a broken-down UTC time.
func GMTime(epochSeconds int64) time.Time {
	return time.Unix(epochSeconds, 0).UTC()
}

// LocalOffsetSeconds returns the local time zone's offset from UTC, in
// seconds, at the given UTC instant (so it reflects DST correctly).
func LocalOffsetSeconds(epochSeconds int64) int {
	_, offset := time.Unix(epochSeconds, 0).Local().Zone()
	return offset
}

// FormatUTCOffset renders offsetSeconds as "UTC±H" or "UTC±H:MM", for the
// per-file time-range log line, omitting the minutes when the offset is a
// whole number of hours, and dropping the sign and digit entirely for a
// true zero offset ("UTC").
func FormatUTCOffset(offsetSeconds int) string {
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	if hours == 0 && minutes == 0 {
		return "UTC"
	}
	if minutes == 0 {
		return "UTC" + sign + itoa(hours)
	}
	return "UTC" + sign + itoa(hours) + ":" + pad2(minutes)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}
