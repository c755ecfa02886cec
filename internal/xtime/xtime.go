// Package xtime provides the monotonic and wall-clock time primitives the
// rest of backstage builds its timing arithmetic on.
package xtime

import "time"

// GetMicroseconds returns the microsecond component of the current
// wall clock second, in [0, 1000000).
func GetMicroseconds() uint32 {
	return uint32(time.Now().Nanosecond() / 1000)
}

// GetMillisecondUTC returns the current time as milliseconds since the
// Unix epoch, UTC.
func GetMillisecondUTC() int64 {
	now := time.Now().UTC()
	return now.Unix()*1000 + int64(now.Nanosecond())/1_000_000
}

// GmTime breaks a Unix-second timestamp down into its UTC calendar fields.
func GmTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

// GetLocalTimeOffset returns the local time zone's current offset from UTC,
// in seconds.
func GetLocalTimeOffset() int32 {
	_, offset := time.Now().Local().Zone()
	return int32(offset)
}
