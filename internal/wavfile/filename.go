package wavfile

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

const (
	filenamePattern    = "%Y%m%d_%H%M%S"
	commentTimePattern = "%H:%M:%S"
	commentDatePattern = "%d/%m/%Y"

	artistName = "AudioMoth Live"
)

// BuildFilename renders the "YYYYMMDD_HHMMSS[_mmm].WAV" filename backstage
// gives autosave recordings, mirroring WavFile_setFilename. A negative
// milliseconds omits the millisecond suffix entirely.
func BuildFilename(destination string, currentTime time.Time, milliseconds int32) string {
	stem, _ := strftime.Format(filenamePattern, currentTime)

	if milliseconds >= 0 {
		stem = fmt.Sprintf("%s_%03d", stem, milliseconds)
	}

	return filepath.Join(destination, stem+".WAV")
}

func timezoneSuffix(timeOffsetSeconds int32) string {
	timeOffsetMinutes := timeOffsetSeconds / 60
	timezoneHours := timeOffsetMinutes / 60
	timezoneMinutes := timeOffsetMinutes % 60

	out := ""

	switch {
	case timezoneHours < 0:
		out += fmt.Sprintf("%d", timezoneHours)
	case timezoneHours > 0:
		out += fmt.Sprintf("+%d", timezoneHours)
	default:
		if timezoneMinutes < 0 {
			out += "-0"
		}
		if timezoneMinutes > 0 {
			out += "+0"
		}
	}

	if timezoneMinutes < 0 {
		out += fmt.Sprintf(":%02d", -timezoneMinutes)
	}
	if timezoneMinutes > 0 {
		out += fmt.Sprintf(":%02d", timezoneMinutes)
	}

	return out
}

// BuildComment renders the ICMT comment string backstage embeds in every
// recording, mirroring WavFile_setHeaderComment. A negative milliseconds
// omits the millisecond suffix entirely. The millisecond group sits
// between the time and date halves ("HH:MM:SS.mmm DD/MM/YYYY"), matching
// wavFile.c's "%02d:%02d:%02d.%03d %02d/%02d/%04d" format string -- it is
// not appended after the date.
func BuildComment(currentTime time.Time, milliseconds int32, timeOffsetSeconds int32, deviceName string) string {
	timePart, _ := strftime.Format(commentTimePattern, currentTime)
	datePart, _ := strftime.Format(commentDatePattern, currentTime)

	if milliseconds >= 0 {
		timePart = fmt.Sprintf("%s.%03d", timePart, milliseconds)
	}

	stamp := fmt.Sprintf("%s %s", timePart, datePart)

	return fmt.Sprintf("Recorded at %s (UTC%s) by %s using %s.",
		stamp, timezoneSuffix(timeOffsetSeconds), artistName, deviceName)
}
