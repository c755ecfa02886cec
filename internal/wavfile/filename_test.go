package wavfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_BuildFilename_IncludesMillisecondSuffix(t *testing.T) {
	var when = time.Date(2026, 7, 29, 14, 30, 5, 0, time.UTC)

	var name = BuildFilename("/recordings", when, 123)

	assert.Equal(t, "/recordings/20260729_143005_123.WAV", name)
}

func Test_BuildFilename_NegativeMillisecondsOmitsSuffix(t *testing.T) {
	var when = time.Date(2026, 7, 29, 14, 30, 5, 0, time.UTC)

	var name = BuildFilename("/recordings", when, -1)

	assert.Equal(t, "/recordings/20260729_143005.WAV", name)
}

func Test_TimezoneSuffix_Zero(t *testing.T) {
	assert.Equal(t, "", timezoneSuffix(0))
}

func Test_TimezoneSuffix_PositiveWholeHours(t *testing.T) {
	assert.Equal(t, "+2", timezoneSuffix(2*3600))
}

func Test_TimezoneSuffix_NegativeWholeHours(t *testing.T) {
	assert.Equal(t, "-5", timezoneSuffix(-5*3600))
}

func Test_TimezoneSuffix_PositiveHalfHour(t *testing.T) {
	assert.Equal(t, "+5:30", timezoneSuffix(5*3600+30*60))
}

func Test_BuildComment_ContainsDeviceAndArtist(t *testing.T) {
	var when = time.Date(2026, 7, 29, 14, 30, 5, 0, time.UTC)

	var comment = BuildComment(when, 0, 0, "AudioMoth 384 kHz")

	assert.Contains(t, comment, "AudioMoth Live")
	assert.Contains(t, comment, "AudioMoth 384 kHz")
	assert.Contains(t, comment, "UTC")
}

func Test_BuildComment_MillisecondsSitBetweenTimeAndDate(t *testing.T) {
	var when = time.Date(2026, 7, 29, 14, 30, 5, 0, time.UTC)

	var comment = BuildComment(when, 123, 0, "AudioMoth 384 kHz")

	assert.Equal(t, "Recorded at 14:30:05.123 29/07/2026 (UTC) by AudioMoth Live using AudioMoth 384 kHz.", comment)
}

func Test_BuildComment_NegativeMillisecondsOmitsSuffix(t *testing.T) {
	var when = time.Date(2026, 7, 29, 14, 30, 5, 0, time.UTC)

	var comment = BuildComment(when, -1, 0, "AudioMoth 384 kHz")

	assert.Equal(t, "Recorded at 14:30:05 29/07/2026 (UTC) by AudioMoth Live using AudioMoth 384 kHz.", comment)
}
