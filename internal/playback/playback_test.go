package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Process_StarvationZerosOutput(t *testing.T) {
	var audioBuffer = make([]int16, 48000)
	var interpolator = New()

	var out = make([]int16, 480)

	// writeIndex == readIndex: nothing has been captured yet.
	var result = interpolator.Process(audioBuffer, 0, 0, 48000, nil, out)

	assert.True(t, result.Starved)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func Test_Process_AdvancesReadIndexWhenNotStarved(t *testing.T) {
	var audioBuffer = make([]int16, 48000)
	for i := range audioBuffer {
		audioBuffer[i] = 1000
	}

	var interpolator = New()
	var out = make([]int16, 480)

	// 4800 samples of lag at 48kHz is 10 callbacks worth: above the
	// 480-sample frame, below the non-Windows maximum of 25.
	var result = interpolator.Process(audioBuffer, 4800, 0, 48000, nil, out)

	assert.False(t, result.Starved)
	assert.NotZero(t, result.ReadIndex)
}

func Test_Process_ExcessiveLagSkipsReadIndexForward(t *testing.T) {
	var audioBuffer = make([]int16, 48000)
	var interpolator = New()
	var out = make([]int16, 480)

	// writeIndex far ahead of readIndex: lag exceeds the platform maximum.
	var result = interpolator.Process(audioBuffer, 40000, 0, 48000, nil, out)

	assert.Equal(t, int32(40000), result.ReadIndex)
}

func Test_Process_ReportsInstantaneousBufferLag(t *testing.T) {
	var audioBuffer = make([]int16, 48000)
	var interpolator = New()
	var out = make([]int16, 480)

	// 5760 samples of lag at 48kHz is 12 callbacks worth, comfortably below
	// the non-Windows maximum of 25.
	var result = interpolator.Process(audioBuffer, 5760, 0, 48000, nil, out)

	assert.Equal(t, int32(12), result.BufferLag)
}

func Test_Process_ExcessiveLagReportsZeroBufferLag(t *testing.T) {
	var audioBuffer = make([]int16, 48000)
	var interpolator = New()
	var out = make([]int16, 480)

	var result = interpolator.Process(audioBuffer, 40000, 0, 48000, nil, out)

	assert.Zero(t, result.BufferLag)
}

func Test_PlatformThresholds_AreOrdered(t *testing.T) {
	assert.Greater(t, MaximumLag(), TargetMinimumLag())
	assert.Greater(t, CallbacksPerSecond(), int32(0))
}
