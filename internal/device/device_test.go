package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Classify_CurrentGenerationWithRate(t *testing.T) {
	var info = Classify("AudioMoth 384 kHz")

	assert.True(t, info.IsAudioMoth)
	assert.False(t, info.IsOld)
	assert.EqualValues(t, 384000, info.NativeRateHz)
}

func Test_Classify_LegacyByToken(t *testing.T) {
	var info = Classify("F32x USBXpress Device")

	assert.False(t, info.IsAudioMoth)
	assert.True(t, info.IsOld)
}

func Test_Classify_AudioMothWithoutKHzTokenIsOld(t *testing.T) {
	var info = Classify("AudioMoth")

	assert.False(t, info.IsAudioMoth)
	assert.True(t, info.IsOld)
}

func Test_Classify_UnrelatedDeviceIsNeither(t *testing.T) {
	var info = Classify("Built-in Microphone")

	assert.False(t, info.IsAudioMoth)
	assert.False(t, info.IsOld)
	assert.Zero(t, info.NativeRateHz)
}

func Test_Classify_ParsesTwoDigitRate(t *testing.T) {
	var info = Classify("AudioMoth 48 kHz")

	assert.EqualValues(t, 48000, info.NativeRateHz)
}

func Test_IsValidRate(t *testing.T) {
	assert.True(t, IsValidRate(48000))
	assert.True(t, IsValidRate(384000))
	assert.False(t, IsValidRate(44100))
	assert.False(t, IsValidRate(0))
}
