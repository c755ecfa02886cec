package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/stft"
)

func Test_Process_UnityRatePublishesOnBlockBoundary(t *testing.T) {
	var audioBuffer = make([]int16, 4*ring.BlockSamples)
	var stftBuffer = make([]float32, len(audioBuffer)/2)
	var resampler = New(audioBuffer, stftBuffer, stft.New())

	var input = make([]int16, ring.BlockSamples)
	for i := range input {
		input[i] = int16(i)
	}

	var increment = resampler.Process(input, 0, 48000, 48000)

	assert.EqualValues(t, ring.BlockSamples, increment)
	assert.Equal(t, input, audioBuffer[:ring.BlockSamples])
}

func Test_Process_PartialBlockAdvancesWithoutEmittingSTFT(t *testing.T) {
	var audioBuffer = make([]int16, 4*ring.BlockSamples)
	var stftBuffer = make([]float32, len(audioBuffer)/2)
	var resampler = New(audioBuffer, stftBuffer, stft.New())

	var input = make([]int16, ring.BlockSamples/2)

	var increment = resampler.Process(input, 0, 48000, 48000)

	// The ring cursor must advance by every sample written, not only on
	// completed 512-sample blocks: a real capture callback (spec.md §4.1's
	// own 480-sample example) is rarely block-aligned, and failing to
	// advance here would make the next callback overwrite these samples.
	assert.EqualValues(t, ring.BlockSamples/2, increment)
}

func Test_Process_NonAlignedCallbacksAccumulateAcrossCalls(t *testing.T) {
	var audioBuffer = make([]int16, 4*ring.BlockSamples)
	var stftBuffer = make([]float32, len(audioBuffer)/2)
	var resampler = New(audioBuffer, stftBuffer, stft.New())

	var writeIndex int32
	var total int32
	for call := 0; call < 100; call++ {
		var input = make([]int16, 480)
		for i := range input {
			input[i] = int16(call*480 + i)
		}

		increment := resampler.Process(input, writeIndex, 48000, 48000)
		writeIndex = (writeIndex + increment) % int32(len(audioBuffer))
		total += increment
	}

	// 100 callbacks of 480 samples at a 1:1 rate must append exactly
	// 48000 samples in total, matching spec.md §8 scenario 1.
	assert.EqualValues(t, 48000, total)
}

func Test_Process_DownsamplesByIntegerRatio(t *testing.T) {
	var audioBuffer = make([]int16, 4*ring.BlockSamples)
	var stftBuffer = make([]float32, len(audioBuffer)/2)
	var resampler = New(audioBuffer, stftBuffer, stft.New())

	// Input at double the current rate: every pair of samples should
	// average down to roughly one ring sample.
	var input = make([]int16, 2*ring.BlockSamples)
	for i := range input {
		input[i] = 1000
	}

	var increment = resampler.Process(input, 0, 96000, 48000)

	assert.EqualValues(t, ring.BlockSamples, increment)
	for i := 0; i < int(ring.BlockSamples); i++ {
		assert.InDelta(t, 1000, audioBuffer[i], 2)
	}
}

func Test_Reset_ClearsInterpolationState(t *testing.T) {
	var audioBuffer = make([]int16, 4*ring.BlockSamples)
	var stftBuffer = make([]float32, len(audioBuffer)/2)
	var resampler = New(audioBuffer, stftBuffer, stft.New())

	resampler.Process(make([]int16, ring.BlockSamples/2), 0, 48000, 48000)
	resampler.Reset()

	assert.Zero(t, resampler.counter)
	assert.Zero(t, resampler.position)
	assert.Zero(t, resampler.accumulator)
}
