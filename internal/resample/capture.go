// Package resample implements the capture-side sample rate converter:
// linear interpolation up to a sample rate divisible by the device's
// current sample rate, followed by integer-ratio averaging decimation down
// to it. Grounded on capture_data_callback in the original
// AudioMoth-Live-App backstage/src/backstage.c.
package resample

import (
	"math"

	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/stft"
)

// CaptureResampler converts raw input device samples at an arbitrary rate
// into the ring buffer's current sample rate, triggering an STFT transform
// every stft.Size samples written.
type CaptureResampler struct {
	audioBuffer []int16
	stftBuffer  []float32
	engine      *stft.Engine

	counter         int32
	position        float64
	nextSample      float64
	currentSample   float64
	accumulator     float64
}

// New creates a resampler writing into audioBuffer, emitting spectrogram
// bins into stftBuffer via engine.
func New(audioBuffer []int16, stftBuffer []float32, engine *stft.Engine) *CaptureResampler {
	return &CaptureResampler{audioBuffer: audioBuffer, stftBuffer: stftBuffer, engine: engine}
}

// Reset clears the resampler's interpolation state, called whenever
// capture restarts after being stopped.
func (r *CaptureResampler) Reset() {
	r.counter = 0
	r.position = 0
	r.nextSample = 0
	r.currentSample = 0
	r.accumulator = 0
}

func clampInt16(sample float64) int16 {
	if sample > math.MaxInt16 {
		sample = math.MaxInt16
	}
	if sample < math.MinInt16 {
		sample = math.MinInt16
	}
	return int16(math.Round(sample))
}

// Process resamples input (at inputDeviceSampleRate) into the ring buffer
// starting at writeIndex (currently resampled to currentSampleRate),
// returning the number of ring buffer samples written. The caller is
// responsible for advancing its own write cursor and sample count by the
// returned increment under whatever lock guards them.
func (r *CaptureResampler) Process(input []int16, writeIndex int32, inputDeviceSampleRate, currentSampleRate float64) int32 {
	sampleRateDivider := int32(math.Ceil(inputDeviceSampleRate / currentSampleRate))
	interpolationSampleRate := float64(sampleRateDivider) * currentSampleRate
	step := inputDeviceSampleRate / interpolationSampleRate

	audioBufferIndex := writeIndex
	size := int32(len(r.audioBuffer))
	var increment int32

	for i := range input {
		r.currentSample = r.nextSample
		r.nextSample = float64(input[i])

		for r.position < 1.0 {
			r.accumulator += r.currentSample + r.position*(r.nextSample-r.currentSample)
			r.counter++

			if r.counter == sampleRateDivider {
				sample := clampInt16(r.accumulator / float64(sampleRateDivider))
				r.audioBuffer[audioBufferIndex] = sample
				increment++

				// STFT emission is gated on the absolute ring position
				// crossing a 512-sample boundary, independent of how many
				// samples this particular call wrote: a callback need not
				// be block-aligned (spec.md §4.1's 480-sample-per-callback
				// scenario never is), so the caller must advance its write
				// cursor by every sample produced here, not only by
				// whole blocks, or unadvanced samples get overwritten by
				// the next callback.
				if audioBufferIndex%ring.BlockSamples == ring.BlockSamples-1 {
					startIndex := audioBufferIndex - ring.BlockSamples + 1
					r.engine.Transform(r.audioBuffer, startIndex, r.stftBuffer, startIndex/ring.STFTBinRatio)
				}

				audioBufferIndex = (audioBufferIndex + 1) % size

				r.accumulator = 0
				r.counter = 0
			}

			r.position += step
		}

		r.position -= 1.0
	}

	return increment
}
