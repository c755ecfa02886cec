// Package playback implements the lag-regulated linear interpolator that
// feeds the playback device from the capture ring buffer, with optional
// heterodyne down-conversion for bat monitoring. Grounded on
// playback_data_callback in the original AudioMoth-Live-App
// backstage/src/backstage.c.
package playback

import (
	"math"
	"runtime"

	"github.com/audiomoth/backstage/internal/heterodyne"
)

const (
	callbacksPerSecond = 100
	maximumSampleRate  = 384000
	playbackSampleRate = 48000
	minimumPlaybackLag = 2
)

// Lag thresholds differ between Windows and other platforms in the
// original (larger buffers tolerated on Windows), selected once at
// package init rather than per call.
var (
	maximumPlaybackLag int32
	targetPlaybackLag  int32
	targetMinimumLag   int32
)

func init() {
	if runtime.GOOS == "windows" {
		maximumPlaybackLag = callbacksPerSecond / 2
		targetPlaybackLag = callbacksPerSecond / 5
		targetMinimumLag = callbacksPerSecond / 10
	} else {
		maximumPlaybackLag = callbacksPerSecond / 4
		targetPlaybackLag = callbacksPerSecond / 10
		targetMinimumLag = callbacksPerSecond / 20
	}
}

// Interpolator owns the per-sample linear interpolation state for
// converting ring buffer audio at currentSampleRate up to the fixed
// maximumSampleRate and back down to playbackSampleRate, matching the two
// nested resampling stages in playback_data_callback exactly.
type Interpolator struct {
	position      float64
	nextSample    float64
	currentSample float64
	bufferWaiting bool
}

// New creates an Interpolator ready for its first callback.
func New() *Interpolator {
	return &Interpolator{}
}

// Result carries the outcome of one playback callback: the samples to
// hand to the playback device, the advanced read cursor and the buffer
// starvation signal used to gate the "add 2 more buffers" backlog counter.
// BufferLag is this call's instantaneous buffer lag; the engine folds it
// into the running minimum that the simulation driver latches and resets
// once a second (minimumPlaybackBufferLag in backstage.c), since that
// bookkeeping spans callbacks from two different threads and belongs
// under the engine's own playback mutex rather than inside the
// interpolator.
type Result struct {
	ReadIndex            int32
	BufferCountIncrement int32
	BufferLag            int32
	Starved              bool
}

// Process fills out with frameCount samples read from audioBuffer,
// starting from readIndex and tracking writeIndex as the producer cursor.
// mixer is nil when heterodyne monitoring is disabled.
func (p *Interpolator) Process(audioBuffer []int16, writeIndex, readIndex int32, currentSampleRate int32, mixer *heterodyne.Mixer, out []int16) Result {
	size := int32(len(audioBuffer))
	frameCount := int32(len(out))

	sampleLag := ((size + writeIndex - readIndex) % size + size) % size
	bufferLag := sampleLag * callbacksPerSecond / currentSampleRate

	if bufferLag > maximumPlaybackLag {
		readIndex = writeIndex
		p.bufferWaiting = true
		sampleLag = 0
		bufferLag = 0
	}

	starvation := sampleLag < frameCount

	var bufferCountIncrement int32
	if !p.bufferWaiting && (bufferLag < minimumPlaybackLag || starvation) {
		bufferCountIncrement = 2
	}

	if p.bufferWaiting || starvation {
		for i := range out {
			out[i] = 0
		}
	} else {
		if mixer != nil {
			mixer.Normalise()
		}

		sampleRateDivider := maximumSampleRate / playbackSampleRate
		step := float64(currentSampleRate) / float64(maximumSampleRate)

		for i := range out {
			var accumulator float64

			for j := 0; j < sampleRateDivider; j++ {
				sample := p.currentSample + p.position*(p.nextSample-p.currentSample)

				if mixer != nil {
					accumulator += mixer.NextOutput(sample)
				} else {
					accumulator += sample
				}

				p.position += step

				if p.position >= 1.0 {
					p.currentSample = p.nextSample
					p.nextSample = float64(audioBuffer[readIndex])
					readIndex = (readIndex + 1) % size
					p.position -= 1.0
				}
			}

			sample := accumulator / float64(sampleRateDivider)
			if sample > math.MaxInt16 {
				sample = math.MaxInt16
			}
			if sample < math.MinInt16 {
				sample = math.MinInt16
			}
			out[i] = int16(math.Round(sample))
		}
	}

	if bufferLag > targetPlaybackLag {
		p.bufferWaiting = false
	}

	return Result{ReadIndex: readIndex, BufferCountIncrement: bufferCountIncrement, BufferLag: bufferLag, Starved: starvation}
}

// TargetMinimumLag exposes the platform-selected lower lag threshold the
// simulation driver aims its tick pacing at (§4.7).
func TargetMinimumLag() int32 { return targetMinimumLag }

// MaximumLag exposes the platform-selected upper lag threshold the
// simulation driver paces its tick interval against (§4.7).
func MaximumLag() int32 { return maximumPlaybackLag }

// CallbacksPerSecond exposes the fixed playback callback rate (100/s) the
// lag units in this package are expressed in.
func CallbacksPerSecond() int32 { return callbacksPerSecond }
