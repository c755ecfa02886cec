package stft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Transform_ProducesFiniteBins(t *testing.T) {
	var engine = New()

	var audio = make([]int16, Size)
	for i := range audio {
		audio[i] = int16(8000 * math.Sin(2*math.Pi*40*float64(i)/float64(Size)))
	}

	var out = make([]float32, Size/2)

	engine.Transform(audio, 0, out, 0)

	for i, v := range out {
		assert.Falsef(t, math.IsNaN(float64(v)), "bin %d is NaN", i)
	}
}

func Test_Transform_PeakNearToneFrequency(t *testing.T) {
	var engine = New()

	const binIndex = 40

	var audio = make([]int16, Size)
	for i := range audio {
		audio[i] = int16(10000 * math.Sin(2*math.Pi*binIndex*float64(i)/float64(Size)))
	}

	var out = make([]float32, Size/2)
	engine.Transform(audio, 0, out, 0)

	var peakIndex = 0
	for i, v := range out {
		if v > out[peakIndex] {
			peakIndex = i
		}
	}

	assert.InDelta(t, binIndex, peakIndex, 2)
}

func Test_Transform_WritesAtOffsets(t *testing.T) {
	var engine = New()

	var audio = make([]int16, 2*Size)
	for i := range audio {
		audio[i] = int16(5000 * math.Sin(2*math.Pi*10*float64(i)/float64(Size)))
	}

	var out = make([]float32, Size)

	engine.Transform(audio, Size, out, Size/2)

	for i := 0; i < Size/2; i++ {
		assert.Zero(t, out[i])
	}
}
