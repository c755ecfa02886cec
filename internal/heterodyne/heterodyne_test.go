package heterodyne

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewMixer_OscillatorStartsOnUnitCircle(t *testing.T) {
	var m = NewMixer(384000, 45000)

	var magnitude = math.Hypot(m.waveX, m.waveY)

	assert.InDelta(t, 1.0, magnitude, 1e-9)
}

func Test_Normalise_CorrectsDrift(t *testing.T) {
	var m = NewMixer(384000, 45000)

	m.waveX = 1.2
	m.waveY = 0.3

	m.Normalise()

	var magnitude = math.Hypot(m.waveX, m.waveY)

	assert.InDelta(t, 1.0, magnitude, 0.1)
}

func Test_NextOutput_DoesNotPanicOverManyRotations(t *testing.T) {
	var m = NewMixer(384000, 45000)

	for i := 0; i < 384000; i++ {
		m.NextOutput(float64(i % 7))

		if i%1000 == 0 {
			m.Normalise()
		}
	}

	var magnitude = math.Hypot(m.waveX, m.waveY)
	assert.InDelta(t, 1.0, magnitude, 0.01)
}

func Test_UpdateFrequencies_PreservesPhaseAndFilterHistory(t *testing.T) {
	var m = NewMixer(384000, 45000)

	m.NextOutput(1.0)
	var xBefore, yBefore = m.waveX, m.waveY
	var filterBefore = m.lowPassFilter

	m.UpdateFrequencies(384000, 50000)

	assert.Equal(t, xBefore, m.waveX)
	assert.Equal(t, yBefore, m.waveY)
	assert.Equal(t, filterBefore, m.lowPassFilter)
}
