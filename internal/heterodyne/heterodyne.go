// Package heterodyne implements the complex-oscillator mixer used to
// down-convert ultrasonic audio into the audible range for monitoring.
package heterodyne

import (
	"math"

	"github.com/audiomoth/backstage/internal/biquad"
)

const (
	lowPassFilterFrequency  = 5000
	lowPassFilterBandwidth  = 1.0
)

// Mixer multiplies an input signal by a rotating complex oscillator and
// low-pass filters the result, producing the classic bat-detector
// heterodyne output.
type Mixer struct {
	lowPassCoefficients biquad.Coefficients
	lowPassFilter       biquad.Filter

	waveX, waveY float64
	dX, dY       float64
}

// NewMixer creates a mixer for the given sample rate and carrier frequency.
func NewMixer(sampleRate uint32, frequency int32) *Mixer {
	m := &Mixer{waveX: 1.0, waveY: 0.0}
	m.UpdateFrequencies(sampleRate, frequency)
	return m
}

// UpdateFrequencies redesigns the low-pass filter and oscillator rotation
// for a new sample rate or carrier frequency. The oscillator phase and the
// filter's delay-line history are both left untouched, matching
// Heterodyne_updateFrequencies: only the coefficients are recomputed, so a
// live retune doesn't introduce a transient click the way re-zeroing the
// filter state would.
func (m *Mixer) UpdateFrequencies(sampleRate uint32, frequency int32) {
	m.lowPassCoefficients = biquad.DesignLowPassFilter(sampleRate, lowPassFilterFrequency, lowPassFilterBandwidth)

	angle := 2.0 * math.Pi * float64(frequency) / float64(sampleRate)
	m.dX = math.Cos(angle)
	m.dY = math.Sin(angle)
}

// NextOutput rotates the oscillator one step, mixes it against sample and
// returns the low-pass filtered result.
func (m *Mixer) NextOutput(sample float64) float64 {
	newX := m.dX*m.waveX - m.dY*m.waveY
	newY := m.dX*m.waveY + m.dY*m.waveX

	m.waveX = newX
	m.waveY = newY

	mixerOutput := sample * m.waveX

	return biquad.Apply(mixerOutput, &m.lowPassFilter, m.lowPassCoefficients)
}

// Normalise applies the first-order magnitude correction to the oscillator,
// keeping it on the unit circle across many rotations without a sqrt per
// sample.
func (m *Mixer) Normalise() {
	correction := 1.0 - (m.waveX*m.waveX+m.waveY*m.waveY-1.0)/2.0
	m.waveX *= correction
	m.waveY *= correction
}
