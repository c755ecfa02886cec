// Package biquad implements the RBJ-style biquad filter designer and
// two-sample-history filter state used for heterodyne down-conversion.
package biquad

import "math"

// Coefficients holds a biquad's normalised (divided through by A0) transfer
// function coefficients.
type Coefficients struct {
	B0A0 float64
	B1A0 float64
	B2A0 float64
	A1A0 float64
	A2A0 float64
}

// Filter holds the two-sample input/output history for a single biquad
// instance. Zero value is a freshly initialised filter.
type Filter struct {
	xv [3]float64
	yv [3]float64
}

func determineFromFrequencyAndBandwidth(sampleRate, frequency uint32, bandwidth float64) (omega, alpha float64) {
	omega = 2.0 * math.Pi * float64(frequency) / float64(sampleRate)
	alpha = math.Sin(omega) * math.Sinh(math.Log(2)/2.0*bandwidth*omega/math.Sin(omega))
	return
}

func determineFromFrequencies(sampleRate, frequency1, frequency2 uint32) (omega, alpha float64) {
	frequency := (float64(frequency1) + float64(frequency2)) / 2.0
	q := frequency / (float64(frequency2) - float64(frequency1))
	omega = 2.0 * math.Pi * frequency / float64(sampleRate)
	alpha = math.Sin(omega) / 2.0 / q
	return
}

func setCoefficients(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0A0: b0 / a0,
		B1A0: b1 / a0,
		B2A0: b2 / a0,
		A1A0: a1 / a0,
		A2A0: a2 / a0,
	}
}

// DesignLowPassFilter designs an RBJ low-pass biquad at the given frequency
// and bandwidth (in octaves).
func DesignLowPassFilter(sampleRate, frequency uint32, bandwidth float64) Coefficients {
	omega, alpha := determineFromFrequencyAndBandwidth(sampleRate, frequency, bandwidth)

	b0 := (1.0 - math.Cos(omega)) / 2.0
	b1 := 1.0 - math.Cos(omega)
	b2 := (1.0 - math.Cos(omega)) / 2.0

	a0 := 1.0 + alpha
	a1 := -2.0 * math.Cos(omega)
	a2 := 1.0 - alpha

	return setCoefficients(b0, b1, b2, a0, a1, a2)
}

// DesignHighPassFilter designs an RBJ high-pass biquad.
func DesignHighPassFilter(sampleRate, frequency uint32, bandwidth float64) Coefficients {
	omega, alpha := determineFromFrequencyAndBandwidth(sampleRate, frequency, bandwidth)

	b0 := (1.0 + math.Cos(omega)) / 2.0
	b1 := -(1.0 + math.Cos(omega))
	b2 := (1.0 + math.Cos(omega)) / 2.0

	a0 := 1.0 + alpha
	a1 := -2.0 * math.Cos(omega)
	a2 := 1.0 - alpha

	return setCoefficients(b0, b1, b2, a0, a1, a2)
}

// DesignBandPassFilter designs an RBJ band-pass biquad spanning the two
// given frequencies.
func DesignBandPassFilter(sampleRate, frequency1, frequency2 uint32) Coefficients {
	omega, alpha := determineFromFrequencies(sampleRate, frequency1, frequency2)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha

	a0 := 1.0 + alpha
	a1 := -2.0 * math.Cos(omega)
	a2 := 1.0 - alpha

	return setCoefficients(b0, b1, b2, a0, a1, a2)
}

// DesignNotchFilter designs an RBJ notch biquad spanning the two given
// frequencies.
func DesignNotchFilter(sampleRate, frequency1, frequency2 uint32) Coefficients {
	omega, alpha := determineFromFrequencies(sampleRate, frequency1, frequency2)

	b0 := 1.0
	b1 := -2.0 * math.Cos(omega)
	b2 := 1.0

	a0 := 1.0 + alpha
	a1 := -2.0 * math.Cos(omega)
	a2 := 1.0 - alpha

	return setCoefficients(b0, b1, b2, a0, a1, a2)
}

// Apply filters a single sample through filter using coefficients, updating
// filter's history in place.
func Apply(sample float64, filter *Filter, coefficients Coefficients) float64 {
	filter.xv[0] = filter.xv[1]
	filter.xv[1] = filter.xv[2]
	filter.yv[0] = filter.yv[1]
	filter.yv[1] = filter.yv[2]

	filter.xv[2] = sample

	filter.yv[2] = coefficients.B0A0*filter.xv[2] +
		coefficients.B1A0*filter.xv[1] +
		coefficients.B2A0*filter.xv[0] -
		coefficients.A1A0*filter.yv[1] -
		coefficients.A2A0*filter.yv[0]

	return filter.yv[2]
}
