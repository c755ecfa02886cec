package biquad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DesignLowPassFilter_AttenuatesAboveCutoff(t *testing.T) {
	var coefficients = DesignLowPassFilter(48000, 1000, 1.0)
	var filter = Filter{}

	// Settle the filter with a few thousand samples of a tone well above
	// the cutoff and check the steady-state amplitude shrank.
	var maxOut = 0.0
	for i := 0; i < 4000; i++ {
		var in = math.Sin(2 * math.Pi * 10000 * float64(i) / 48000)
		var out = Apply(in, &filter, coefficients)
		if i > 3000 && math.Abs(out) > maxOut {
			maxOut = math.Abs(out)
		}
	}

	assert.Less(t, maxOut, 0.3)
}

func Test_DesignHighPassFilter_PassesAboveCutoff(t *testing.T) {
	var coefficients = DesignHighPassFilter(48000, 1000, 1.0)
	var filter = Filter{}

	var maxOut = 0.0
	for i := 0; i < 4000; i++ {
		var in = math.Sin(2 * math.Pi * 10000 * float64(i) / 48000)
		var out = Apply(in, &filter, coefficients)
		if i > 3000 && math.Abs(out) > maxOut {
			maxOut = math.Abs(out)
		}
	}

	assert.Greater(t, maxOut, 0.7)
}

func Test_Apply_ZeroInputStaysZero(t *testing.T) {
	var coefficients = DesignBandPassFilter(48000, 4000, 6000)
	var filter = Filter{}

	for i := 0; i < 10; i++ {
		assert.Zero(t, Apply(0, &filter, coefficients))
	}
}
