package filters

import (
	"math"
)

// DCRemoval implements a DC blocking filter (one-pole/one-zero high-pass):
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// The formant pipeline assumes its caller has removed DC; the CLI runs decoded
// audio through this filter before analysis when asked to.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)

	// State variables
	x1 float64 // Previous input sample x[n-1]
	y1 float64 // Previous output sample y[n-1]
}

// NewDCRemoval creates a DC blocker with R = 0.995
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{poleLocation: 0.995}
}

// NewDCRemovalWithCutoff creates a DC blocker with an approximate -3 dB
// cutoff, using R = 1 - 2π*fc/fs clamped to [0.001, 0.999].
func NewDCRemovalWithCutoff(sampleRate, cutoffHz float64) *DCRemoval {
	dc := NewDCRemoval()
	if sampleRate > 0 && cutoffHz > 0 {
		dc.poleLocation = 1.0 - 2.0*math.Pi*cutoffHz/sampleRate
		if dc.poleLocation >= 1.0 {
			dc.poleLocation = 0.999
		} else if dc.poleLocation <= 0.0 {
			dc.poleLocation = 0.001
		}
	}
	return dc
}

// Process filters a single sample
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1

	dc.x1 = input
	dc.y1 = output

	return output
}

// ProcessBuffer filters a whole buffer into a new slice, carrying state
// across calls.
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
}

// GetPoleLocation returns R
func (dc *DCRemoval) GetPoleLocation() float64 {
	return dc.poleLocation
}

// GetCutoffFrequency returns the approximate -3 dB cutoff, (1-R)*fs/2π
func (dc *DCRemoval) GetCutoffFrequency(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0.0
	}
	return (1.0 - dc.poleLocation) * sampleRate / (2.0 * math.Pi)
}
