package filters

import (
	"math"
)

// PreEmphasis is the first-order high-pass used ahead of LPC analysis:
//
//	H(z) = 1 - α*z^-1,  α = exp(-2π * fromHz / fs)
//
// The coefficient is derived from a corner frequency rather than given
// directly, so the same setting (e.g. 50 Hz) means the same spectral tilt at
// any analysis rate. At fs = 11 kHz and 50 Hz, α ≈ 0.972.
//
// References:
//   - P. Boersma, D. Weenink, "Praat: doing phonetics by computer",
//     Sound: To Formant (burg)...
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64 // α
	fromHz      float64
	sampleRate  float64
}

// NewPreEmphasis creates a pre-emphasis filter with an explicit coefficient α.
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// NewPreEmphasisFromFrequency creates a pre-emphasis filter whose coefficient
// is exp(-2π*fromHz/sampleRate). A non-positive sampleRate disables the filter
// (α = 0, which leaves frames untouched).
func NewPreEmphasisFromFrequency(fromHz, sampleRate float64) *PreEmphasis {
	pe := &PreEmphasis{fromHz: fromHz, sampleRate: sampleRate}
	if sampleRate > 0 {
		pe.coefficient = math.Exp(-2.0 * math.Pi * fromHz / sampleRate)
	}
	return pe
}

// Coefficient returns α
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}

// ApplyBackwardInPlace filters frame in place, walking from the last sample
// toward the first:
//
//	for i = N-1 .. 1: x[i] -= α*x[i-1]
//	x[0] *= (1-α)
//
// Because x[i-1] has not been touched yet when x[i] is updated, every output
// sample is computed from original inputs; the x[0] scaling replaces the
// missing x[-1] term. This is the realization the formant tracker is
// calibrated against and must not be swapped for ApplyForward.
func (pe *PreEmphasis) ApplyBackwardInPlace(frame []float64) {
	if len(frame) == 0 {
		return
	}

	a := pe.coefficient
	for i := len(frame) - 1; i > 0; i-- {
		frame[i] -= a * frame[i-1]
	}
	frame[0] *= 1.0 - a
}

// ApplyForward returns a new slice filtered with the conventional forward
// recurrence y[n] = x[n] - α*y[n-1], which feeds back already-filtered
// samples. Kept for comparing against the backward realization.
func (pe *PreEmphasis) ApplyForward(frame []float64) []float64 {
	out := make([]float64, len(frame))
	if len(frame) == 0 {
		return out
	}

	a := pe.coefficient
	out[0] = frame[0] * (1.0 - a)
	for i := 1; i < len(frame); i++ {
		out[i] = frame[i] - a*out[i-1]
	}
	return out
}

// GetFrequencyResponse computes the magnitude and phase of 1 - α*e^-jω at the
// given frequency.
func (pe *PreEmphasis) GetFrequencyResponse(frequency, sampleRate float64) (magnitude, phase float64) {
	if sampleRate <= 0 {
		return 0, 0
	}
	w := 2.0 * math.Pi * frequency / sampleRate

	// 1 - α*cos(ω) + j*α*sin(ω)
	re := 1.0 - pe.coefficient*math.Cos(w)
	im := pe.coefficient * math.Sin(w)

	return math.Hypot(re, im), math.Atan2(im, re)
}
