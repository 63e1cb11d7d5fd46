package speech

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// LPCMethod selects how prediction coefficients are estimated
type LPCMethod string

const (
	// LPCBurg runs BurgLPC, which advances the backward error in place.
	// It is the default.
	LPCBurg LPCMethod = "burg"
	// LPCBurgClassic advances both error sequences from their previous-step
	// values, which keeps every pole inside the unit circle.
	LPCBurgClassic LPCMethod = "burg-classic"
	// LPCAutocorrelation solves the Yule-Walker equations with
	// Levinson-Durbin recursion.
	LPCAutocorrelation LPCMethod = "autocorrelation"
)

// LPCAnalyzer performs Linear Predictive Coding analysis.
// LPC models the vocal tract as an all-pole filter
//
//	H(z) = 1 / A(z),  A(z) = 1 + a1*z^-1 + ... + ap*z^-p
//
// and coefficient vectors returned here always follow that sign convention,
// with a[0] == 1.
type LPCAnalyzer struct {
	order  int
	method LPCMethod
}

// NewLPCAnalyzer creates a new LPC analyzer. An unknown method falls back
// to Burg.
func NewLPCAnalyzer(order int, method LPCMethod) *LPCAnalyzer {
	switch method {
	case LPCAutocorrelation, LPCBurgClassic:
	default:
		method = LPCBurg
	}
	return &LPCAnalyzer{
		order:  order,
		method: method,
	}
}

// Order returns the prediction order
func (lpc *LPCAnalyzer) Order() int {
	return lpc.order
}

// Method returns the estimation method in use
func (lpc *LPCAnalyzer) Method() LPCMethod {
	return lpc.method
}

// Coefficients returns order+1 coefficients for frame, or an empty slice
// when the order does not fit the frame or the frame carries no energy
// (autocorrelation only).
func (lpc *LPCAnalyzer) Coefficients(frame []float64) []float64 {
	switch lpc.method {
	case LPCAutocorrelation:
		return AutocorrelationLPC(frame, lpc.order)
	case LPCBurgClassic:
		return BurgLPCClassic(frame, lpc.order)
	default:
		return BurgLPC(frame, lpc.order)
	}
}

// BurgLPC estimates prediction coefficients with Burg's method.
//
// Forward and backward errors start as copies of frame. At step i the
// reflection coefficient is
//
//	k = -2 * Σ f[n]*b[n-1] / Σ (f[n]² + b[n-1]²),  n = i..N-1
//
// (k = 0 when the denominator is exactly zero) and the coefficients follow the
// Levinson update a[j] += k*a_prev[i-j]. The errors then advance for ascending
// n as
//
//	f[n] = f_prev[n] + k*b[n-1]
//	b[n] = b[n-1] + k*f_prev[n]
//
// Only the forward error is read from its step i-1 copy. The backward error
// is updated in place, so for n > i both lines see the b[n-1] written one
// iteration earlier. Poles are not guaranteed to lie inside the unit circle;
// BurgLPCClassic is the variant that reads both errors from step i-1.
//
// Returns an empty slice unless 0 < order < len(frame).
func BurgLPC(frame []float64, order int) []float64 {
	return burg(frame, order, false)
}

// BurgLPCClassic is BurgLPC with the backward error also advanced from its
// step i-1 values. Same degenerate cases as BurgLPC.
func BurgLPCClassic(frame []float64, order int) []float64 {
	return burg(frame, order, true)
}

func burg(frame []float64, order int, snapshotBackward bool) []float64 {
	n := len(frame)
	if order <= 0 || order >= n {
		return []float64{}
	}

	a := make([]float64, order+1)
	prevA := make([]float64, order+1)
	fwd := make([]float64, n)
	bwd := make([]float64, n)
	prevFwd := make([]float64, n)
	copy(fwd, frame)
	copy(bwd, frame)

	// b[n-1] is read from here; aliasing bwd gives the in-place update
	srcBwd := bwd
	if snapshotBackward {
		srcBwd = make([]float64, n)
	}

	a[0] = 1.0

	for i := 1; i <= order; i++ {
		num := 0.0
		den := 0.0
		for m := i; m < n; m++ {
			num += fwd[m] * bwd[m-1]
			den += fwd[m]*fwd[m] + bwd[m-1]*bwd[m-1]
		}

		k := 0.0
		if den != 0 {
			k = -2.0 * num / den
		}

		copy(prevA, a)
		for j := 1; j <= i; j++ {
			a[j] = prevA[j] + k*prevA[i-j]
		}

		copy(prevFwd, fwd)
		if snapshotBackward {
			copy(srcBwd, bwd)
		}
		for m := i; m < n; m++ {
			fwd[m] = prevFwd[m] + k*srcBwd[m-1]
			bwd[m] = srcBwd[m-1] + k*prevFwd[m]
		}
	}

	return a
}

// AutocorrelationLPC estimates prediction coefficients from the biased
// autocorrelation of frame using Levinson-Durbin recursion.
// Returns an empty slice unless 0 < order < len(frame) and the frame has
// non-zero energy.
func AutocorrelationLPC(frame []float64, order int) []float64 {
	n := len(frame)
	if order <= 0 || order >= n {
		return []float64{}
	}

	r := make([]float64, order+1)
	for lag := 0; lag <= order; lag++ {
		r[lag] = floats.Dot(frame[:n-lag], frame[lag:])
	}

	coeffs, _, ok := levinsonDurbin(r, order)
	if !ok {
		return []float64{}
	}
	return coeffs
}

// levinsonDurbin solves for A(z) from autocorrelation r. It returns the
// coefficients, the final prediction error energy and false on a
// zero-energy input.
func levinsonDurbin(r []float64, p int) ([]float64, float64, bool) {
	if len(r) < p+1 || r[0] == 0 {
		return nil, 0, false
	}

	a := make([]float64, p+1)
	prev := make([]float64, p+1)
	a[0] = 1.0
	e := r[0]

	for i := 1; i <= p; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc += a[j] * r[i-j]
		}

		if e <= 0 {
			// perfectly predicted; higher orders add nothing
			break
		}
		k := -acc / e

		copy(prev, a)
		for j := 1; j <= i; j++ {
			a[j] = prev[j] + k*prev[i-j]
		}

		e *= 1 - k*k
	}

	return a, e, true
}

// SpectralEnvelope evaluates |1/A(e^jω)| on nfft/2+1 equally spaced
// frequencies from 0 to Nyquist, using an FFT of the zero-padded
// coefficients. nfft defaults to 512 and grows to fit the coefficients.
func SpectralEnvelope(coeffs []float64, nfft int) []float64 {
	if len(coeffs) == 0 {
		return []float64{}
	}
	if nfft <= 0 {
		nfft = 512
	}
	for nfft < len(coeffs) {
		nfft *= 2
	}

	padded := make([]float64, nfft)
	copy(padded, coeffs)

	spectrum := fft.FFTReal(padded)

	envelope := make([]float64, nfft/2+1)
	for k := range envelope {
		mag := cmplx.Abs(spectrum[k])
		if mag > 0 {
			envelope[k] = 1.0 / mag
		}
	}

	return envelope
}

// EnvelopeDB converts a linear envelope to decibels relative to its peak.
// Zero bins map to -Inf.
func EnvelopeDB(envelope []float64) []float64 {
	out := make([]float64, len(envelope))
	if len(envelope) == 0 {
		return out
	}

	peak := floats.Max(envelope)
	for i, v := range envelope {
		if v <= 0 || peak <= 0 {
			out[i] = math.Inf(-1)
			continue
		}
		out[i] = 20 * math.Log10(v/peak)
	}
	return out
}
