package speech

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resonance is a (frequency, bandwidth) pair in Hz
type resonance struct {
	freq, bw float64
}

// synthesizeVowel drives a cascade of two-pole resonators with an impulse
// train at f0, giving a signal whose spectral envelope peaks exactly at the
// requested resonances.
func synthesizeVowel(fs float64, n int, f0 float64, resonances []resonance) []float64 {
	signal := make([]float64, n)
	period := int(math.Round(fs / f0))
	for i := 0; i < n; i += period {
		signal[i] = 1.0
	}

	for _, res := range resonances {
		r := math.Exp(-math.Pi * res.bw / fs)
		c1 := 2 * r * math.Cos(2*math.Pi*res.freq/fs)
		c2 := -r * r

		var y1, y2 float64
		for i, x := range signal {
			y := x + c1*y1 + c2*y2
			signal[i] = y
			y2, y1 = y1, y
		}
	}

	return signal
}

// lpcFromResonances builds A(z) = Π (1 - 2r cosθ z^-1 + r² z^-2) so that
// the roots of its characteristic polynomial sit exactly on the resonances.
func lpcFromResonances(fs float64, resonances []resonance) []float64 {
	coeffs := []float64{1}
	for _, res := range resonances {
		r := math.Exp(-math.Pi * res.bw / fs)
		section := []float64{1, -2 * r * math.Cos(2*math.Pi*res.freq/fs), r * r}
		coeffs = convolve(coeffs, section)
	}
	return coeffs
}

func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// polyFromRoots expands Π (z - root) into ascending real coefficients.
// Roots must come in conjugate pairs.
func polyFromRoots(roots []complex128) []float64 {
	poly := []complex128{1}
	for _, root := range roots {
		next := make([]complex128, len(poly)+1)
		for i, c := range poly {
			next[i+1] += c
			next[i] -= c * root
		}
		poly = next
	}

	out := make([]float64, len(poly))
	for i, c := range poly {
		out[i] = real(c)
	}
	return out
}

func whiteNoise(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// assertRootsMatch pairs each expected root with the closest unused found root
func assertRootsMatch(t *testing.T, expected []complex128, re, im []float64, tol float64) {
	t.Helper()
	if !assert.Len(t, re, len(expected)) || !assert.Len(t, im, len(expected)) {
		return
	}

	used := make([]bool, len(re))
	for _, want := range expected {
		best, bestDist := -1, math.Inf(1)
		for i := range re {
			if used[i] {
				continue
			}
			if d := cmplx.Abs(complex(re[i], im[i]) - want); d < bestDist {
				best, bestDist = i, d
			}
		}
		used[best] = true
		assert.Less(t, bestDist, tol, "root %v not found", want)
	}
}

func hasFormantNear(formants []Formant, freq, relTol float64) bool {
	for _, f := range formants {
		if math.Abs(f.FrequencyHz-freq) <= relTol*freq {
			return true
		}
	}
	return false
}

// fractionNear is the share of frames holding a formant within relTol of freq
func fractionNear(frames [][]Formant, freq, relTol float64) float64 {
	if len(frames) == 0 {
		return 0
	}
	hits := 0
	for _, frame := range frames {
		if hasFormantNear(frame, freq, relTol) {
			hits++
		}
	}
	return float64(hits) / float64(len(frames))
}
