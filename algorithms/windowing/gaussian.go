package windowing

import (
	"fmt"
	"math"
)

// Gaussian represents the Gaussian window used by Praat-style formant
// analysis:
//
//	w[i] = exp(-12.5 * ((i - half) / half)^2),  half = size/2
//
// The window falls to exp(-12.5) ≈ 3.7e-6 at the frame edges, which is what
// lets a 25 ms frame behave like a much longer Hamming frame in the LPC fit.
type Gaussian struct {
	size         int
	half         int
	coefficients []float64
}

// NewGaussian creates a new Gaussian window of the given size
func NewGaussian(size int) *Gaussian {
	if size < 0 {
		size = 0
	}
	g := &Gaussian{
		size: size,
		half: size / 2,
	}
	g.generate()
	return g
}

func (g *Gaussian) generate() {
	g.coefficients = make([]float64, g.size)

	// a one-sample window has half == 0; leave it untapered
	if g.half == 0 {
		for i := range g.coefficients {
			g.coefficients[i] = 1.0
		}
		return
	}

	half := float64(g.half)
	for i := range g.size {
		x := (float64(i) - half) / half
		g.coefficients[i] = math.Exp(-12.5 * x * x)
	}
}

// Apply applies the window to a signal (creates new array)
func (g *Gaussian) Apply(signal []float64) []float64 {
	if len(signal) != g.size {
		return nil
	}

	windowed := make([]float64, g.size)
	for i := range g.size {
		windowed[i] = signal[i] * g.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (g *Gaussian) ApplyInPlace(signal []float64) error {
	if len(signal) != g.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), g.size)
	}

	for i := range g.size {
		signal[i] *= g.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (g *Gaussian) GetCoefficients() []float64 {
	coeffs := make([]float64, len(g.coefficients))
	copy(coeffs, g.coefficients)
	return coeffs
}

// GetSize returns the window size
func (g *Gaussian) GetSize() int {
	return g.size
}

// GetType returns the window type
func (g *Gaussian) GetType() string {
	return "gaussian"
}
