package speech

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegeneratePolynomial is returned for polynomials of degree < 1 or
	// with a zero leading coefficient.
	ErrDegeneratePolynomial = errors.New("polynomial has no roots to find")
	// ErrNonFiniteCoefficient is returned when a coefficient is NaN or Inf
	ErrNonFiniteCoefficient = errors.New("polynomial coefficient is not finite")
	// ErrNoConvergence is returned when a solver gives up
	ErrNoConvergence = errors.New("root finder did not converge")
)

// RootSolver finds every complex root of a real polynomial.
//
// coeffs is dense and ordered by ascending power: coeffs[k] multiplies z^k,
// so a degree-d polynomial has d+1 entries and coeffs[d] != 0. The d roots
// come back as parallel real and imaginary slices.
type RootSolver interface {
	Roots(coeffs []float64) (re, im []float64, err error)
}

// characteristicPolynomial turns LPC coefficients [1, a1, ..., ap] into the
// solver input for z^p + a1*z^(p-1) + ... + ap, whose roots are the poles of
// 1/A(z). The fixed leading 1 is stripped, the remainder reversed into
// ascending powers, and the monic term appended as the highest power.
func characteristicPolynomial(lpc []float64) []float64 {
	if len(lpc) < 2 {
		return nil
	}

	tail := lpc[1:]
	poly := make([]float64, 0, len(lpc))
	for i := len(tail) - 1; i >= 0; i-- {
		poly = append(poly, tail[i])
	}
	return append(poly, 1.0)
}

func checkPolynomial(coeffs []float64) error {
	if len(coeffs) < 2 || coeffs[len(coeffs)-1] == 0 {
		return ErrDegeneratePolynomial
	}
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrNonFiniteCoefficient
		}
	}
	return nil
}

// CompanionSolver finds roots as the eigenvalues of the polynomial's
// companion matrix using gonum's general eigen decomposition.
type CompanionSolver struct{}

// NewCompanionSolver creates a companion-matrix root solver
func NewCompanionSolver() *CompanionSolver {
	return &CompanionSolver{}
}

// Roots implements RootSolver
func (CompanionSolver) Roots(coeffs []float64) ([]float64, []float64, error) {
	if err := checkPolynomial(coeffs); err != nil {
		return nil, nil, err
	}

	d := len(coeffs) - 1
	lead := coeffs[d]

	// ones on the sub-diagonal, -c_k/c_d down the last column
	companion := mat.NewDense(d, d, nil)
	for i := 1; i < d; i++ {
		companion.Set(i, i-1, 1)
	}
	for i := range d {
		companion.Set(i, d-1, -coeffs[i]/lead)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, nil, ErrNoConvergence
	}

	values := eig.Values(nil)
	re := make([]float64, len(values))
	im := make([]float64, len(values))
	for i, v := range values {
		re[i] = real(v)
		im[i] = imag(v)
	}

	return re, im, nil
}

// AberthSolver refines all roots simultaneously with the Aberth-Ehrlich
// iteration. It needs no linear algebra and is used as a fallback when the
// eigen decomposition fails.
type AberthSolver struct {
	MaxIterations int
	Tolerance     float64
}

// NewAberthSolver creates an Aberth-Ehrlich solver with 500 iterations and a
// relative step tolerance of 1e-12.
func NewAberthSolver() *AberthSolver {
	return &AberthSolver{
		MaxIterations: 500,
		Tolerance:     1e-12,
	}
}

// Roots implements RootSolver
func (s *AberthSolver) Roots(coeffs []float64) ([]float64, []float64, error) {
	if err := checkPolynomial(coeffs); err != nil {
		return nil, nil, err
	}

	d := len(coeffs) - 1
	lead := coeffs[d]
	monic := make([]complex128, d+1)
	for i, c := range coeffs {
		monic[i] = complex(c/lead, 0)
	}

	// Cauchy bound: every root lies within 1 + max|c_k|
	bound := 0.0
	for _, c := range monic[:d] {
		bound = math.Max(bound, cmplx.Abs(c))
	}
	radius := 0.5 * (1 + bound)

	z := make([]complex128, d)
	for k := range z {
		// offset angle avoids starting on the real-axis symmetry line
		theta := 2*math.Pi*float64(k)/float64(d) + 0.4
		z[k] = cmplx.Rect(radius, theta)
	}

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 500
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = 1e-12
	}

	for range maxIter {
		converged := true
		for k := range z {
			p, dp := hornerWithDerivative(monic, z[k])
			if p == 0 {
				continue
			}

			var repulsion complex128
			for j := range z {
				if j != k {
					repulsion += 1 / (z[k] - z[j])
				}
			}

			var step complex128
			if dp == 0 {
				// stationary point; nudge outward and keep iterating
				step = complex(-tol*(1+cmplx.Abs(z[k])), tol)
			} else {
				ratio := p / dp
				step = ratio / (1 - ratio*repulsion)
			}

			z[k] -= step
			if cmplx.Abs(step) > tol*(1+cmplx.Abs(z[k])) {
				converged = false
			}
		}

		if converged {
			re := make([]float64, d)
			im := make([]float64, d)
			for k, root := range z {
				if cmplx.IsNaN(root) || cmplx.IsInf(root) {
					return nil, nil, ErrNoConvergence
				}
				re[k] = real(root)
				im[k] = imag(root)
			}
			return re, im, nil
		}
	}

	return nil, nil, ErrNoConvergence
}

// hornerWithDerivative evaluates p(z) and p'(z) for ascending coefficients
func hornerWithDerivative(coeffs []complex128, z complex128) (complex128, complex128) {
	d := len(coeffs) - 1
	p := coeffs[d]
	var dp complex128
	for i := d - 1; i >= 0; i-- {
		dp = dp*z + p
		p = p*z + coeffs[i]
	}
	return p, dp
}

// FallbackSolver tries each solver in order and returns the first success.
type FallbackSolver []RootSolver

// Roots implements RootSolver
func (f FallbackSolver) Roots(coeffs []float64) ([]float64, []float64, error) {
	err := ErrNoConvergence
	for _, solver := range f {
		re, im, solveErr := solver.Roots(coeffs)
		if solveErr == nil {
			return re, im, nil
		}
		if errors.Is(solveErr, ErrDegeneratePolynomial) || errors.Is(solveErr, ErrNonFiniteCoefficient) {
			return nil, nil, solveErr
		}
		err = solveErr
	}
	return nil, nil, err
}

// SolverByName returns the solver registered under name: "companion",
// "aberth" or "auto" (companion, then aberth). Unknown names return nil.
func SolverByName(name string) RootSolver {
	switch name {
	case "companion":
		return NewCompanionSolver()
	case "aberth":
		return NewAberthSolver()
	case "", "auto":
		return DefaultRootSolver()
	default:
		return nil
	}
}

// DefaultRootSolver returns the companion-matrix solver backed by Aberth
func DefaultRootSolver() RootSolver {
	return FallbackSolver{NewCompanionSolver(), NewAberthSolver()}
}
