package speech

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-formant/algorithms/common"
	"github.com/RyanBlaney/sonido-formant/algorithms/filters"
	"github.com/RyanBlaney/sonido-formant/algorithms/windowing"
	"github.com/RyanBlaney/sonido-formant/logging"
)

// Candidate filter applied to every LPC pole. Poles below 200 Hz are usually
// the voice source (F0) rather than a resonance, and poles within 50 Hz of the
// ceiling are artifacts of the band edge.
const (
	minFormantHz       = 200.0
	ceilingMarginHz    = 50.0
	maxBandwidthHz     = 800.0
	minImaginaryPart   = 1e-5
	timeStepsPerWindow = 4
)

// Formant represents one vocal tract resonance
type Formant struct {
	FrequencyHz float64 `json:"frequency_hz"`
	BandwidthHz float64 `json:"bandwidth_hz"`
}

// FormantParams configures a FormantAnalyzer
type FormantParams struct {
	CeilingHz     float64    // highest formant searched for; analysis runs at 2x this rate
	NumFormants   int        // formants reported per frame (LPC order is 2n+2)
	WindowLengthS float64    // Gaussian window length in seconds; hop is a quarter of it
	PreEmphasisHz float64    // pre-emphasis corner frequency
	Method        LPCMethod  // defaults to LPCBurg
	Solver        RootSolver // defaults to DefaultRootSolver()
	Workers       int        // frames analysed concurrently; <= 1 runs serially
}

// DefaultFormantParams returns Praat's defaults for a female voice:
// 5500 Hz ceiling, 5 formants, 25 ms window, pre-emphasis from 50 Hz.
func DefaultFormantParams() FormantParams {
	return FormantParams{
		CeilingHz:     5500,
		NumFormants:   5,
		WindowLengthS: 0.025,
		PreEmphasisHz: 50,
		Method:        LPCBurg,
		Workers:       1,
	}
}

// FormantFrame holds the formants found around one analysis instant
type FormantFrame struct {
	Time     float64   `json:"time"` // frame centre in seconds
	Formants []Formant `json:"formants"`
}

// AnalysisStats counts why frames came back short. None of these are errors;
// an empty frame is a valid "nothing detected" result.
type AnalysisStats struct {
	Frames         int `json:"frames"`
	EmptyFrames    int `json:"empty_frames"`
	LPCFailures    int `json:"lpc_failures"`
	SolverFailures int `json:"solver_failures"`
	BoundsSkipped  int `json:"bounds_skipped"`
}

// FormantTrack is the result of analysing a whole signal
type FormantTrack struct {
	Frames        []FormantFrame `json:"frames"`
	AnalysisRate  float64        `json:"analysis_rate"`
	TimeStep      float64        `json:"time_step"`
	WindowSamples int            `json:"window_samples"`
	Stats         AnalysisStats  `json:"stats"`
}

// Formants returns the per-frame formant lists without timing
func (t *FormantTrack) Formants() [][]Formant {
	out := make([][]Formant, len(t.Frames))
	for i, frame := range t.Frames {
		out[i] = frame.Formants
	}
	return out
}

// FormantAnalyzer tracks formants Praat-style: resample to twice the ceiling,
// slide a Gaussian window in quarter-window hops, pre-emphasize, fit Burg LPC
// and convert the polynomial roots to frequency/bandwidth pairs.
//
// An analyzer holds no per-call state and may be shared between goroutines.
type FormantAnalyzer struct {
	params FormantParams
	lpc    *LPCAnalyzer
	solver RootSolver
	logger logging.Logger
}

// NewFormantAnalyzer creates a new formant analyzer
func NewFormantAnalyzer(params FormantParams) *FormantAnalyzer {
	solver := params.Solver
	if solver == nil {
		solver = DefaultRootSolver()
	}

	return &FormantAnalyzer{
		params: params,
		lpc:    NewLPCAnalyzer(2*params.NumFormants+2, params.Method),
		solver: solver,
		logger: logging.WithFields(logging.Fields{
			"component": "formant_analyzer",
		}),
	}
}

// Params returns the analyzer configuration
func (f *FormantAnalyzer) Params() FormantParams {
	return f.params
}

// LPC returns the coefficient estimator used for every frame
func (f *FormantAnalyzer) LPC() *LPCAnalyzer {
	return f.lpc
}

// FormantsFromLPC converts LPC coefficients to formants with the analyzer's
// root solver, ceiling and formant count. A solver failure returns the error
// together with an empty list.
func (f *FormantAnalyzer) FormantsFromLPC(coeffs []float64) ([]Formant, error) {
	return lpcToFormants(coeffs, f.params.CeilingHz, f.params.NumFormants, f.solver)
}

// Process runs the formant tracker with the default LPC method and root
// solver and returns one formant list per frame.
func Process(audio []float64, originalRate, ceilingHz float64, numFormants int, windowLengthS, preEmphasisHz float64) [][]Formant {
	params := DefaultFormantParams()
	params.CeilingHz = ceilingHz
	params.NumFormants = numFormants
	params.WindowLengthS = windowLengthS
	params.PreEmphasisHz = preEmphasisHz

	return NewFormantAnalyzer(params).Analyze(audio, originalRate).Formants()
}

// Analyze tracks formants across audio sampled at sampleRate. Degenerate
// input (no samples, non-positive rates or window) yields a track with no
// frames; a signal shorter than one window does too.
func (f *FormantAnalyzer) Analyze(audio []float64, sampleRate float64) *FormantTrack {
	track := &FormantTrack{Frames: []FormantFrame{}}
	if len(audio) == 0 {
		return track
	}

	targetRate := 2.0 * f.params.CeilingHz
	windowSamples := common.SecondsToSamples(f.params.WindowLengthS, targetRate)
	if targetRate <= 0 || windowSamples <= 0 {
		return track
	}

	resampled := common.Resample(audio, sampleRate, targetRate)

	stepSamples := max(1, common.SecondsToSamples(f.params.WindowLengthS/timeStepsPerWindow, targetRate))
	centers := FrameCenters(len(resampled), windowSamples, stepSamples)

	track.AnalysisRate = targetRate
	track.TimeStep = float64(stepSamples) / targetRate
	track.WindowSamples = windowSamples
	track.Frames = make([]FormantFrame, len(centers))

	window := windowing.NewGaussian(windowSamples)
	emphasis := filters.NewPreEmphasisFromFrequency(f.params.PreEmphasisHz, targetRate)
	outcomes := make([]frameOutcome, len(centers))

	analyze := func(i int) {
		formants, outcome := f.analyzeFrame(resampled, centers[i], window, emphasis)
		track.Frames[i] = FormantFrame{
			Time:     float64(centers[i]) / targetRate,
			Formants: formants,
		}
		outcomes[i] = outcome
	}

	workers := min(f.params.Workers, len(centers))
	if workers <= 1 {
		for i := range centers {
			analyze(i)
		}
	} else {
		// each worker owns a stride of frame slots; nothing else is written
		var wg sync.WaitGroup
		for w := range workers {
			wg.Add(1)
			go func(offset int) {
				defer wg.Done()
				for i := offset; i < len(centers); i += workers {
					analyze(i)
				}
			}(w)
		}
		wg.Wait()
	}

	track.Stats = collectStats(track.Frames, outcomes)

	f.logger.Debug("Formant analysis completed", logging.Fields{
		"input_samples":     len(audio),
		"input_rate":        sampleRate,
		"analysis_rate":     targetRate,
		"frames":            track.Stats.Frames,
		"empty_frames":      track.Stats.EmptyFrames,
		"lpc_failures":      track.Stats.LPCFailures,
		"solver_failures":   track.Stats.SolverFailures,
		"bounds_skipped":    track.Stats.BoundsSkipped,
		"workers":           max(workers, 1),
		"lpc_method":        string(f.lpc.Method()),
		"window_samples":    windowSamples,
		"time_step_samples": stepSamples,
	})

	return track
}

// FrameCenters lists the analysis centres for a signal of n samples: starting
// at half a window and advancing by step while a full window still fits.
func FrameCenters(n, windowSamples, step int) []int {
	if windowSamples <= 0 || step <= 0 {
		return []int{}
	}

	half := windowSamples / 2
	centers := []int{}
	for center := half; center+half < n; center += step {
		centers = append(centers, center)
	}
	return centers
}

type frameOutcome int

const (
	frameOK frameOutcome = iota
	frameOutOfBounds
	frameLPCFailed
	frameSolverFailed
)

func (f *FormantAnalyzer) analyzeFrame(signal []float64, center int, window *windowing.Gaussian, emphasis *filters.PreEmphasis) ([]Formant, frameOutcome) {
	frame := extractFrame(signal, center, window, emphasis)
	if frame == nil {
		return []Formant{}, frameOutOfBounds
	}

	coeffs := f.lpc.Coefficients(frame)
	if len(coeffs) == 0 {
		return []Formant{}, frameLPCFailed
	}

	formants, err := f.FormantsFromLPC(coeffs)
	if err != nil {
		return formants, frameSolverFailed
	}
	return formants, frameOK
}

func collectStats(frames []FormantFrame, outcomes []frameOutcome) AnalysisStats {
	stats := AnalysisStats{Frames: len(frames)}
	for i, frame := range frames {
		if len(frame.Formants) == 0 {
			stats.EmptyFrames++
		}
		switch outcomes[i] {
		case frameOutOfBounds:
			stats.BoundsSkipped++
		case frameLPCFailed:
			stats.LPCFailures++
		case frameSolverFailed:
			stats.SolverFailures++
		}
	}
	return stats
}

// ExtractFrame slices the window centred on center out of signal, applies the
// Gaussian window and then backward pre-emphasis. The window is
// round(windowLengthS*sampleRate) samples and starts at max(0, center-half).
//
// Returns nil when the window would run past the end of signal.
func ExtractFrame(signal []float64, center int, windowLengthS, preEmphasisHz, sampleRate float64) []float64 {
	windowSamples := common.SecondsToSamples(windowLengthS, sampleRate)
	if windowSamples <= 0 {
		return nil
	}

	return extractFrame(
		signal,
		center,
		windowing.NewGaussian(windowSamples),
		filters.NewPreEmphasisFromFrequency(preEmphasisHz, sampleRate),
	)
}

func extractFrame(signal []float64, center int, window *windowing.Gaussian, emphasis *filters.PreEmphasis) []float64 {
	size := window.GetSize()
	start := max(0, center-size/2)
	if size == 0 || start+size > len(signal) {
		return nil
	}

	frame := make([]float64, size)
	copy(frame, signal[start:start+size])

	if err := window.ApplyInPlace(frame); err != nil {
		return nil
	}
	emphasis.ApplyBackwardInPlace(frame)

	return frame
}

// LPCToFormants converts LPC coefficients to at most numFormants formants
// sorted by frequency, using the default root solver. Solver failures and
// degree-zero inputs yield an empty list.
func LPCToFormants(coeffs []float64, ceilingHz float64, numFormants int) []Formant {
	formants, _ := lpcToFormants(coeffs, ceilingHz, numFormants, DefaultRootSolver())
	return formants
}

// lpcToFormants maps each upper-half-plane root r of the LPC polynomial to
//
//	frequency = arg(r) * fs / 2π,  bandwidth = -ln|r| * fs / π,  fs = 2*ceiling
//
// and keeps those with 200 < frequency < ceiling-50 and bandwidth < 800.
func lpcToFormants(coeffs []float64, ceilingHz float64, numFormants int, solver RootSolver) ([]Formant, error) {
	candidates := []Formant{}
	if len(coeffs)-1 <= 0 {
		return candidates, nil
	}

	re, im, err := solver.Roots(characteristicPolynomial(coeffs))
	if err != nil {
		return candidates, err
	}

	fs := 2.0 * ceilingHz
	for i := range re {
		if im[i] <= minImaginaryPart {
			continue
		}

		root := complex(re[i], im[i])
		formant := Formant{
			FrequencyHz: cmplx.Phase(root) * fs / (2.0 * math.Pi),
			BandwidthHz: -math.Log(cmplx.Abs(root)) * fs / math.Pi,
		}

		if formant.FrequencyHz > minFormantHz &&
			formant.FrequencyHz < ceilingHz-ceilingMarginHz &&
			formant.BandwidthHz < maxBandwidthHz {
			candidates = append(candidates, formant)
		}
	}

	slices.SortStableFunc(candidates, func(a, b Formant) int {
		return cmp.Compare(a.FrequencyHz, b.FrequencyHz)
	})

	if numFormants < 0 {
		numFormants = 0
	}
	if len(candidates) > numFormants {
		candidates = candidates[:numFormants]
	}

	return candidates, nil
}
