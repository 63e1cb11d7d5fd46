package speech

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCeiling = 5500.0
	testRate    = 2 * testCeiling // analysis rate, no resampling needed
)

var testVowel = []resonance{{700, 80}, {1800, 100}}

func TestLPCToFormants_ConvertsAndFilters(t *testing.T) {
	coeffs := lpcFromResonances(testRate, []resonance{
		{1800, 100},
		{100, 50},   // below 200 Hz: voice source, dropped
		{3000, 900}, // too wide
		{700, 80},
		{5480, 40}, // inside the 50 Hz margin below the ceiling
	})

	formants := LPCToFormants(coeffs, testCeiling, 5)
	require.Len(t, formants, 2)
	assert.InDelta(t, 700, formants[0].FrequencyHz, 1e-6)
	assert.InDelta(t, 80, formants[0].BandwidthHz, 1e-6)
	assert.InDelta(t, 1800, formants[1].FrequencyHz, 1e-6)
	assert.InDelta(t, 100, formants[1].BandwidthHz, 1e-6)
}

func TestLPCToFormants_SortsAndTruncates(t *testing.T) {
	coeffs := lpcFromResonances(testRate, []resonance{{2500, 120}, {500, 60}, {1500, 90}})

	all := LPCToFormants(coeffs, testCeiling, 10)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].FrequencyHz, all[i].FrequencyHz)
	}

	lowest := LPCToFormants(coeffs, testCeiling, 2)
	require.Len(t, lowest, 2)
	assert.InDelta(t, 500, lowest[0].FrequencyHz, 1e-6)
	assert.InDelta(t, 1500, lowest[1].FrequencyHz, 1e-6)

	assert.Empty(t, LPCToFormants(coeffs, testCeiling, 0))
	assert.Empty(t, LPCToFormants(coeffs, testCeiling, -3))
}

func TestLPCToFormants_Degenerate(t *testing.T) {
	assert.Empty(t, LPCToFormants(nil, testCeiling, 4))
	assert.Empty(t, LPCToFormants([]float64{1}, testCeiling, 4))

	formants, err := lpcToFormants([]float64{1, 0.5, 0.2}, testCeiling, 4, &failingSolver{err: ErrNoConvergence})
	assert.ErrorIs(t, err, ErrNoConvergence)
	require.NotNil(t, formants)
	assert.Empty(t, formants)
}

func TestExtractFrame_WindowAndBackwardPreEmphasis(t *testing.T) {
	signal := make([]float64, 100)
	for i := range signal {
		signal[i] = 1
	}

	// 11 samples at 1 kHz, half = 5, centre 50 -> samples 45..55
	frame := ExtractFrame(signal, 50, 0.011, 50, 1000)
	require.Len(t, frame, 11)

	a := math.Exp(-2 * math.Pi * 50 / 1000)
	w := func(i int) float64 {
		x := (float64(i) - 5) / 5
		return math.Exp(-12.5 * x * x)
	}
	assert.InDelta(t, w(0)*(1-a), frame[0], 1e-15)
	for i := 1; i < 11; i++ {
		assert.InDelta(t, w(i)-a*w(i-1), frame[i], 1e-15, "sample %d", i)
	}
}

func TestExtractFrame_Bounds(t *testing.T) {
	signal := whiteNoise(100, 1)

	// start clamps to zero near the beginning
	early := ExtractFrame(signal, 2, 0.011, 50, 1000)
	fromZero := ExtractFrame(signal, 5, 0.011, 50, 1000)
	assert.Equal(t, fromZero, early)

	// window would run past the end
	assert.Nil(t, ExtractFrame(signal, 98, 0.011, 50, 1000))
	assert.Nil(t, ExtractFrame(signal, 50, 0, 50, 1000))
	assert.Nil(t, ExtractFrame(signal, 50, 0.011, 50, 0))
}

func TestFrameCenters(t *testing.T) {
	assert.Equal(t, []int{5, 8, 11}, FrameCenters(18, 11, 3))
	assert.Empty(t, FrameCenters(10, 11, 3))
	assert.Empty(t, FrameCenters(100, 0, 3))
	assert.Empty(t, FrameCenters(100, 11, 0))
}

func TestProcess_FrameCount(t *testing.T) {
	// window = round(0.025*11000) = 275, step = round(68.75) = 69
	const window, step = 275, 69

	for _, n := range []int{275, 276, 1000, 11000} {
		frames := Process(whiteNoise(n, uint64(n)), testRate, testCeiling, 5, 0.025, 50)
		assert.Len(t, frames, (n-window)/step+1, "n=%d", n)
	}

	assert.Empty(t, Process(whiteNoise(274, 2), testRate, testCeiling, 5, 0.025, 50))
}

func TestProcess_DegenerateInput(t *testing.T) {
	out := Process(nil, testRate, testCeiling, 5, 0.025, 50)
	require.NotNil(t, out)
	assert.Empty(t, out)

	assert.Empty(t, Process(whiteNoise(5000, 1), 0, testCeiling, 5, 0.025, 50))
	assert.Empty(t, Process(whiteNoise(5000, 1), testRate, 0, 5, 0.025, 50))
	assert.Empty(t, Process(whiteNoise(5000, 1), testRate, testCeiling, 5, 0, 50))
}

func TestProcess_SilenceYieldsEmptyFrames(t *testing.T) {
	frames := Process(make([]float64, 11000), testRate, testCeiling, 5, 0.025, 50)

	require.Len(t, frames, 156)
	for i, frame := range frames {
		require.NotNil(t, frame, "frame %d", i)
		assert.Empty(t, frame, "frame %d", i)
	}
}

func TestProcess_FormantInvariants(t *testing.T) {
	const numFormants = 4
	frames := Process(whiteNoise(22050, 42), 22050, testCeiling, numFormants, 0.025, 50)
	require.NotEmpty(t, frames)

	for i, frame := range frames {
		assert.LessOrEqual(t, len(frame), numFormants, "frame %d", i)
		for j, f := range frame {
			assert.Greater(t, f.FrequencyHz, 200.0)
			assert.Less(t, f.FrequencyHz, testCeiling-50)
			assert.Less(t, f.BandwidthHz, 800.0)
			if j > 0 {
				assert.LessOrEqual(t, frame[j-1].FrequencyHz, f.FrequencyHz)
			}
		}
	}
}

func TestProcess_ComposesFrameStages(t *testing.T) {
	signal := synthesizeVowel(testRate, 11000, 120, testVowel)

	frames := Process(signal, testRate, testCeiling, 5, 0.025, 50)
	require.Len(t, frames, 156)

	for _, i := range []int{0, 1, 77, 155} {
		center := 137 + 69*i
		frame := ExtractFrame(signal, center, 0.025, 50, testRate)
		require.NotNil(t, frame)

		expected := LPCToFormants(BurgLPC(frame, 12), testCeiling, 5)
		assert.Equal(t, expected, frames[i], "frame %d", i)
	}
}

func classicParams() FormantParams {
	params := DefaultFormantParams()
	params.Method = LPCBurgClassic
	return params
}

func TestFormantAnalyzer_ClassicBurgRecoversResonances(t *testing.T) {
	signal := synthesizeVowel(testRate, 11000, 120, testVowel)

	frames := NewFormantAnalyzer(classicParams()).Analyze(signal, testRate).Formants()
	require.Len(t, frames, 156)

	nearF2 := 0
	for i, frame := range frames {
		assert.True(t, hasFormantNear(frame, 700, 0.10), "frame %d: %v", i, frame)
		if hasFormantNear(frame, 1800, 0.10) {
			nearF2++
		}
	}
	assert.GreaterOrEqual(t, float64(nearF2), 0.9*float64(len(frames)))
}

func TestFormantAnalyzer_ClassicBurgAfterResampling(t *testing.T) {
	signal := synthesizeVowel(22050, 22050, 110, testVowel)

	frames := NewFormantAnalyzer(classicParams()).Analyze(signal, 22050).Formants()
	require.Len(t, frames, 156)

	assert.GreaterOrEqual(t, fractionNear(frames, 700, 0.10), 0.9)
	assert.GreaterOrEqual(t, fractionNear(frames, 1800, 0.10), 0.8)
}

func TestFormantAnalyzer_AutocorrelationMethod(t *testing.T) {
	params := DefaultFormantParams()
	params.Method = LPCAutocorrelation

	signal := synthesizeVowel(testRate, 11000, 120, testVowel)
	track := NewFormantAnalyzer(params).Analyze(signal, testRate)
	require.NotEmpty(t, track.Frames)

	assert.GreaterOrEqual(t, fractionNear(track.Formants(), 700, 0.10), 0.9)
}

func TestFormantAnalyzer_TrackMetadata(t *testing.T) {
	params := DefaultFormantParams()
	track := NewFormantAnalyzer(params).Analyze(whiteNoise(11000, 9), testRate)

	assert.Equal(t, testRate, track.AnalysisRate)
	assert.Equal(t, 275, track.WindowSamples)
	assert.InDelta(t, 69.0/testRate, track.TimeStep, 1e-15)
	require.Len(t, track.Frames, 156)
	assert.InDelta(t, 137.0/testRate, track.Frames[0].Time, 1e-15)
	assert.InDelta(t, (137.0+69)/testRate, track.Frames[1].Time, 1e-15)
	assert.Equal(t, 156, track.Stats.Frames)
	assert.Zero(t, track.Stats.BoundsSkipped)
}

func TestFormantAnalyzer_WorkersMatchSerial(t *testing.T) {
	signal := synthesizeVowel(testRate, 11000, 130, testVowel)

	serial := NewFormantAnalyzer(DefaultFormantParams()).Analyze(signal, testRate)

	params := DefaultFormantParams()
	params.Workers = 4
	parallel := NewFormantAnalyzer(params).Analyze(signal, testRate)

	assert.Equal(t, serial, parallel)
}

func TestFormantAnalyzer_SolverFailuresAreCounted(t *testing.T) {
	solver := &failingSolver{err: ErrNoConvergence}
	params := DefaultFormantParams()
	params.Solver = solver

	track := NewFormantAnalyzer(params).Analyze(whiteNoise(2000, 4), testRate)
	require.NotEmpty(t, track.Frames)

	assert.Equal(t, len(track.Frames), track.Stats.SolverFailures)
	assert.Equal(t, len(track.Frames), track.Stats.EmptyFrames)
	assert.Equal(t, len(track.Frames), solver.calls)
	for _, frame := range track.Frames {
		assert.Empty(t, frame.Formants)
	}
}

func TestFormantAnalyzer_LPCFailuresAreCounted(t *testing.T) {
	// a 3-sample window cannot hold an order-12 fit
	params := DefaultFormantParams()
	params.WindowLengthS = 3 / testRate

	track := NewFormantAnalyzer(params).Analyze(whiteNoise(50, 8), testRate)
	require.NotEmpty(t, track.Frames)
	assert.Equal(t, len(track.Frames), track.Stats.LPCFailures)
}
