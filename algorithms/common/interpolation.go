package common

import (
	"math"
)

// LinearAt returns data sampled at a fractional index by linear interpolation
// between floor(index) and the next sample. The upper neighbour is clamped to
// the last sample, so positions at or beyond the end return data[len-1].
func LinearAt(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if index <= 0 {
		return data[0]
	}

	i := int(index)
	if i >= len(data) {
		i = len(data) - 1
	}
	next := min(i+1, len(data)-1)
	frac := index - float64(i)

	return data[i]*(1.0-frac) + data[next]*frac
}

// Resample converts input from inRate to outRate by linear interpolation.
//
// There is no anti-aliasing filter: content above the new Nyquist folds back.
// The formant analyzer resamples to twice the formant ceiling, where that
// energy lies outside the band it reports on.
//
// An empty input or a non-positive rate yields an empty slice. Equal rates
// yield a copy of the input.
func Resample(input []float64, inRate, outRate float64) []float64 {
	if len(input) == 0 || inRate <= 0 || outRate <= 0 {
		return []float64{}
	}

	if inRate == outRate {
		out := make([]float64, len(input))
		copy(out, input)
		return out
	}

	ratio := inRate / outRate
	outLen := int(math.Floor(float64(len(input)) / ratio))
	if outLen <= 0 {
		return []float64{}
	}

	output := make([]float64, outLen)
	for i := range outLen {
		output[i] = LinearAt(input, float64(i)*ratio)
	}

	return output
}
