package speech

import (
	"github.com/RyanBlaney/sonido-formant/algorithms/common"
)

// FormantSummary aggregates one formant slot (F1, F2, ...) over a track.
// Slot n holds the n-th lowest formant of every frame that has one.
type FormantSummary struct {
	Index             int     `json:"index"` // 1 for F1
	Count             int     `json:"count"` // frames contributing
	MeanFrequencyHz   float64 `json:"mean_frequency_hz"`
	MedianFrequencyHz float64 `json:"median_frequency_hz"`
	StdFrequencyHz    float64 `json:"std_frequency_hz"`
	MeanBandwidthHz   float64 `json:"mean_bandwidth_hz"`
}

// Summarize computes per-slot statistics over per-frame formant lists.
// numFormants fixes the number of slots; when <= 0 it is taken from the
// longest frame. Slots no frame reached are returned with Count 0.
func Summarize(frames [][]Formant, numFormants int) []FormantSummary {
	if numFormants <= 0 {
		for _, frame := range frames {
			numFormants = max(numFormants, len(frame))
		}
	}

	summaries := make([]FormantSummary, numFormants)
	for slot := range numFormants {
		var freqs, bws []float64
		for _, frame := range frames {
			if slot < len(frame) {
				freqs = append(freqs, frame[slot].FrequencyHz)
				bws = append(bws, frame[slot].BandwidthHz)
			}
		}

		summaries[slot] = FormantSummary{
			Index:             slot + 1,
			Count:             len(freqs),
			MeanFrequencyHz:   common.Mean(freqs),
			MedianFrequencyHz: common.Median(freqs),
			StdFrequencyHz:    common.StandardDeviation(freqs),
			MeanBandwidthHz:   common.Mean(bws),
		}
	}

	return summaries
}
