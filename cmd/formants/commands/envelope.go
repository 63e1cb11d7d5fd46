package commands

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-formant/algorithms/common"
	"github.com/RyanBlaney/sonido-formant/algorithms/speech"
	"github.com/RyanBlaney/sonido-formant/logging"
)

// JSON cannot carry -Inf, so empty bins are reported at this level
const envelopeFloorDB = -300.0

type envelopeBin struct {
	FrequencyHz float64 `json:"frequency_hz"`
	LevelDB     float64 `json:"level_db"`
}

type envelopeResult struct {
	File         string           `json:"file"`
	TimeS        float64          `json:"time_s"`
	AnalysisRate float64          `json:"analysis_rate"`
	Coefficients []float64        `json:"coefficients"`
	Formants     []speech.Formant `json:"formants"`
	Envelope     []envelopeBin    `json:"envelope"`
}

func newEnvelopeCmd(opts *rootOptions) *cobra.Command {
	var (
		at     float64
		nfft   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "envelope <audio-file>",
		Short: "Print the LPC spectral envelope of one frame",
		Long: `Print the LPC spectral envelope of the frame centred at --time.

The frame is prepared exactly as in analyze (resampling, Gaussian window,
pre-emphasis) and the envelope |1/A(f)| is reported in dB relative to its
peak, together with the formants found in that frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unknown output format %q, use json or table", format)
			}

			audio, err := loadAudio(opts.config, args[0])
			if err != nil {
				return err
			}

			result, err := frameEnvelope(opts.config.FormantParams(), audio.PCM, float64(audio.SampleRate), at, nfft)
			if err != nil {
				return err
			}
			result.File = args[0]

			if format == "table" {
				return writeEnvelopeTable(cmd.OutOrStdout(), result)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Float64VarP(&at, "time", "t", 0, "frame centre in seconds")
	cmd.Flags().IntVar(&nfft, "nfft", 512, "FFT size for the envelope")
	cmd.Flags().StringVar(&format, "format", "table", "output format: json or table")

	return cmd
}

// frameEnvelope runs the analyze front end on the single frame centred at
// atSeconds and evaluates its LPC envelope. Formants come from the configured
// root solver; a solver failure leaves the list empty.
func frameEnvelope(params speech.FormantParams, pcm []float64, sampleRate, atSeconds float64, nfft int) (*envelopeResult, error) {
	targetRate := 2.0 * params.CeilingHz
	resampled := common.Resample(pcm, sampleRate, targetRate)

	center := int(math.Round(atSeconds * targetRate))
	frame := speech.ExtractFrame(resampled, center, params.WindowLengthS, params.PreEmphasisHz, targetRate)
	if frame == nil {
		return nil, fmt.Errorf("no complete analysis window at %.3fs", atSeconds)
	}

	analyzer := speech.NewFormantAnalyzer(params)
	coeffs := analyzer.LPC().Coefficients(frame)
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("LPC fit failed at %.3fs", atSeconds)
	}

	formants, err := analyzer.FormantsFromLPC(coeffs)
	if err != nil {
		logging.Warn("Root solver failed, no formants for this frame", logging.Fields{
			"time_s": atSeconds,
			"error":  err.Error(),
		})
	}

	envelope := speech.EnvelopeDB(speech.SpectralEnvelope(coeffs, nfft))
	usedNFFT := 2 * (len(envelope) - 1)

	bins := make([]envelopeBin, len(envelope))
	for k, db := range envelope {
		bins[k] = envelopeBin{
			FrequencyHz: float64(k) * targetRate / float64(usedNFFT),
			LevelDB:     math.Max(db, envelopeFloorDB),
		}
	}

	return &envelopeResult{
		TimeS:        float64(center) / targetRate,
		AnalysisRate: targetRate,
		Coefficients: coeffs,
		Formants:     formants,
		Envelope:     bins,
	}, nil
}

func writeEnvelopeTable(w io.Writer, result *envelopeResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "# frame at %.4fs, analysis rate %s Hz\t\n", result.TimeS, hz(result.AnalysisRate))
	for i, f := range result.Formants {
		fmt.Fprintf(tw, "# F%d %s Hz (bandwidth %s Hz)\t\n", i+1, hz(f.FrequencyHz), hz(f.BandwidthHz))
	}

	fmt.Fprint(tw, "frequency_hz\tlevel_db\t\n")
	for _, bin := range result.Envelope {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", hz(bin.FrequencyHz), bin.LevelDB)
	}

	return tw.Flush()
}
