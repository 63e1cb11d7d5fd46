package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-formant/algorithms/filters"
	"github.com/RyanBlaney/sonido-formant/algorithms/speech"
	"github.com/RyanBlaney/sonido-formant/config"
	"github.com/RyanBlaney/sonido-formant/logging"
	"github.com/RyanBlaney/sonido-formant/transcode"
)

// analysisResult is the JSON document written by analyze
type analysisResult struct {
	File       string                  `json:"file"`
	Format     string                  `json:"format"`
	SampleRate int                     `json:"sample_rate"`
	Channels   int                     `json:"channels"`
	DurationS  float64                 `json:"duration_s"`
	Config     *config.AnalysisConfig  `json:"config"`
	Track      *speech.FormantTrack    `json:"track"`
	Summary    []speech.FormantSummary `json:"summary,omitempty"`
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		format     string
		summary    bool
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Track formants across an audio file",
		Long: `Track formants across an audio file.

WAV, MP3 and Ogg Vorbis are decoded natively; other formats go through
ffmpeg when it is enabled. Multi-channel audio is averaged to mono.

Output formats:
  json   - full track with timing, diagnostics and the resolved config
  table  - one row per frame: time, then frequency/bandwidth per formant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unknown output format %q, use json or table", format)
			}

			audio, err := loadAudio(opts.config, args[0])
			if err != nil {
				return err
			}

			analyzer := speech.NewFormantAnalyzer(opts.config.FormantParams())
			track := analyzer.Analyze(audio.PCM, float64(audio.SampleRate))

			logging.Info("Analysis finished", logging.Fields{
				"file":         args[0],
				"frames":       track.Stats.Frames,
				"empty_frames": track.Stats.EmptyFrames,
			})

			result := &analysisResult{
				File:       args[0],
				Format:     audio.Format,
				SampleRate: audio.SampleRate,
				Channels:   audio.Channels,
				DurationS:  audio.Duration.Seconds(),
				Config:     opts.config,
				Track:      track,
			}
			if summary {
				result.Summary = speech.Summarize(track.Formants(), opts.config.NumFormants)
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if format == "table" {
				return writeTable(out, result, opts.config.NumFormants)
			}
			return writeJSON(out, result)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "include per-formant statistics")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// loadAudio decodes path and applies the optional DC blocker
func loadAudio(cfg *config.AnalysisConfig, path string) (*transcode.AudioData, error) {
	audio, err := transcode.NewDefaultRegistry(&cfg.Decoder).DecodeFile(path)
	if err != nil {
		return nil, err
	}

	if cfg.RemoveDCHz > 0 {
		dc := filters.NewDCRemovalWithCutoff(float64(audio.SampleRate), cfg.RemoveDCHz)
		audio.PCM = dc.ProcessBuffer(audio.PCM)
	}

	return audio, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// writeTable prints one row per frame; missing formants are shown as "-"
func writeTable(w io.Writer, result *analysisResult, numFormants int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "time\t")
	for i := 1; i <= numFormants; i++ {
		fmt.Fprintf(tw, "F%d\tB%d\t", i, i)
	}
	fmt.Fprintln(tw)

	for _, frame := range result.Track.Frames {
		fmt.Fprintf(tw, "%.4f\t", frame.Time)
		for i := range numFormants {
			if i < len(frame.Formants) {
				fmt.Fprintf(tw, "%s\t%s\t", hz(frame.Formants[i].FrequencyHz), hz(frame.Formants[i].BandwidthHz))
			} else {
				fmt.Fprint(tw, "-\t-\t")
			}
		}
		fmt.Fprintln(tw)
	}

	if len(result.Summary) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprint(tw, "formant\tcount\tmean\tmedian\tstd\tbandwidth\t\n")
		for _, s := range result.Summary {
			fmt.Fprintf(tw, "F%d\t%d\t%s\t%s\t%s\t%s\t\n",
				s.Index, s.Count, hz(s.MeanFrequencyHz), hz(s.MedianFrequencyHz), hz(s.StdFrequencyHz), hz(s.MeanBandwidthHz))
		}
	}

	return tw.Flush()
}

func hz(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
