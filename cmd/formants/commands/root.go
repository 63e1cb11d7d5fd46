package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-formant/config"
	"github.com/RyanBlaney/sonido-formant/logging"
)

// rootOptions holds the global flags and the configuration resolved from them
type rootOptions struct {
	cfgFile string
	verbose bool

	ceilingHz     float64
	numFormants   int
	windowLengthS float64
	preEmphasisHz float64
	lpcMethod     string
	rootSolver    string
	workers       int
	removeDCHz    float64
	ffmpeg        bool

	config *config.AnalysisConfig
}

// NewRootCommand builds the formants command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	defaults := config.DefaultAnalysisConfig()

	rootCmd := &cobra.Command{
		Use:   "formants",
		Short: "Praat-style formant tracker",
		Long: `formants - track vocal tract resonances in speech recordings.

Audio is resampled to twice the formant ceiling, cut into overlapping
Gaussian-windowed frames, pre-emphasized and fitted with Burg LPC. The
roots of each prediction polynomial become formant frequency/bandwidth
pairs.

Examples:
  # Track 5 formants with Praat's defaults and print a table
  formants analyze speech.wav --format table

  # Male voice settings, JSON with per-formant summary
  formants analyze speech.wav --ceiling 5000 --summary

  # Use a config file, overriding one value
  formants --config formants.yaml analyze speech.mp3 --workers 4
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (YAML or JSON)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.Float64Var(&opts.ceilingHz, "ceiling", defaults.CeilingHz, "formant ceiling in Hz (5000 for male, 5500 for female voices)")
	flags.IntVarP(&opts.numFormants, "formants", "n", defaults.NumFormants, "number of formants per frame")
	flags.Float64Var(&opts.windowLengthS, "window", defaults.WindowLengthS, "analysis window length in seconds")
	flags.Float64Var(&opts.preEmphasisHz, "pre-emphasis", defaults.PreEmphasisHz, "pre-emphasis corner frequency in Hz")
	flags.StringVar(&opts.lpcMethod, "method", defaults.LPCMethod, "LPC method: burg, burg-classic or autocorrelation")
	flags.StringVar(&opts.rootSolver, "solver", defaults.RootSolver, "root solver: auto, companion or aberth")
	flags.IntVarP(&opts.workers, "workers", "j", defaults.Workers, "frames analysed concurrently")
	flags.Float64Var(&opts.removeDCHz, "remove-dc", defaults.RemoveDCHz, "remove DC with a high-pass at this cutoff in Hz (0 disables)")
	flags.BoolVar(&opts.ffmpeg, "ffmpeg", defaults.Decoder.EnableFFmpeg, "decode formats without a native decoder through ffmpeg")

	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newEnvelopeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the formants command tree
func Execute() error {
	return NewRootCommand().Execute()
}

// resolve loads the config file, applies explicitly set flags on top of it,
// validates the result and configures logging.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.DefaultAnalysisConfig()
	if o.cfgFile != "" {
		loaded, err := config.Load(o.cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("ceiling") {
		cfg.CeilingHz = o.ceilingHz
	}
	if changed("formants") {
		cfg.NumFormants = o.numFormants
	}
	if changed("window") {
		cfg.WindowLengthS = o.windowLengthS
	}
	if changed("pre-emphasis") {
		cfg.PreEmphasisHz = o.preEmphasisHz
	}
	if changed("method") {
		cfg.LPCMethod = o.lpcMethod
	}
	if changed("solver") {
		cfg.RootSolver = o.rootSolver
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("remove-dc") {
		cfg.RemoveDCHz = o.removeDCHz
	}
	if changed("ffmpeg") {
		cfg.Decoder.EnableFFmpeg = o.ffmpeg
	}
	if o.verbose {
		cfg.LogLevel = logging.DebugLevel.String()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w (see --help)", err)
	}

	// results go to stdout, diagnostics to stderr
	logger := logging.NewWriterLogger(cmd.ErrOrStderr())
	logger.SetLevel(cfg.Level())
	logging.SetGlobalLogger(logger)

	o.config = cfg
	return nil
}
