// Package config loads analysis settings from YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/RyanBlaney/sonido-formant/algorithms/speech"
	"github.com/RyanBlaney/sonido-formant/logging"
	"github.com/RyanBlaney/sonido-formant/transcode"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// AnalysisConfig is the full configuration for a formant analysis run
type AnalysisConfig struct {
	CeilingHz     float64 `yaml:"ceiling_hz" json:"ceiling_hz"`
	NumFormants   int     `yaml:"num_formants" json:"num_formants"`
	WindowLengthS float64 `yaml:"window_length_s" json:"window_length_s"`
	PreEmphasisHz float64 `yaml:"pre_emphasis_hz" json:"pre_emphasis_hz"`
	LPCMethod     string  `yaml:"lpc_method" json:"lpc_method"`   // "burg", "burg-classic" or "autocorrelation"
	RootSolver    string  `yaml:"root_solver" json:"root_solver"` // "auto", "companion" or "aberth"
	Workers       int     `yaml:"workers" json:"workers"`
	RemoveDCHz    float64 `yaml:"remove_dc_hz" json:"remove_dc_hz"` // DC blocker cutoff applied before analysis; 0 disables

	Decoder  transcode.DecoderConfig `yaml:"decoder" json:"decoder"`
	LogLevel string                  `yaml:"log_level" json:"log_level"`
}

// DefaultAnalysisConfig returns Praat's standard settings: 5500 Hz ceiling,
// 5 formants, 25 ms window and pre-emphasis from 50 Hz.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		CeilingHz:     5500,
		NumFormants:   5,
		WindowLengthS: 0.025,
		PreEmphasisHz: 50,
		LPCMethod:     string(speech.LPCBurg),
		RootSolver:    "auto",
		Workers:       1,
		Decoder:       *transcode.DefaultDecoderConfig(),
		LogLevel:      "info",
	}
}

// Load reads a config file. Fields missing from the file keep their defaults.
func Load(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML (or JSON, which is valid YAML) over the defaults and
// validates the result.
func Parse(data []byte) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting
func (c *AnalysisConfig) Validate() error {
	if c.CeilingHz <= 0 {
		return fmt.Errorf("%w: ceiling_hz must be positive, got %g", ErrInvalidConfig, c.CeilingHz)
	}
	if c.NumFormants <= 0 {
		return fmt.Errorf("%w: num_formants must be positive, got %d", ErrInvalidConfig, c.NumFormants)
	}
	if c.WindowLengthS <= 0 {
		return fmt.Errorf("%w: window_length_s must be positive, got %g", ErrInvalidConfig, c.WindowLengthS)
	}
	if c.PreEmphasisHz < 0 {
		return fmt.Errorf("%w: pre_emphasis_hz must not be negative, got %g", ErrInvalidConfig, c.PreEmphasisHz)
	}
	if c.RemoveDCHz < 0 {
		return fmt.Errorf("%w: remove_dc_hz must not be negative, got %g", ErrInvalidConfig, c.RemoveDCHz)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}

	switch speech.LPCMethod(c.LPCMethod) {
	case "", speech.LPCBurg, speech.LPCBurgClassic, speech.LPCAutocorrelation:
	default:
		return fmt.Errorf("%w: unknown lpc_method %q", ErrInvalidConfig, c.LPCMethod)
	}

	if speech.SolverByName(c.RootSolver) == nil {
		return fmt.Errorf("%w: unknown root_solver %q", ErrInvalidConfig, c.RootSolver)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("%w: decoder: %w", ErrInvalidConfig, err)
	}

	return nil
}

// FormantParams converts the config into analyzer parameters. The config
// must have passed Validate.
func (c *AnalysisConfig) FormantParams() speech.FormantParams {
	return speech.FormantParams{
		CeilingHz:     c.CeilingHz,
		NumFormants:   c.NumFormants,
		WindowLengthS: c.WindowLengthS,
		PreEmphasisHz: c.PreEmphasisHz,
		Method:        speech.LPCMethod(c.LPCMethod),
		Solver:        speech.SolverByName(c.RootSolver),
		Workers:       c.Workers,
	}
}

// Level returns the parsed log level, defaulting to info
func (c *AnalysisConfig) Level() logging.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
