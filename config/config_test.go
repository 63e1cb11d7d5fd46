package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-formant/algorithms/speech"
	"github.com/RyanBlaney/sonido-formant/logging"
)

func TestDefaultAnalysisConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	require.NoError(t, cfg.Validate())

	params := cfg.FormantParams()
	defaults := speech.DefaultFormantParams()
	assert.Equal(t, defaults.CeilingHz, params.CeilingHz)
	assert.Equal(t, defaults.NumFormants, params.NumFormants)
	assert.Equal(t, defaults.WindowLengthS, params.WindowLengthS)
	assert.Equal(t, defaults.PreEmphasisHz, params.PreEmphasisHz)
	assert.Equal(t, speech.LPCBurg, params.Method)
	assert.NotNil(t, params.Solver)
	assert.Equal(t, logging.InfoLevel, cfg.Level())
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(`
ceiling_hz: 5000
num_formants: 4
lpc_method: autocorrelation
root_solver: companion
workers: 4
remove_dc_hz: 20
log_level: debug
decoder:
  enable_ffmpeg: false
  target_sample_rate: 16000
`))
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.CeilingHz)
	assert.Equal(t, 4, cfg.NumFormants)
	assert.Equal(t, 0.025, cfg.WindowLengthS, "unset fields keep defaults")
	assert.Equal(t, 50.0, cfg.PreEmphasisHz)
	assert.Equal(t, 20.0, cfg.RemoveDCHz)
	assert.Equal(t, logging.DebugLevel, cfg.Level())
	assert.False(t, cfg.Decoder.EnableFFmpeg)
	assert.Equal(t, 16000, cfg.Decoder.TargetSampleRate)
	assert.Equal(t, "ffmpeg", cfg.Decoder.FFmpegPath)
	assert.Equal(t, 30*time.Second, cfg.Decoder.Timeout)

	params := cfg.FormantParams()
	assert.Equal(t, speech.LPCAutocorrelation, params.Method)
	assert.IsType(t, &speech.CompanionSolver{}, params.Solver)
	assert.Equal(t, 4, params.Workers)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"ceiling_hz": 5000, "num_formants": 5, "window_length_s": 0.05}`))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.CeilingHz)
	assert.Equal(t, 0.05, cfg.WindowLengthS)
}

func TestParse_LPCMethods(t *testing.T) {
	for _, method := range []speech.LPCMethod{speech.LPCBurg, speech.LPCBurgClassic, speech.LPCAutocorrelation} {
		cfg, err := Parse([]byte("lpc_method: " + string(method)))
		require.NoError(t, err, method)
		assert.Equal(t, method, cfg.FormantParams().Method)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero ceiling", "ceiling_hz: 0"},
		{"negative formants", "num_formants: -1"},
		{"zero formants", "num_formants: 0"},
		{"zero window", "window_length_s: 0"},
		{"negative pre-emphasis", "pre_emphasis_hz: -5"},
		{"negative dc cutoff", "remove_dc_hz: -1"},
		{"negative workers", "workers: -2"},
		{"unknown lpc method", "lpc_method: covariance"},
		{"unknown solver", "root_solver: jenkins-traub"},
		{"unknown log level", "log_level: chatty"},
		{"bad decoder", "decoder:\n  target_sample_rate: -1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse([]byte("ceiling_hz: [not, a, number]"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ceiling_hz: 5000\nnum_formants: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.CeilingHz)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
