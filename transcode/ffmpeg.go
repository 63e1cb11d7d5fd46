package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-formant/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	EnableFFmpeg     bool          `yaml:"enable_ffmpeg" json:"enable_ffmpeg"`           // use ffmpeg for formats without a native decoder
	FFmpegPath       string        `yaml:"ffmpeg_path" json:"ffmpeg_path"`               // Path to ffmpeg binary
	FFprobePath      string        `yaml:"ffprobe_path" json:"ffprobe_path"`             // Path to ffprobe binary
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`                       // Timeout for ffmpeg operations
	TargetSampleRate int           `yaml:"target_sample_rate" json:"target_sample_rate"` // 0 keeps the source rate
	MaxDuration      time.Duration `yaml:"max_duration" json:"max_duration"`             // 0 decodes everything
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		EnableFFmpeg:     true,
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          30 * time.Second,
		TargetSampleRate: 0,
		MaxDuration:      0, // No limit
	}
}

// Validate checks the decoder configuration
func (c *DecoderConfig) Validate() error {
	if c.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", c.TargetSampleRate)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", c.Timeout)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", c.MaxDuration)
	}
	if c.EnableFFmpeg && (c.FFmpegPath == "" || c.FFprobePath == "") {
		return errors.New("ffmpeg and ffprobe paths are required when ffmpeg is enabled")
	}
	return nil
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
}

// FFmpegDecoder decodes anything ffmpeg understands by piping the input
// through ffprobe and ffmpeg and reading back mono float64 PCM.
type FFmpegDecoder struct {
	config *DecoderConfig
}

// NewFFmpegDecoder creates a new ffmpeg-backed decoder
func NewFFmpegDecoder(config *DecoderConfig) *FFmpegDecoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &FFmpegDecoder{config: config}
}

// Decode decodes r with a background context
func (d *FFmpegDecoder) Decode(r io.Reader) (*AudioData, error) {
	return d.DecodeContext(context.Background(), r)
}

// DecodeContext probes and decodes r. The configured timeout bounds each
// ffmpeg/ffprobe invocation.
func (d *FFmpegDecoder) DecodeContext(ctx context.Context, r io.Reader) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeContext",
	})

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoSamples
	}

	metadata, err := d.probe(ctx, data)
	if err != nil {
		logger.Error(err, "Failed to probe audio metadata")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	sampleRate := metadata.SampleRate
	if d.config.TargetSampleRate > 0 {
		sampleRate = d.config.TargetSampleRate
	}

	args := d.buildFFmpegArgs()
	output, err := d.run(ctx, d.config.FFmpegPath, args, data)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_bytes":       len(output),
		"output_samples":     len(samples),
		"output_sample_rate": sampleRate,
	})

	return newAudioData(samples, sampleRate, metadata.Channels, "ffmpeg:"+metadata.Codec)
}

// buildFFmpegArgs reads from stdin and writes mono float64 little-endian to stdout
func (d *FFmpegDecoder) buildFFmpegArgs() []string {
	args := []string{
		"-v", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
	}

	if d.config.TargetSampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(d.config.TargetSampleRate))
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "pipe:1")
}

// probe uses ffprobe to get input audio information from bytes
func (d *FFmpegDecoder) probe(ctx context.Context, data []byte) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		"pipe:0", // Input from stdin
	}

	output, err := d.run(ctx, d.config.FFprobePath, args, data)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

func (d *FFmpegDecoder) run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	logging.Debug("Running command", logging.Fields{
		"component": "audio_decoder",
		"command":   name + " " + strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio streams found", ErrUnsupportedFormat)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is not audio type: %s", ErrUnsupportedFormat, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	if stream.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	// duration and bitrate are informational; ffprobe omits them for some containers
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
	}, nil
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	// Trim to multiple of 8 bytes
	data = data[:len(data)-(len(data)%8)]

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
