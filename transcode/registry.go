package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/RyanBlaney/sonido-formant/logging"
)

// Registry maps file extensions ("wav", "mp3", ...) to decoders. A fallback
// decoder, when set, handles every extension without a native decoder.
type Registry struct {
	decoders map[string]Decoder
	fallback Decoder
	config   *DecoderConfig

	mu sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
		config:   &DecoderConfig{},
	}
}

// NewDefaultRegistry registers the native WAV, MP3 and Ogg Vorbis decoders
// and, if enabled in config, ffmpeg as the fallback.
func NewDefaultRegistry(config *DecoderConfig) *Registry {
	if config == nil {
		config = DefaultDecoderConfig()
	}

	r := NewRegistry()
	r.config = config

	r.Register("wav", WAVDecoder{})
	r.Register("wave", WAVDecoder{})
	r.Register("mp3", MP3Decoder{})
	r.Register("ogg", VorbisDecoder{})
	r.Register("oga", VorbisDecoder{})

	if config.EnableFFmpeg {
		r.SetFallback(NewFFmpegDecoder(config))
	}

	return r
}

// Register associates a decoder with an extension (case-insensitive, with or
// without the leading dot).
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decoders[normalizeExt(ext)] = d
}

// SetFallback sets the decoder used for unregistered extensions
func (r *Registry) SetFallback(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fallback = d
}

// Get returns the decoder for ext, falling back when one is set
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.decoders[normalizeExt(ext)]; ok {
		return d, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Formats lists the registered extensions
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		formats = append(formats, ext)
	}
	slices.Sort(formats)
	return formats
}

// DecodeFile decodes the file at path with the decoder registered for its
// extension and applies the configured MaxDuration.
func (r *Registry) DecodeFile(path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  path,
	})

	ext := filepath.Ext(path)
	decoder, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	logger.Debug("Starting audio file decode", logging.Fields{
		"extension": normalizeExt(ext),
	})

	audio, err := decoder.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if audio == nil || len(audio.PCM) == 0 {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), ErrNoSamples)
	}

	audio.Truncate(r.config.MaxDuration)

	logger.Debug("Audio file decoded", logging.Fields{
		"format":      audio.Format,
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
		"samples":     len(audio.PCM),
		"duration":    audio.Duration.Seconds(),
	})

	return audio, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
