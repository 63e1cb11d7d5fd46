package transcode

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when no decoder handles the input
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidWAV is returned for files without a valid RIFF/WAVE header or PCM format
	ErrInvalidWAV = errors.New("invalid WAV file")
	// ErrNoSamples is returned when decoding succeeds but yields no audio
	ErrNoSamples = errors.New("no audio samples decoded")
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"`           // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"` // Hz
	Channels   int           `json:"channels"`    // channel count of the source before downmixing
	Duration   time.Duration `json:"duration"`
	Format     string        `json:"format"` // decoder that produced the data
}

// Decoder turns an encoded stream into mono PCM
type Decoder interface {
	Decode(r io.Reader) (*AudioData, error)
}

// DecoderFunc adapts a function to the Decoder interface
type DecoderFunc func(r io.Reader) (*AudioData, error)

// Decode calls f(r)
func (f DecoderFunc) Decode(r io.Reader) (*AudioData, error) {
	return f(r)
}

// Downmix averages interleaved frames of the given channel count into mono.
// A trailing partial frame is dropped.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)

	switch channels {
	case 2:
		for f := range frames {
			out[f] = (interleaved[2*f] + interleaved[2*f+1]) * 0.5
		}
	default:
		for f := range frames {
			sum := 0.0
			base := f * channels
			for c := range channels {
				sum += interleaved[base+c]
			}
			out[f] = sum / float64(channels)
		}
	}

	return out
}

// newAudioData wraps mono PCM and fills in the duration
func newAudioData(pcm []float64, sampleRate, channels int, format string) (*AudioData, error) {
	if len(pcm) == 0 {
		return nil, ErrNoSamples
	}

	var duration time.Duration
	if sampleRate > 0 {
		duration = time.Duration(len(pcm)) * time.Second / time.Duration(sampleRate)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   duration,
		Format:     format,
	}, nil
}

// Truncate keeps at most maxDuration of audio. A non-positive maxDuration
// leaves the data untouched.
func (a *AudioData) Truncate(maxDuration time.Duration) {
	if maxDuration <= 0 || a.SampleRate <= 0 {
		return
	}

	limit := int(maxDuration.Seconds() * float64(a.SampleRate))
	if limit >= len(a.PCM) {
		return
	}

	a.PCM = a.PCM[:limit]
	a.Duration = time.Duration(limit) * time.Second / time.Duration(a.SampleRate)
}
