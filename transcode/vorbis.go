package transcode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis streams with oggvorbis
type VorbisDecoder struct{}

// Decode reads the whole stream and downmixes it to mono
func (VorbisDecoder) Decode(r io.Reader) (*AudioData, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ogg vorbis: %w", ErrUnsupportedFormat, err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return newAudioData(Downmix(samples, format.Channels), format.SampleRate, format.Channels, "vorbis")
}
