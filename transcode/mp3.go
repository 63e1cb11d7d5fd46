package transcode

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits interleaved 16-bit little-endian stereo
const mp3Channels = 2

// MP3Decoder decodes MPEG-1/2 layer III streams with go-mp3
type MP3Decoder struct{}

// Decode reads the whole stream and downmixes it to mono
func (MP3Decoder) Decode(r io.Reader) (*AudioData, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrUnsupportedFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}

	return newAudioData(Downmix(int16LEToFloat64(raw), mp3Channels), dec.SampleRate(), mp3Channels, "mp3")
}

// int16LEToFloat64 converts little-endian int16 PCM bytes to [-1, 1)
func int16LEToFloat64(data []byte) []float64 {
	samples := make([]float64, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}
