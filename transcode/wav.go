package transcode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes integer PCM WAV files with go-audio/wav
type WAVDecoder struct{}

// Decode reads the whole stream; go-audio needs to seek between chunks so
// non-seekable readers are buffered in memory first.
func (WAVDecoder) Decode(r io.Reader) (*AudioData, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, ErrInvalidWAV
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	samples := make([]float64, len(buf.Data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		for i, v := range buf.Data {
			samples[i] = float64(v-128) / 128.0
		}
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	default:
		return nil, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, bitDepth)
	}

	channels := buf.Format.NumChannels
	return newAudioData(Downmix(samples, channels), buf.Format.SampleRate, channels, "wav")
}
