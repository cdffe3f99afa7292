// ABOUTME: Whole-file audio decoder
// ABOUTME: Decodes MP3 and WAV resources into PCM buffers
package audio

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Decode converts a fetched audio resource into a PCM buffer. The container
// is sniffed from the leading bytes; MP3 and WAV are supported.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}

	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return decodeWAV(data)
	case bytes.HasPrefix(data, []byte("ID3")), isMP3FrameSync(data):
		return decodeMP3(data)
	default:
		return nil, fmt.Errorf("unsupported audio container")
	}
}

// isMP3FrameSync reports whether data starts with a raw MPEG frame header.
func isMP3FrameSync(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeMP3 decodes an MP3 stream. go-mp3 always emits 16-bit stereo.
func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(pcm) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
		samples[i] = SampleFromInt16(sample16)
	}

	return &Buffer{
		Samples: samples,
		Format: Format{
			SampleRate: dec.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}

// decodeWAV decodes a RIFF/WAVE file.
func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode error: %w", err)
	}

	return convertIntBuffer(pcm)
}

// convertIntBuffer maps go-audio's int samples onto the 24-bit left-justified
// convention used throughout the pipeline.
func convertIntBuffer(pcm *goaudio.IntBuffer) (*Buffer, error) {
	if pcm.Format == nil {
		return nil, fmt.Errorf("wav buffer missing format")
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	samples := make([]int32, len(pcm.Data))
	for i, v := range pcm.Data {
		switch bitDepth {
		case 24:
			samples[i] = int32(v)
		case 32:
			samples[i] = int32(v >> 8)
		default:
			samples[i] = SampleFromInt16(int16(v))
		}
	}

	return &Buffer{
		Samples: samples,
		Format: Format{
			SampleRate: pcm.Format.SampleRate,
			Channels:   pcm.Format.NumChannels,
			BitDepth:   bitDepth,
		},
	}, nil
}
