// ABOUTME: Tests for audio types and sample conversions
// ABOUTME: Verifies buffer math and 16/24-bit conversion helpers
package audio

import (
	"testing"
	"time"
)

func TestBufferFrames(t *testing.T) {
	buf := &Buffer{
		Samples: make([]int32, 960),
		Format:  Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
	}

	if buf.Frames() != 480 {
		t.Errorf("expected 480 frames, got %d", buf.Frames())
	}
}

func TestBufferDuration(t *testing.T) {
	// 48000 frames at 48kHz = exactly one second
	buf := &Buffer{
		Samples: make([]int32, 48000*2),
		Format:  Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
	}

	if buf.Duration() != time.Second {
		t.Errorf("expected 1s duration, got %v", buf.Duration())
	}
}

func TestBufferDurationZeroRate(t *testing.T) {
	buf := &Buffer{Samples: make([]int32, 100)}

	if buf.Duration() != 0 {
		t.Errorf("expected zero duration for zero rate, got %v", buf.Duration())
	}
	if buf.Frames() != 0 {
		t.Errorf("expected zero frames for zero channels, got %d", buf.Frames())
	}
}

func TestSampleConversionRoundTrip(t *testing.T) {
	tests := []int16{0, 1, -1, 1000, -1000, 32767, -32768}

	for _, sample := range tests {
		converted := SampleFromInt16(sample)
		back := SampleToInt16(converted)
		if back != sample {
			t.Errorf("round trip failed for %d: got %d", sample, back)
		}
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		bytes    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0x00, 0x00, 0x00}, 0},
		{"positive", [3]byte{0x01, 0x00, 0x00}, 1},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"negative one", [3]byte{0xFF, 0xFF, 0xFF}, -1},
		{"min negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.bytes)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestClamp24(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected int32
	}{
		{"in range", 1000, 1000},
		{"above max", int64(Max24Bit) + 100, Max24Bit},
		{"below min", int64(Min24Bit) - 100, Min24Bit},
		{"exactly max", int64(Max24Bit), Max24Bit},
		{"exactly min", int64(Min24Bit), Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp24(tt.input); got != tt.expected {
				t.Errorf("Clamp24(%d) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}
