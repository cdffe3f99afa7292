// ABOUTME: Tests for the linear resampler
// ABOUTME: Tests interpolation between sample rates and buffer conversion
package audio

import (
	"testing"
)

func TestNewResampler(t *testing.T) {
	r := NewResampler(44100, 48000, 2)

	if r == nil {
		t.Fatal("expected resampler to be created")
	}
	if r.inputRate != 44100 {
		t.Errorf("expected inputRate 44100, got %d", r.inputRate)
	}
	if r.outputRate != 48000 {
		t.Errorf("expected outputRate 48000, got %d", r.outputRate)
	}
	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleUpsampling(t *testing.T) {
	// 44100 -> 48000 (upsampling by factor of ~1.088)
	r := NewResampler(44100, 48000, 2)

	input := make([]int32, 200)
	for i := range input {
		input[i] = int32(i * 100) // Ramp signal
	}

	expectedSize := int(float64(len(input)) * float64(48000) / float64(44100))
	output := make([]int32, expectedSize)

	n := r.Resample(input, output)
	if n == 0 {
		t.Fatal("resampler produced no output")
	}

	if n < expectedSize-10 || n > expectedSize+10 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, n)
	}
}

func TestResampleDownsampling(t *testing.T) {
	r := NewResampler(48000, 24000, 1)

	input := make([]int32, 100)
	for i := range input {
		input[i] = int32(i)
	}

	output := make([]int32, 50)
	n := r.Resample(input, output)

	if n == 0 {
		t.Fatal("resampler produced no output")
	}

	// Every output sample should land between its interpolation neighbors
	for i := 1; i < n; i++ {
		if output[i] < output[i-1] {
			t.Errorf("ramp not preserved at %d: %d < %d", i, output[i], output[i-1])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := NewResampler(44100, 48000, 2)
	output := make([]int32, 100)

	if n := r.Resample(nil, output); n != 0 {
		t.Errorf("expected 0 samples for empty input, got %d", n)
	}
}

func TestResampleBufferPassthrough(t *testing.T) {
	buf := &Buffer{
		Samples: []int32{1, 2, 3, 4},
		Format:  Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
	}

	out := ResampleBuffer(buf, 48000)
	if out != buf {
		t.Error("expected same buffer when rates match")
	}
}

func TestResampleBufferConverts(t *testing.T) {
	buf := &Buffer{
		Samples: make([]int32, 24000),
		Format:  Format{SampleRate: 24000, Channels: 1, BitDepth: 16},
	}

	out := ResampleBuffer(buf, 48000)
	if out == buf {
		t.Fatal("expected a new buffer")
	}
	if out.Format.SampleRate != 48000 {
		t.Errorf("expected rate 48000, got %d", out.Format.SampleRate)
	}

	// One second of input should stay roughly one second after conversion
	if out.Duration() < 900e6 || out.Duration() > 1100e6 {
		t.Errorf("expected ~1s duration, got %v", out.Duration())
	}
}
