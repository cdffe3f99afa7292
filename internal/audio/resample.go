// ABOUTME: Linear resampler for rate-mismatched clips
// ABOUTME: Converts decoded buffers to the playback graph's sample rate
package audio

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// NewResampler creates a new resampler
func NewResampler(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts interleaved input samples to the output rate using
// linear interpolation. Returns the number of output samples produced.
func (r *Resampler) Resample(input []int32, output []int32) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputPos := r.position
		inputIdx := int(inputPos)

		if inputIdx >= inputFrames-1 {
			break
		}

		frac := inputPos - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			sample1 := input[inputIdx*r.channels+ch]
			sample2 := input[(inputIdx+1)*r.channels+ch]

			interpolated := float64(sample1)*(1.0-frac) + float64(sample2)*frac
			output[outIdx*r.channels+ch] = int32(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
}

// ResampleBuffer returns a copy of buf converted to the target sample rate.
// Buffers already at the target rate are returned unchanged.
func ResampleBuffer(buf *Buffer, targetRate int) *Buffer {
	if buf.Format.SampleRate == targetRate || buf.Format.SampleRate == 0 {
		return buf
	}

	channels := buf.Format.Channels
	r := NewResampler(buf.Format.SampleRate, targetRate, channels)

	outFrames := int(float64(buf.Frames()) * float64(targetRate) / float64(buf.Format.SampleRate))
	output := make([]int32, outFrames*channels)
	n := r.Resample(buf.Samples, output)

	format := buf.Format
	format.SampleRate = targetRate

	return &Buffer{
		Samples: output[:n],
		Format:  format,
	}
}
