// ABOUTME: Software render graph with a frame-count clock
// ABOUTME: Mixes scheduled nodes into one gapless PCM stream
package graph

import (
	"sync"
	"time"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// mixNode is one scheduled region of audio on the mixer timeline.
type mixNode struct {
	samples    []int32 // conformed to mixer rate and channel count
	startFrame int64
	endFrame   int64
	stopped    bool
	ended      bool
	onEnded    func()
	mixer      *Mixer
}

// Stop silences the node. Stopping a finished or already-stopped node is a
// no-op.
func (n *mixNode) Stop() {
	n.mixer.mu.Lock()
	defer n.mixer.mu.Unlock()
	n.stopped = true
}

// Mixer renders scheduled nodes into a single interleaved PCM stream. The
// clock is the count of frames rendered, so time only moves when audio is
// actually produced and pause/resume is sample-accurate for free.
type Mixer struct {
	mu        sync.Mutex
	format    audio.Format
	nodes     []*mixNode
	clock     int64 // frames rendered since creation
	suspended bool
	closed    bool
}

// NewMixer creates a mixer rendering at the given output format.
func NewMixer(format audio.Format) *Mixer {
	if format.SampleRate == 0 {
		format.SampleRate = 48000
	}
	if format.Channels == 0 {
		format.Channels = 2
	}
	return &Mixer{format: format}
}

// Format returns the mixer's output format.
func (m *Mixer) Format() audio.Format {
	return m.format
}

// Schedule implements Graph. Buffers at a different sample rate or channel
// count are conformed to the mixer format up front.
func (m *Mixer) Schedule(buf *audio.Buffer, at, offset, duration time.Duration, onEnded func()) NodeHandle {
	conformed := audio.ResampleBuffer(buf, m.format.SampleRate)
	samples := conformChannels(conformed.Samples, conformed.Format.Channels, m.format.Channels)

	offsetFrame := m.durationToFrames(offset)
	durFrames := m.durationToFrames(duration)

	totalFrames := int64(len(samples) / m.format.Channels)
	if offsetFrame > totalFrames {
		offsetFrame = totalFrames
	}
	if offsetFrame+durFrames > totalFrames {
		durFrames = totalFrames - offsetFrame
	}

	start := offsetFrame * int64(m.format.Channels)
	end := (offsetFrame + durFrames) * int64(m.format.Channels)

	m.mu.Lock()
	defer m.mu.Unlock()

	node := &mixNode{
		samples:    samples[start:end],
		startFrame: m.durationToFrames(at),
		onEnded:    onEnded,
		mixer:      m,
	}
	node.endFrame = node.startFrame + durFrames
	m.nodes = append(m.nodes, node)

	return node
}

// Render produces the next count frames of output and advances the clock.
// While suspended it produces silence and the clock holds still.
func (m *Mixer) Render(count int) []int32 {
	out := make([]int32, count*m.format.Channels)

	m.mu.Lock()
	if m.suspended || m.closed {
		m.mu.Unlock()
		return out
	}

	channels := int64(m.format.Channels)
	for f := 0; f < count; f++ {
		frame := m.clock + int64(f)
		for _, n := range m.nodes {
			if n.stopped || frame < n.startFrame || frame >= n.endFrame {
				continue
			}
			rel := (frame - n.startFrame) * channels
			for ch := int64(0); ch < channels; ch++ {
				idx := f*m.format.Channels + int(ch)
				out[idx] = audio.Clamp24(int64(out[idx]) + int64(n.samples[rel+ch]))
			}
		}
	}
	m.clock += int64(count)

	// Retire nodes the clock has passed; completion callbacks fire outside
	// the lock.
	var callbacks []func()
	active := m.nodes[:0]
	for _, n := range m.nodes {
		if !n.ended && !n.stopped && m.clock >= n.endFrame {
			n.ended = true
			if n.onEnded != nil {
				callbacks = append(callbacks, n.onEnded)
			}
		}
		if !n.ended && !n.stopped {
			active = append(active, n)
		}
	}
	m.nodes = active
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}

	return out
}

// Now implements Graph.
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.clock) * time.Second / time.Duration(m.format.SampleRate)
}

// Suspend implements Graph.
func (m *Mixer) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
}

// Resume implements Graph.
func (m *Mixer) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = false
}

// Close implements Graph.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.nodes = nil
	return nil
}

// durationToFrames rounds to the nearest frame. Schedule times arrive as
// nanosecond durations derived from whole frame counts, so truncating here
// would misplace node boundaries by a frame at rates that don't divide 1e9
// evenly (48000 included) and break back-to-back playback.
func (m *Mixer) durationToFrames(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return (int64(d)*int64(m.format.SampleRate) + int64(time.Second)/2) / int64(time.Second)
}

// conformChannels maps interleaved samples between channel counts. Mono is
// duplicated up, stereo is averaged down; anything else keeps channel 0.
func conformChannels(samples []int32, from, to int) []int32 {
	if from == to || from == 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)

	for f := 0; f < frames; f++ {
		switch {
		case from == 1:
			for ch := 0; ch < to; ch++ {
				out[f*to+ch] = samples[f]
			}
		case to == 1:
			var sum int64
			for ch := 0; ch < from; ch++ {
				sum += int64(samples[f*from+ch])
			}
			out[f] = int32(sum / int64(from))
		default:
			for ch := 0; ch < to; ch++ {
				out[f*to+ch] = samples[f*from]
			}
		}
	}

	return out
}
