// ABOUTME: Audio device output using oto library
// ABOUTME: Pumps the software mixer to the hardware with volume control
package graph

import (
	"encoding/binary"
	"fmt"
	"sync"

	log "github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// Device drives a Mixer through an oto output. It implements Graph by
// delegating scheduling and the clock to the mixer while mapping suspend and
// resume onto the hardware player.
type Device struct {
	*Mixer

	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	volume int
	muted  bool
	ready  bool
}

// NewDevice opens the audio hardware for the given output format.
func NewDevice(format audio.Format) (*Device, error) {
	mixer := NewMixer(format)

	op := &oto.NewContextOptions{
		SampleRate:   mixer.Format().SampleRate,
		ChannelCount: mixer.Format().Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	d := &Device{
		Mixer:  mixer,
		otoCtx: otoCtx,
		volume: 100,
	}

	d.player = otoCtx.NewPlayer(&deviceReader{device: d})
	d.player.Play()
	d.ready = true

	log.Info("audio output initialized",
		"rate", mixer.Format().SampleRate, "channels", mixer.Format().Channels)

	return d, nil
}

// Suspend freezes the mixer clock and pauses the hardware player.
func (d *Device) Suspend() {
	d.Mixer.Suspend()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		d.player.Pause()
	}
}

// Resume continues playback from where the clock froze.
func (d *Device) Resume() {
	d.Mixer.Resume()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		d.player.Play()
	}
}

// Close releases the output device.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	if d.otoCtx != nil {
		d.otoCtx.Suspend()
	}
	d.ready = false
	d.mu.Unlock()

	return d.Mixer.Close()
}

// SetVolume sets the volume (0-100)
func (d *Device) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = volume
}

// SetMuted sets mute state
func (d *Device) SetMuted(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

// GetVolume returns current volume
func (d *Device) GetVolume() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// IsMuted returns mute state
func (d *Device) IsMuted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

// deviceReader feeds mixed PCM to the oto player as 16-bit little-endian
// bytes. It always fills the requested length so the stream stays gapless.
type deviceReader struct {
	device *Device
}

func (r *deviceReader) Read(p []byte) (int, error) {
	d := r.device
	channels := d.Mixer.Format().Channels

	frames := len(p) / (2 * channels)
	if frames == 0 {
		return 0, nil
	}

	samples := d.Mixer.Render(frames)

	d.mu.Lock()
	multiplier := getVolumeMultiplier(d.volume, d.muted)
	d.mu.Unlock()

	for i, sample := range samples {
		scaled := audio.Clamp24(int64(float64(sample) * multiplier))
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(scaled)))
	}

	return frames * channels * 2, nil
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
