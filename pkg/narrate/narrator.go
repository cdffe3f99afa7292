// ABOUTME: High-level Narrator API for spliced story playback
// ABOUTME: Wires the buffer cache, playback graph, and splice scheduler together
package narrate

import (
	"context"
	"fmt"
	"time"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
	"github.com/Storyglow-Audio/narrate-go/internal/cache"
	"github.com/Storyglow-Audio/narrate-go/internal/graph"
	"github.com/Storyglow-Audio/narrate-go/internal/splicer"
)

// Re-exported splicer types so callers only import this package.
type (
	// State is a playback session state.
	State = splicer.State
	// Placeholder identifies which name clip a splice point inserts.
	Placeholder = splicer.Placeholder
	// SplicePoint marks a clip insertion into the base track.
	SplicePoint = splicer.SplicePoint
	// NameClips carries the resolved clip URLs for a profile.
	NameClips = splicer.NameClips
)

const (
	StateIdle      = splicer.StateIdle
	StateLoading   = splicer.StateLoading
	StatePlaying   = splicer.StatePlaying
	StatePaused    = splicer.StatePaused
	StateCompleted = splicer.StateCompleted
	StateErrored   = splicer.StateErrored

	PlaceholderChild = splicer.PlaceholderChild
	PlaceholderPet   = splicer.PlaceholderPet
)

// Config holds narrator configuration.
type Config struct {
	// SampleRate is the output sample rate (default: 48000).
	SampleRate int

	// Channels is the output channel count (default: 2).
	Channels int

	// Volume is the initial volume (0-100, default: 100).
	Volume int

	// OnStateChange is called when the playback state changes.
	OnStateChange func(State)

	// OnProgress is called with playback progress in [0, 1].
	OnProgress func(float64)

	// OnError is called when a load fails.
	OnError func(error)
}

// Status is a point-in-time snapshot of the narrator.
type Status struct {
	State     State
	IsLoading bool
	IsPlaying bool
	IsPaused  bool
	Progress  float64
	Err       error
}

// Narrator plays personalized story narration: a base track with name clips
// spliced in at annotated points, as one gapless stream.
type Narrator struct {
	config    Config
	cache     *cache.BufferCache
	graph     graph.Graph
	scheduler *splicer.Scheduler
	device    *graph.Device // nil when running on an injected graph
}

// New creates a narrator on the default audio output device.
func New(config Config) (*Narrator, error) {
	applyDefaults(&config)

	device, err := graph.NewDevice(audio.Format{
		SampleRate: config.SampleRate,
		Channels:   config.Channels,
		BitDepth:   16,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	device.SetVolume(config.Volume)

	n := newWithGraph(config, device)
	n.device = device
	return n, nil
}

// NewWithGraph creates a narrator on a caller-provided playback graph.
// Volume control is unavailable in this mode.
func NewWithGraph(config Config, g graph.Graph) *Narrator {
	applyDefaults(&config)
	return newWithGraph(config, g)
}

func applyDefaults(config *Config) {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.Volume == 0 {
		config.Volume = 100
	}
}

func newWithGraph(config Config, g graph.Graph) *Narrator {
	buffers := cache.NewBufferCache()
	sched := splicer.NewScheduler(buffers, g)

	if config.OnStateChange != nil {
		sched.OnStateChange(config.OnStateChange)
	}
	if config.OnProgress != nil {
		sched.OnProgress(config.OnProgress)
	}
	if config.OnError != nil {
		sched.OnError(config.OnError)
	}

	return &Narrator{
		config:    config,
		cache:     buffers,
		graph:     g,
		scheduler: sched,
	}
}

// Play starts playback of the base track with the given splice points and
// name clips, stopping any session already in flight. It returns once
// playback has started (or failed to load); completion is reported through
// the state callback.
func (n *Narrator) Play(ctx context.Context, baseURL string, points []SplicePoint, clips NameClips) error {
	return n.scheduler.Play(ctx, baseURL, points, clips)
}

// Pause suspends playback. No-op unless playing.
func (n *Narrator) Pause() {
	n.scheduler.Pause()
}

// Resume continues paused playback from the exact pause position. No-op
// unless paused.
func (n *Narrator) Resume() {
	n.scheduler.Resume()
}

// Stop halts playback and discards the session. No-op when idle.
func (n *Narrator) Stop() {
	n.scheduler.Stop()
}

// Status returns a snapshot of the current playback state.
func (n *Narrator) Status() Status {
	state := n.scheduler.State()
	return Status{
		State:     state,
		IsLoading: state == StateLoading,
		IsPlaying: state == StatePlaying,
		IsPaused:  state == StatePaused,
		Progress:  n.scheduler.Progress(),
		Err:       n.scheduler.Err(),
	}
}

// Prefetch warms the buffer cache for a URL so a later Play starts without
// network latency. Typically driven by clip-ready events.
func (n *Narrator) Prefetch(ctx context.Context, url string) error {
	_, err := n.cache.Get(ctx, url)
	return err
}

// ClearAudioBufferCache evicts all cached buffers. In-flight playback keeps
// its already-scheduled buffers.
func (n *Narrator) ClearAudioBufferCache() {
	n.cache.Clear()
}

// SetVolume sets output volume (0-100). No-op on an injected graph.
func (n *Narrator) SetVolume(volume int) {
	if n.device != nil {
		n.device.SetVolume(volume)
	}
}

// SetMuted sets output mute. No-op on an injected graph.
func (n *Narrator) SetMuted(muted bool) {
	if n.device != nil {
		n.device.SetMuted(muted)
	}
}

// Close stops playback and releases the audio output.
func (n *Narrator) Close() error {
	return n.scheduler.Close()
}

// SetPollInterval overrides the progress reporting cadence (default 16ms).
func (n *Narrator) SetPollInterval(d time.Duration) {
	n.scheduler.SetPollInterval(d)
}
