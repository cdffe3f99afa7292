// ABOUTME: Gapless splice playback scheduler
// ABOUTME: Orchestrates buffer loading, node scheduling, transport, and progress
package splicer

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
	"github.com/Storyglow-Audio/narrate-go/internal/graph"
)

// DefaultPollInterval approximates one progress update per rendered frame.
const DefaultPollInterval = 16 * time.Millisecond

// BufferSource resolves a URL to a decoded audio buffer. *cache.BufferCache
// satisfies this.
type BufferSource interface {
	Get(ctx context.Context, url string) (*audio.Buffer, error)
}

// session is the state of one play call. A new play stops the prior session
// outright; at most one session is ever active.
type session struct {
	id       string
	handles  []graph.NodeHandle
	startAt  time.Duration // graph clock when the session was scheduled
	total    time.Duration
	stopPoll chan struct{}
	stopOnce sync.Once
}

func (s *session) halt() {
	for _, h := range s.handles {
		h.Stop()
	}
	s.stopOnce.Do(func() { close(s.stopPoll) })
}

// Scheduler splices name clips into a base narration track and plays the
// result as one gapless stream with VCR-style transport controls.
type Scheduler struct {
	buffers      BufferSource
	graph        graph.Graph
	pollInterval time.Duration

	mu         sync.Mutex
	state      State
	progress   float64
	lastErr    error
	session    *session
	generation uint64 // bumped per Play; stale loads check it and bail

	onState    func(State)
	onProgress func(float64)
	onError    func(error)
}

// NewScheduler creates a scheduler over the given buffer source and graph.
func NewScheduler(buffers BufferSource, g graph.Graph) *Scheduler {
	return &Scheduler{
		buffers:      buffers,
		graph:        g,
		pollInterval: DefaultPollInterval,
		state:        StateIdle,
	}
}

// SetPollInterval overrides the progress polling cadence.
func (s *Scheduler) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// OnStateChange registers a callback for state changes.
func (s *Scheduler) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// OnProgress registers a callback for progress updates.
func (s *Scheduler) OnProgress(fn func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// OnError registers a callback for load failures.
func (s *Scheduler) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Play loads the base track plus whichever name clips the splice points
// need, schedules the spliced sequence on the graph, and starts playback.
// Any prior session is stopped first. A base-track load failure moves the
// scheduler to Errored and is returned; missing name clips are skipped.
func (s *Scheduler) Play(ctx context.Context, baseURL string, points []SplicePoint, clips NameClips) error {
	s.Stop()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.progress = 0
	s.lastErr = nil
	onState := s.onState
	s.mu.Unlock()

	if onState != nil {
		onState(StateLoading)
	}

	baseBuf, clipBufs, err := s.loadBuffers(ctx, baseURL, points, clips)
	if err != nil {
		s.mu.Lock()
		if s.generation != gen {
			// A newer play superseded this one while it was loading; its
			// failure must not disturb the newer session.
			s.mu.Unlock()
			return err
		}
		s.lastErr = err
		s.state = StateErrored
		onState := s.onState
		onError := s.onError
		s.mu.Unlock()

		log.Error("narration load failed", "url", baseURL, "err", err)
		if onState != nil {
			onState(StateErrored)
		}
		if onError != nil {
			onError(err)
		}
		return err
	}

	nodes, total := BuildSchedule(baseBuf, points, clipBufs)

	s.mu.Lock()
	if s.generation != gen || s.state != StateLoading {
		// Stopped or superseded by a newer play while loading; nothing to
		// schedule. The state check alone is not enough: a newer play is
		// itself Loading at this point, and the earlier load finishing
		// second must not steal its session.
		s.mu.Unlock()
		return nil
	}

	if len(nodes) == 0 || total == 0 {
		s.state = StateCompleted
		s.progress = 1
		onState := s.onState
		s.mu.Unlock()
		if onState != nil {
			onState(StateCompleted)
		}
		return nil
	}

	sess := &session{
		id:       uuid.New().String(),
		startAt:  s.graph.Now(),
		total:    total,
		stopPoll: make(chan struct{}),
	}

	last := len(nodes) - 1
	for i, n := range nodes {
		var onEnded func()
		if i == last {
			id := sess.id
			onEnded = func() { s.complete(id) }
		}
		h := s.graph.Schedule(n.Buffer, sess.startAt+n.StartAt, n.Offset, n.Duration, onEnded)
		sess.handles = append(sess.handles, h)
	}

	s.session = sess
	s.state = StatePlaying
	onState = s.onState
	s.mu.Unlock()

	log.Debug("playback scheduled",
		"session", sess.id, "nodes", len(nodes), "total", total)

	if onState != nil {
		onState(StatePlaying)
	}

	go s.pollProgress(sess)
	return nil
}

// loadBuffers fetches the base track and any needed name clips in parallel.
// Only the base track is fatal; unavailable clips degrade to skips.
func (s *Scheduler) loadBuffers(ctx context.Context, baseURL string, points []SplicePoint, clips NameClips) (*audio.Buffer, map[Placeholder]*audio.Buffer, error) {
	needed := make(map[Placeholder]bool)
	for _, pt := range points {
		needed[pt.Placeholder] = true
	}

	var baseBuf *audio.Buffer
	clipBufs := make(map[Placeholder]*audio.Buffer)
	var clipMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buf, err := s.buffers.Get(gctx, baseURL)
		if err != nil {
			return fmt.Errorf("load base track: %w", err)
		}
		baseBuf = buf
		return nil
	})

	for _, ph := range []Placeholder{PlaceholderChild, PlaceholderPet} {
		url := clips.urlFor(ph)
		if !needed[ph] || url == "" {
			continue
		}

		g.Go(func() error {
			buf, err := s.buffers.Get(gctx, url)
			if err != nil {
				log.Warn("name clip unavailable, skipping insertions",
					"placeholder", ph, "err", err)
				return nil
			}
			clipMu.Lock()
			clipBufs[ph] = buf
			clipMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return baseBuf, clipBufs, nil
}

// pollProgress recomputes progress from the graph clock on a fixed tick.
// Updates pause while the session is paused and stop at completion.
func (s *Scheduler) pollProgress(sess *session) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stopPoll:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.session != sess {
				s.mu.Unlock()
				return
			}
			if s.state != StatePlaying {
				s.mu.Unlock()
				continue
			}

			elapsed := s.graph.Now() - sess.startAt
			p := float64(elapsed) / float64(sess.total)
			if p > 1 {
				p = 1
			}
			// Monotone while playing
			if p > s.progress {
				s.progress = p
			}
			cur := s.progress
			onProgress := s.onProgress
			s.mu.Unlock()

			if onProgress != nil {
				onProgress(cur)
			}
		}
	}
}

// complete marks the session finished when its last node ends naturally.
func (s *Scheduler) complete(sessionID string) {
	s.mu.Lock()
	sess := s.session
	if sess == nil || sess.id != sessionID || !s.state.CanTransition(StateCompleted) {
		s.mu.Unlock()
		return
	}

	s.progress = 1
	s.state = StateCompleted
	onState := s.onState
	onProgress := s.onProgress
	s.mu.Unlock()

	sess.stopOnce.Do(func() { close(sess.stopPoll) })

	log.Debug("playback completed", "session", sess.id)

	if onProgress != nil {
		onProgress(1)
	}
	if onState != nil {
		onState(StateCompleted)
	}
}

// Pause suspends the graph clock. Valid only while Playing; otherwise a
// silent no-op.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return
	}

	s.graph.Suspend()
	s.state = StatePaused
	onState := s.onState
	s.mu.Unlock()

	if onState != nil {
		onState(StatePaused)
	}
}

// Resume continues a paused session from exactly where the clock froze.
// Valid only while Paused; otherwise a silent no-op.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return
	}

	s.graph.Resume()
	s.state = StatePlaying
	onState := s.onState
	s.mu.Unlock()

	if onState != nil {
		onState(StatePlaying)
	}
}

// Stop halts and discards all scheduled nodes and resets progress. Valid
// from any state; stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.progress = 0
	changed := s.state != StateIdle
	s.state = StateIdle
	onState := s.onState
	s.mu.Unlock()

	if sess != nil {
		// A paused graph must keep running for the next session.
		s.graph.Resume()
		sess.halt()
	}

	if changed && onState != nil {
		onState(StateIdle)
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the progress fraction in [0, 1].
func (s *Scheduler) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Err returns the load error from the last failed play, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// IsLoading reports whether buffers are being fetched.
func (s *Scheduler) IsLoading() bool { return s.State() == StateLoading }

// IsPlaying reports whether a session is sounding.
func (s *Scheduler) IsPlaying() bool { return s.State() == StatePlaying }

// IsPaused reports whether a session is suspended.
func (s *Scheduler) IsPaused() bool { return s.State() == StatePaused }

// Close stops any active session and releases the playback graph.
func (s *Scheduler) Close() error {
	s.Stop()
	return s.graph.Close()
}
