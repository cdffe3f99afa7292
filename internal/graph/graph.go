// ABOUTME: Playback graph abstraction
// ABOUTME: Defines the scheduling primitive the splicer drives
package graph

import (
	"time"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// NodeHandle controls one scheduled node. Stop is idempotent and tolerates
// nodes that already finished or never started.
type NodeHandle interface {
	Stop()
}

// Graph is the low-level scheduling primitive: decoded buffers are queued
// against a shared clock for sample-accurate back-to-back playback. Suspend
// freezes the clock and every scheduled node in place; Resume continues from
// exactly where the clock froze.
type Graph interface {
	// Schedule queues buf to start at graph-clock time at, playing duration
	// worth of audio beginning offset into the buffer. onEnded fires once if
	// the node plays to natural completion; it never fires for stopped nodes.
	Schedule(buf *audio.Buffer, at, offset, duration time.Duration, onEnded func()) NodeHandle

	// Now returns the graph clock. It advances monotonically while running
	// and holds still while suspended.
	Now() time.Duration

	Suspend()
	Resume()
	Close() error
}
