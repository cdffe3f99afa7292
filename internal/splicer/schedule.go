// ABOUTME: Playback schedule construction
// ABOUTME: Builds the alternating base-slice / name-clip node sequence
package splicer

import (
	"sort"
	"time"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// NodeKind distinguishes base-track slices from inserted clips.
type NodeKind int

const (
	// NodeBase is a slice of the base narration track.
	NodeBase NodeKind = iota
	// NodeClip is a whole inserted name clip.
	NodeClip
)

// ScheduledNode is one contiguous region of the playback timeline. StartAt is
// relative to the start of the schedule; Offset applies to base slices only.
type ScheduledNode struct {
	Kind        NodeKind
	Placeholder Placeholder // meaningful for NodeClip
	Buffer      *audio.Buffer
	StartAt     time.Duration
	Offset      time.Duration
	Duration    time.Duration
}

// End returns the node's end on the schedule timeline.
func (n ScheduledNode) End() time.Duration {
	return n.StartAt + n.Duration
}

// BuildSchedule walks the splice points in timestamp order and produces a
// contiguous, non-overlapping node sequence: base slices alternating with
// whole clips, clips at one timestamp firing back to back. Splice points
// whose placeholder has no loaded clip are skipped without breaking base
// continuity. Returns the nodes and the total scheduled duration.
func BuildSchedule(base *audio.Buffer, points []SplicePoint, clips map[Placeholder]*audio.Buffer) ([]ScheduledNode, time.Duration) {
	sorted := make([]SplicePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	baseDur := base.Duration()

	var nodes []ScheduledNode
	var basePos time.Duration // cursor into the base track
	var at time.Duration      // accumulated schedule time

	for _, pt := range sorted {
		t := pt.Offset()
		if t > baseDur {
			t = baseDur
		}

		// Base slice up to the splice position. Ties and clamped points
		// leave the cursor in place so no negative slice can appear.
		if t > basePos {
			d := t - basePos
			nodes = append(nodes, ScheduledNode{
				Kind:     NodeBase,
				Buffer:   base,
				StartAt:  at,
				Offset:   basePos,
				Duration: d,
			})
			at += d
			basePos = t
		}

		clip, ok := clips[pt.Placeholder]
		if !ok || clip == nil || clip.Duration() == 0 {
			continue
		}

		nodes = append(nodes, ScheduledNode{
			Kind:        NodeClip,
			Placeholder: pt.Placeholder,
			Buffer:      clip,
			StartAt:     at,
			Duration:    clip.Duration(),
		})
		at += clip.Duration()
	}

	// Trailing remainder of the base track
	if basePos < baseDur {
		d := baseDur - basePos
		nodes = append(nodes, ScheduledNode{
			Kind:     NodeBase,
			Buffer:   base,
			StartAt:  at,
			Offset:   basePos,
			Duration: d,
		})
		at += d
	}

	return nodes, at
}
