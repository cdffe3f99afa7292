// ABOUTME: Splice point model
// ABOUTME: Defines where name clips are inserted into the base narration
package splicer

import "time"

// Placeholder identifies which named-audio clip a splice point inserts.
type Placeholder int

const (
	// PlaceholderChild inserts the child's name clip.
	PlaceholderChild Placeholder = iota
	// PlaceholderPet inserts the pet's name clip.
	PlaceholderPet
)

// String returns the string representation of the placeholder.
func (p Placeholder) String() string {
	switch p {
	case PlaceholderChild:
		return "child"
	case PlaceholderPet:
		return "pet"
	default:
		return "unknown"
	}
}

// SplicePoint marks an insertion into the base track. Points sharing a
// timestamp are processed in list order after a stable sort.
type SplicePoint struct {
	TimestampMs int64
	Placeholder Placeholder
}

// Offset returns the splice position as an offset into the base track.
func (p SplicePoint) Offset() time.Duration {
	return time.Duration(p.TimestampMs) * time.Millisecond
}

// NameClips carries the resolved clip URLs for each placeholder kind. An
// empty URL means the clip has not been generated; its insertions are
// silently skipped.
type NameClips struct {
	ChildURL string
	PetURL   string
}

func (n NameClips) urlFor(p Placeholder) string {
	switch p {
	case PlaceholderChild:
		return n.ChildURL
	case PlaceholderPet:
		return n.PetURL
	default:
		return ""
	}
}
