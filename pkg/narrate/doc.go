// ABOUTME: High-level narrate library API
// ABOUTME: Provides the Narrator facade for personalized story playback
// Package narrate provides a high-level API for gapless playback of
// personalized story narration.
//
// A Narrator splices pre-generated name clips (the child's name, the pet's
// name) into a base narration track at annotated splice points and plays
// the result as a single seamless stream with pause, resume, and stop.
//
// Example:
//
//	n, err := narrate.New(narrate.Config{
//	    OnProgress: func(p float64) { fmt.Printf("\r%.0f%%", p*100) },
//	})
//	err = n.Play(ctx, storyURL,
//	    []narrate.SplicePoint{{TimestampMs: 4200, Placeholder: narrate.PlaceholderChild}},
//	    narrate.NameClips{ChildURL: childClipURL},
//	)
//
// For lower-level control, see the internal graph, cache, and splicer
// packages.
package narrate
