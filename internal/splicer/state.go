// ABOUTME: Playback session state machine
// ABOUTME: Defines states and the valid-transition table for the scheduler
package splicer

// State represents the current state of a playback session.
type State int

const (
	// StateIdle indicates no session is active.
	StateIdle State = iota
	// StateLoading indicates buffers are being fetched and decoded.
	StateLoading
	// StatePlaying indicates scheduled nodes are sounding.
	StatePlaying
	// StatePaused indicates the graph clock is suspended mid-session.
	StatePaused
	// StateCompleted indicates the last node played to its natural end.
	StateCompleted
	// StateErrored indicates the base track could not be loaded.
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// validTransitions maps each state to the states it may enter. Stop may force
// any state back to Idle, which is encoded here explicitly.
var validTransitions = map[State][]State{
	StateIdle:      {StateLoading},
	StateLoading:   {StatePlaying, StateCompleted, StateErrored, StateIdle},
	StatePlaying:   {StatePaused, StateCompleted, StateIdle},
	StatePaused:    {StatePlaying, StateCompleted, StateIdle},
	StateCompleted: {StateIdle},
	StateErrored:   {StateIdle},
}

// CanTransition reports whether moving from s to target is legal.
func (s State) CanTransition(target State) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsActive returns true while a session holds scheduled nodes.
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// IsTerminal returns true for states that persist until the next play.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateErrored
}
