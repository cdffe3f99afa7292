// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the story player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command identifies a transport or output action requested from the TUI.
type Command int

const (
	// CmdPlay restarts the loaded story from the beginning.
	CmdPlay Command = iota
	// CmdTogglePause pauses a playing story or resumes a paused one.
	CmdTogglePause
	// CmdStop halts playback.
	CmdStop
	// CmdVolume carries a new volume level.
	CmdVolume
	// CmdMute carries a new mute state.
	CmdMute
	// CmdQuit signals application shutdown.
	CmdQuit
)

// ControlMsg is one command from the TUI to the application.
type ControlMsg struct {
	Command Command
	Volume  int
	Muted   bool
}

// Control holds the channel for TUI-to-application communication
type Control struct {
	Commands chan ControlMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Commands: make(chan ControlMsg, 10),
	}
}

// NewModel creates a new TUI model
func NewModel(title string, ctrl *Control) Model {
	return Model{
		title:  title,
		volume: 100,
		state:  "idle",
		ctrl:   ctrl,
	}
}

// Run starts the TUI
func Run(title string, ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(title, ctrl), tea.WithAltScreen())
	return p, nil
}
