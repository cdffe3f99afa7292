// ABOUTME: Bubbletea model for the story player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Story
	title   string
	baseURL string

	// Playback
	state    string
	progress float64
	volume   int
	muted    bool
	lastErr  error

	// Control
	ctrl *Control

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderProgress()
	s += m.renderControls()
	s += m.renderHelp()

	return s
}

// renderHeader renders the story title and playback state
func (m Model) renderHeader() string {
	title := m.title
	if title == "" {
		title = "(no story loaded)"
	}

	stateIcon := "·"
	switch m.state {
	case "playing":
		stateIcon = "▶"
	case "paused":
		stateIcon = "⏸"
	case "loading":
		stateIcon = "…"
	case "completed":
		stateIcon = "✓"
	case "errored":
		stateIcon = "✗"
	}

	s := fmt.Sprintf(`┌─ Storyglow Player ───────────────────────────────────┐
│ Story:  %-45s │
│ State:  %s %-43s │
`, truncate(title, 45), stateIcon, m.state)

	if m.lastErr != nil {
		s += fmt.Sprintf("│ Error:  %-45s │\n", truncate(m.lastErr.Error(), 45))
	}

	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderProgress renders the playback position bar
func (m Model) renderProgress() string {
	pct := int(m.progress * 100)
	bar := renderBar(pct, 100, 40)

	return fmt.Sprintf("│ %s %3d%%%-6s │\n", bar, pct, "")
}

// renderControls renders volume status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│ Volume: [%s] %d%%%s%-26s │\n",
		volumeBar, m.volume, muteIcon, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ space:Pause/Resume  s:Stop  r:Replay  ↑/↓:Volume    │
│ m:Mute  q:Quit                                       │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(ControlMsg{Command: CmdQuit})
		return m, tea.Quit
	case " ":
		m.send(ControlMsg{Command: CmdTogglePause})
	case "s":
		m.send(ControlMsg{Command: CmdStop})
	case "r":
		m.send(ControlMsg{Command: CmdPlay})
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.send(ControlMsg{Command: CmdVolume, Volume: m.volume})
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.send(ControlMsg{Command: CmdVolume, Volume: m.volume})
	case "m":
		m.muted = !m.muted
		m.send(ControlMsg{Command: CmdMute, Muted: m.muted})
	}

	return m, nil
}

// send forwards a control message without blocking the update loop.
func (m Model) send(msg ControlMsg) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Commands <- msg:
	default:
	}
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.State != "" {
		m.state = msg.State
		if msg.State != "errored" {
			m.lastErr = nil
		}
	}
	if msg.Progress != nil {
		m.progress = *msg.Progress
	}
	if msg.Err != nil {
		m.lastErr = msg.Err
	}
}

// StatusMsg updates TUI state. Zero-valued fields leave prior state in
// place; Progress uses a pointer so position zero still applies.
type StatusMsg struct {
	Title    string
	State    string
	Progress *float64
	Err      error
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
