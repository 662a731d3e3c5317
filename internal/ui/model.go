// ABOUTME: Bubbletea model for the relay TUI
// ABOUTME: Defines conversation state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

const maxTranscriptLines = 8

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Stream format
	sampleRate int
	channels   int
	bitDepth   int

	// Conversation
	transcript []string
	listening  bool

	// Playback
	volume int
	muted  bool

	// Stats
	enqueued   int64
	played     int64
	skipped    int64
	queueDepth int64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	volumeCtrl *VolumeControl
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
	case TranscriptMsg:
		m.appendTranscript(msg)
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
	s += m.renderTranscript()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders connection status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}

	micIcon := " "
	if m.listening {
		micIcon = "●"
	}

	return fmt.Sprintf(`┌─ Voice Relay ────────────────────────────────────────┐
│ Status: %-45s │
│ Mic:    %s %-42s │
├──────────────────────────────────────────────────────┤
`, connStatus, micIcon, listeningText(m.listening))
}

// renderTranscript renders the latest conversation lines
func (m Model) renderTranscript() string {
	if !m.connected {
		return "│ No conversation                                      │\n"
	}
	if len(m.transcript) == 0 {
		return "│ Waiting for the agent...                             │\n"
	}

	s := ""
	for _, line := range m.transcript {
		s += fmt.Sprintf("│ %-52s │\n", truncate(line, 52))
	}
	return s
}

// renderControls renders volume and format status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	format := "unknown"
	if m.sampleRate > 0 {
		format = fmt.Sprintf("%dHz %s %d-bit", m.sampleRate, channelName(m.channels), m.bitDepth)
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n"+
		"│ Format: %-44s │\n",
		volumeBar, m.volume, muteIcon, "",
		format)
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Chunks: RX: %d  Played: %d  Skipped: %d  Queue: %d%-4s │
│                                                      │
`, m.enqueued, m.played, m.skipped, m.queueDepth, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Queue depth: %d                                    │
│   Window: %dx%d                                      │
`, m.queueDepth, m.width, m.height)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.notifyVolume()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.notifyVolume()
	case "m":
		m.muted = !m.muted
		m.notifyVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) notifyVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Listening != nil {
		m.listening = *msg.Listening
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Enqueued != 0 || msg.Played != 0 || msg.Skipped != 0 || msg.QueueDepth != 0 {
		m.enqueued = msg.Enqueued
		m.played = msg.Played
		m.skipped = msg.Skipped
		m.queueDepth = msg.QueueDepth
	}
}

// appendTranscript adds a conversation line, keeping the newest lines
func (m *Model) appendTranscript(msg TranscriptMsg) {
	line := fmt.Sprintf("%s: %s", msg.Speaker, msg.Text)
	m.transcript = append(m.transcript, line)
	if len(m.transcript) > maxTranscriptLines {
		m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Listening  *bool
	SampleRate int
	Channels   int
	BitDepth   int
	Enqueued   int64
	Played     int64
	Skipped    int64
	QueueDepth int64
}

// TranscriptMsg adds one line of conversation
type TranscriptMsg struct {
	Speaker string // "You" or the agent's name
	Text    string
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

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}

func listeningText(listening bool) string {
	if listening {
		return "Listening"
	}
	return "Idle"
}
