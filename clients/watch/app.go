package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/reflex/clients/api"
	"github.com/dohr-michael/reflex/internal/behavior"
)

const (
	maxFeed         = 64
	refreshInterval = 2 * time.Second
	snapshotTimeout = 5 * time.Second
)

// feedEntry is one rendered line of the event feed.
type feedEntry struct {
	at   time.Time
	line string
}

// Model is the dashboard: mode table, live event feed, status bar.
type Model struct {
	api  *api.Client
	spin spinner.Model

	width  int
	height int

	connected bool
	connErr   error
	health    api.Health
	modes     []behavior.ModeStatus
	feed      []feedEntry
	err       error
	quitting  bool
}

// NewModel creates the dashboard model.
func NewModel(client *api.Client) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ActiveStyle
	return Model{
		api:  client,
		spin: s,
	}
}

// Init starts the spinner, the first snapshot fetch and the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, fetchSnapshot(m.api), scheduleRefresh())
}

// Update processes all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchSnapshot(m.api)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshTickMsg:
		return m, tea.Batch(fetchSnapshot(m.api), scheduleRefresh())

	case snapshotMsg:
		m.health = msg.health
		m.modes = msg.modes
		m.err = nil
		return m, nil

	case snapshotErrMsg:
		m.err = msg.err
		return m, nil

	case ConnectedMsg:
		m.connected = true
		m.connErr = nil
		return m.push(MutedStyle.Render("stream connected")), nil

	case DisconnectedMsg:
		m.connected = false
		m.connErr = msg.Err
		return m.push(ErrorStyle.Render(fmt.Sprintf("stream lost: %v", msg.Err))), nil

	case ModeActivatedMsg:
		for i := range m.modes {
			m.modes[i].Active = m.modes[i].Name == msg.Mode
		}
		m.health.ActiveMode = msg.Mode
		line := ActiveStyle.Render("▶ " + msg.Mode)
		if msg.Trigger != "" {
			line += " " + MutedStyle.Render(msg.Trigger)
		}
		return m.push(line), nil

	case ModeCompletedMsg:
		for i := range m.modes {
			if m.modes[i].Name == msg.Mode {
				m.modes[i].Active = false
			}
		}
		if m.health.ActiveMode == msg.Mode {
			m.health.ActiveMode = ""
		}
		return m.push(completedLine(msg)), nil

	case ModeEnabledMsg:
		m.setEnabled(msg.Mode, true)
		return m.push(EnabledStyle.Render("+ " + msg.Mode + " enabled")), nil

	case ModeDisabledMsg:
		m.setEnabled(msg.Mode, false)
		return m.push(MutedStyle.Render("- " + msg.Mode + " disabled")), nil

	case ModePausedMsg:
		m.setPaused(msg.Mode, true)
		return m.push(PausedStyle.Render("‖ " + msg.Mode + " paused")), nil

	case ModeUnpausedMsg:
		m.setPaused(msg.Mode, false)
		return m.push(EnabledStyle.Render("» " + msg.Mode + " unpaused")), nil

	case TaskStartedMsg:
		line := PausedStyle.Render("task " + msg.Name + " started")
		if msg.Duration > 0 {
			line += " " + MutedStyle.Render(msg.Duration.String())
		}
		return m.push(line), nil

	case TaskFinishedMsg:
		return m.push(MutedStyle.Render("task " + msg.Name + " finished")), nil
	}

	return m, nil
}

// View renders the dashboard: header, mode table, event feed, status bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := TitleStyle.Render("reflex") + MutedStyle.Render(" · behavior watch")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.viewModes(),
		"",
		m.viewFeed(),
		m.viewStatus(),
	)
}

func (m Model) viewModes() string {
	var b strings.Builder
	b.WriteString(MutedStyle.Render("MODES"))
	if len(m.modes) == 0 {
		b.WriteString("\n  " + MutedStyle.Render("waiting for gateway..."))
		return b.String()
	}

	descWidth := m.width - 32
	for _, mode := range m.modes {
		b.WriteString("\n")
		switch {
		case mode.Active:
			b.WriteString("  " + m.spin.View() + ActiveStyle.Render(fmt.Sprintf("%-20s", mode.Name)))
			b.WriteString(ActiveStyle.Render("active  "))
		case mode.Paused:
			b.WriteString("    " + PausedStyle.Render(fmt.Sprintf("%-20s", mode.Name)))
			b.WriteString(PausedStyle.Render("paused  "))
		case mode.Enabled:
			b.WriteString("    " + EnabledStyle.Render(fmt.Sprintf("%-20s", mode.Name)))
			b.WriteString(EnabledStyle.Render("on      "))
		default:
			b.WriteString("    " + MutedStyle.Render(fmt.Sprintf("%-20s", mode.Name)))
			b.WriteString(MutedStyle.Render("off     "))
		}
		b.WriteString(MutedStyle.Render(truncate(mode.Description, descWidth)))
	}
	return b.String()
}

func (m Model) viewFeed() string {
	var b strings.Builder
	b.WriteString(MutedStyle.Render("EVENTS"))

	rows := m.feedRows()
	start := 0
	if len(m.feed) > rows {
		start = len(m.feed) - rows
	}
	for _, e := range m.feed[start:] {
		b.WriteString("\n  " + MutedStyle.Render(e.at.Format("15:04:05")) + " " + e.line)
	}
	return b.String()
}

// feedRows returns how many feed lines fit below the mode table.
func (m Model) feedRows() int {
	used := 2 + 1 + len(m.modes) + 1 + 1 + 1
	rows := m.height - used - 1
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m Model) viewStatus() string {
	parts := []string{
		fmt.Sprintf("ticks %d", m.health.Ticks),
	}
	if m.health.ActiveMode != "" {
		parts = append(parts, "active "+m.health.ActiveMode)
	}
	if m.health.Task != "" {
		parts = append(parts, "task "+m.health.Task)
	}
	if m.connected {
		parts = append(parts, "stream connected")
	} else {
		parts = append(parts, "stream down")
	}
	if m.err != nil {
		parts = append(parts, fmt.Sprintf("api error: %v", m.err))
	}
	parts = append(parts, "q quit")

	bar := strings.Join(parts, " · ")
	if m.width > 0 {
		return StatusBarStyle.Width(m.width).Render(bar)
	}
	return StatusBarStyle.Render(bar)
}

// push appends a feed line, trimming the ring to maxFeed entries.
func (m Model) push(line string) Model {
	m.feed = append(m.feed, feedEntry{at: time.Now(), line: line})
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
	return m
}

func (m Model) setEnabled(name string, enabled bool) {
	for i := range m.modes {
		if m.modes[i].Name == name {
			m.modes[i].Enabled = enabled
		}
	}
}

func (m Model) setPaused(name string, paused bool) {
	for i := range m.modes {
		if m.modes[i].Name == name {
			m.modes[i].Paused = paused
		}
	}
}

func completedLine(msg ModeCompletedMsg) string {
	d := msg.Duration.Truncate(time.Millisecond)
	switch msg.Status {
	case "success":
		return ActiveStyle.Render("✓ "+msg.Mode) + " " + MutedStyle.Render(d.String())
	case "timeout":
		return PausedStyle.Render("⏱ "+msg.Mode+" timeout") + " " + MutedStyle.Render(d.String())
	default:
		line := ErrorStyle.Render("✗ " + msg.Mode + " " + msg.Status)
		if msg.Message != "" {
			line += " " + MutedStyle.Render(msg.Message)
		}
		return line
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func fetchSnapshot(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		health, err := c.Health(ctx)
		if err != nil {
			return snapshotErrMsg{err: err}
		}
		modes, err := c.Modes(ctx)
		if err != nil {
			return snapshotErrMsg{err: err}
		}
		return snapshotMsg{health: health, modes: modes}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}
