package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"urchin/internal/player"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("135"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	liveStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("135")).
			Padding(0, 1)
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("urchin"))
	b.WriteString("\n\n")

	switch m.phase {
	case phasePrompt:
		b.WriteString(m.promptView())
	case phaseWatching:
		b.WriteString(m.watchView())
	}

	return b.String()
}

func (m *Model) promptView() string {
	var b strings.Builder
	b.WriteString("Watch a channel:\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.inputErr != nil {
		b.WriteString(errorStyle.Render(m.inputErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter watch • q quit"))
	return b.String()
}

func (m *Model) watchView() string {
	var b strings.Builder

	switch m.ctrl.State() {
	case player.Loading:
		b.WriteString(m.spin.View())
		b.WriteString(" Loading ")
		b.WriteString(m.contentLabel())
		b.WriteString("…\n\n")
		b.WriteString(dimStyle.Render("q quit"))

	case player.Errored:
		b.WriteString(errorStyle.Render("Playback failed"))
		b.WriteString("\n")
		if err := m.ctrl.Err(); err != nil {
			b.WriteString(dimStyle.Render(err.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("c switch channel • q quit"))

	case player.Ready:
		b.WriteString(m.statusLine())
		b.WriteString("\n")
		// The control bar renders only while the player is ready and
		// the overlay has recent activity to show for.
		if m.ovl.Visible() {
			b.WriteString("\n")
			b.WriteString(overlayStyle.Render(m.controlBar()))
		} else {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("press any key for controls"))
		}
	}

	return b.String()
}

func (m *Model) contentLabel() string {
	if m.channel != "" {
		return m.channel
	}
	return "stream"
}

func (m *Model) statusLine() string {
	var parts []string

	if ch := m.ctrl.Channel(); ch != "" {
		parts = append(parts, liveStyle.Render("● "+ch))
	} else {
		parts = append(parts, m.contentLabel())
	}

	if m.ctrl.IsPaused() {
		parts = append(parts, "⏸ paused")
	} else {
		parts = append(parts, "▶ playing")
	}

	if d := m.ctrl.Duration(); d > 0 {
		parts = append(parts, fmt.Sprintf("%s / %s",
			formatTime(m.ctrl.CurrentTime()), formatTime(d)))
	} else {
		parts = append(parts, formatTime(m.ctrl.CurrentTime()))
	}

	if m.ctrl.Muted() {
		parts = append(parts, "🔇")
	} else {
		parts = append(parts, fmt.Sprintf("vol %d%%", int(m.ctrl.Volume()*100+0.5)))
	}

	return strings.Join(parts, dimStyle.Render("  │  "))
}

func (m *Model) controlBar() string {
	hints := []string{
		"space play/pause",
		"←/→ seek",
		"↑/↓ volume",
		"m mute",
		"c channel",
		"q quit",
	}
	return strings.Join(hints, dimStyle.Render(" • "))
}

// formatTime renders seconds as m:ss or h:mm:ss.
func formatTime(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	mi := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mi, s)
	}
	return fmt.Sprintf("%d:%02d", mi, s)
}
