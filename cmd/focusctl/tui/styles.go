package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/focusmomo"
)

var (
	colorFocus = lipgloss.Color("#FF6B6B")
	colorBreak = lipgloss.Color("#2EC4B6")
	colorMuted = lipgloss.Color("#666666")
	colorError = lipgloss.Color("#E74C3C")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0CAF5"))
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 4)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	statusStyle = lipgloss.NewStyle().Bold(true)
)

func sessionColor(kind focusmomo.SessionKind) lipgloss.Color {
	if kind.IsBreak() {
		return colorBreak
	}
	return colorFocus
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour up.
func FormatClock(secs int) string {
	secs = max(0, secs)
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// RenderStatus is the one-line summary printed by the non-interactive commands.
func RenderStatus(s focusmomo.TimerState, now time.Time) string {
	state := "paused"
	if s.IsRunning {
		state = "running"
	}
	label := statusStyle.Foreground(sessionColor(s.CurrentSession)).Render(s.Sessions.Label(s.CurrentSession))
	parts := []string{
		label,
		FormatClock(s.RemainingSeconds(now)),
		state,
		mutedStyle.Render(fmt.Sprintf("pomodoros %d · sessions %d", s.PomodoroCount, s.SessionCount)),
	}
	return strings.Join(parts, "  ")
}
