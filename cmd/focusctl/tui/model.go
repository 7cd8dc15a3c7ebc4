// Package tui is the live countdown view of focusctl watch.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/projector"
)

type Requester interface {
	Do(ctx context.Context, req focusmomo.Request) (focusmomo.Response, error)
}

// DisplayMsg carries a projector frame into the program.
type DisplayMsg projector.Display

// ErrMsg reports a failure that happened outside the program, such as a rejected completion.
type ErrMsg struct{ Err error }

type resultMsg struct {
	action focusmomo.Action
	err    error
}

type Model struct {
	client  Requester
	timeout time.Duration

	display projector.Display
	ready   bool
	status  string
	isError bool

	width    int
	showHelp bool
	help     help.Model
	bar      progress.Model
}

func New(client Requester, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return Model{
		client:  client,
		timeout: timeout,
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-12, 10), 60)
		return m, nil

	case DisplayMsg:
		m.display = projector.Display(msg)
		m.ready = true
		return m, nil

	case resultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.isError = true
		} else {
			m.status = ""
			m.isError = false
		}
		return m, nil

	case ErrMsg:
		m.status = msg.Err.Error()
		m.isError = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		}
		if !m.ready {
			return m, nil
		}
		if req := m.requestFor(msg); req != nil {
			return m, m.send(req)
		}
	}
	return m, nil
}

func (m Model) requestFor(msg tea.KeyMsg) focusmomo.Request {
	d := m.display
	switch {
	case key.Matches(msg, keys.Toggle):
		if d.IsRunning {
			return focusmomo.TimerStopped{}
		}
		return focusmomo.TimerStarted{Session: d.Session, Duration: d.TotalTime, TimeLeft: d.TimeLeft}
	case key.Matches(msg, keys.Skip):
		return focusmomo.TimerComplete{Session: d.Session}
	case key.Matches(msg, keys.Reset):
		return focusmomo.TimerReset{}
	case key.Matches(msg, keys.Focus):
		return focusmomo.SwitchSession{Session: focusmomo.FocusSession}
	case key.Matches(msg, keys.Short):
		return focusmomo.SwitchSession{Session: focusmomo.ShortBreakSession}
	case key.Matches(msg, keys.Long):
		return focusmomo.SwitchSession{Session: focusmomo.LongBreakSession}
	}
	return nil
}

// send issues req off the update loop. The new state arrives as a broadcast, so only the
// error is kept.
func (m Model) send(req focusmomo.Request) tea.Cmd {
	client, timeout := m.client, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := client.Do(ctx, req)
		return resultMsg{action: req.Action(), err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return mutedStyle.Render("Waiting for focusd…") + "\n"
	}
	d := m.display
	color := sessionColor(d.Session)

	title := titleStyle.Render("focusmomo")
	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(d.Label)
	clock := clockStyle.Foreground(color).Render(FormatClock(d.TimeLeft))

	state := mutedStyle.Render("paused")
	if d.IsRunning {
		state = lipgloss.NewStyle().Foreground(color).Render("running")
	}

	var elapsed float64
	if d.TotalTime > 0 {
		elapsed = 1 - float64(d.TimeLeft)/float64(d.TotalTime)
	}
	counts := mutedStyle.Render(fmt.Sprintf("Pomodoros: %d  Sessions: %d", d.PomodoroCount, d.SessionCount))

	body := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", label, "  ", state),
		clock,
		m.bar.ViewAs(min(max(elapsed, 0), 1)),
		"",
		counts,
	)

	status := ""
	if m.status != "" {
		status = m.status
		if m.isError {
			status = errorStyle.Render(status)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, panelStyle.Render(body), status, m.help.View(keys)) + "\n"
}
