package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/projector"
)

type fakeRequester struct {
	mu   sync.Mutex
	reqs []focusmomo.Request
	err  error
}

func (f *fakeRequester) Do(_ context.Context, req focusmomo.Request) (focusmomo.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return focusmomo.Response{Error: f.err.Error()}, f.err
	}
	return focusmomo.Response{OK: true}, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func readyModel(t *testing.T, client Requester, d projector.Display) Model {
	t.Helper()
	m, _ := update(t, New(client, time.Second), tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, DisplayMsg(d))
	return m
}

var pausedFocus = projector.Display{
	Session:       focusmomo.FocusSession,
	Label:         "Focus",
	TimeLeft:      1450,
	TotalTime:     1500,
	PomodoroCount: 2,
	SessionCount:  3,
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00"},
		{-5, "00:00"},
		{59, "00:59"},
		{1500, "25:00"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.secs), "secs=%d", tt.secs)
	}
}

func TestRenderStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := now.Add(90 * time.Second)
	s := focusmomo.NewTimerState(nil)
	s.IsRunning = true
	s.StartTimestamp = &now
	s.EndTimestamp = &end
	s.PomodoroCount = 1

	out := RenderStatus(s, now)
	assert.Contains(t, out, "Focus")
	assert.Contains(t, out, "01:30")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "pomodoros 1")
}

func TestModel_WaitsForFirstDisplay(t *testing.T) {
	client := &fakeRequester{}
	m := New(client, time.Second)

	assert.Contains(t, m.View(), "Waiting for focusd")
	_, cmd := update(t, m, runes("p"))
	assert.Nil(t, cmd)
	assert.Empty(t, client.reqs)
}

func TestModel_View(t *testing.T) {
	m := readyModel(t, &fakeRequester{}, pausedFocus)

	v := m.View()
	assert.Contains(t, v, "Focus")
	assert.Contains(t, v, "24:10")
	assert.Contains(t, v, "paused")
	assert.Contains(t, v, "Pomodoros: 2")
}

func TestModel_KeyRequests(t *testing.T) {
	running := pausedFocus
	running.IsRunning = true

	tests := []struct {
		name    string
		display projector.Display
		key     string
		want    focusmomo.Request
	}{
		{"resume", pausedFocus, "p", focusmomo.TimerStarted{Session: focusmomo.FocusSession, Duration: 1500, TimeLeft: 1450}},
		{"stop", running, "p", focusmomo.TimerStopped{}},
		{"skip", running, "n", focusmomo.TimerComplete{Session: focusmomo.FocusSession}},
		{"reset", running, "r", focusmomo.TimerReset{}},
		{"short break", pausedFocus, "b", focusmomo.SwitchSession{Session: focusmomo.ShortBreakSession}},
		{"long break", pausedFocus, "l", focusmomo.SwitchSession{Session: focusmomo.LongBreakSession}},
		{"focus", pausedFocus, "f", focusmomo.SwitchSession{Session: focusmomo.FocusSession}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeRequester{}
			m := readyModel(t, client, tt.display)

			_, cmd := update(t, m, runes(tt.key))
			require.NotNil(t, cmd)
			msg := cmd()

			require.Len(t, client.reqs, 1)
			assert.Equal(t, tt.want, client.reqs[0])
			res, ok := msg.(resultMsg)
			require.True(t, ok)
			assert.NoError(t, res.err)
		})
	}
}

func TestModel_RequestError(t *testing.T) {
	client := &fakeRequester{err: errors.New("unknown session kind")}
	m := readyModel(t, client, pausedFocus)

	_, cmd := update(t, m, runes("n"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.isError)
	assert.Contains(t, m.View(), "timerComplete failed: unknown session kind")

	m, _ = update(t, m, resultMsg{action: focusmomo.ActionTimerStopped})
	assert.False(t, m.isError)
	assert.Empty(t, m.status)
}

func TestModel_ErrMsg(t *testing.T) {
	m := readyModel(t, &fakeRequester{}, pausedFocus)
	m, _ = update(t, m, ErrMsg{Err: errors.New("bus gone")})
	assert.Contains(t, m.View(), "bus gone")
}

func TestModel_Quit(t *testing.T) {
	m := readyModel(t, &fakeRequester{}, pausedFocus)
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ToggleHelp(t *testing.T) {
	m := readyModel(t, &fakeRequester{}, pausedFocus)
	m, _ = update(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "long break")
}
