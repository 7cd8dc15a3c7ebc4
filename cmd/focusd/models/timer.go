// Package models helps control timer state access and mutation
package models

import (
	"fmt"
	"time"

	"github.com/benjamonnguyen/focusmomo"
)

type Timer struct {
	state          focusmomo.TimerState
	longBreakEvery int
}

// Transition describes a completed session.
type Transition struct {
	From       focusmomo.SessionKind
	To         focusmomo.SessionKind
	StartedAt  *time.Time
	PlannedSec int
}

func NewTimer(state focusmomo.TimerState, longBreakEvery int) Timer {
	if longBreakEvery <= 0 {
		longBreakEvery = focusmomo.DefaultLongBreakEvery
	}
	if state.Sessions == nil {
		state.Sessions = focusmomo.DefaultCatalog()
	}
	return Timer{
		state:          state.Clone(),
		longBreakEvery: longBreakEvery,
	}
}

func (t Timer) State() focusmomo.TimerState {
	return t.state.Clone()
}

// NextSession returns the session that follows a completed one. pomodoroCount already
// includes the completed session.
func NextSession(completed focusmomo.SessionKind, pomodoroCount, longBreakEvery int) focusmomo.SessionKind {
	if longBreakEvery <= 0 {
		longBreakEvery = focusmomo.DefaultLongBreakEvery
	}
	switch completed {
	case focusmomo.FocusSession:
		if pomodoroCount > 0 && pomodoroCount%longBreakEvery == 0 {
			return focusmomo.LongBreakSession
		}
		return focusmomo.ShortBreakSession
	case focusmomo.CustomSession:
		return focusmomo.CustomSession
	default:
		return focusmomo.FocusSession
	}
}

func (t *Timer) duration(kind focusmomo.SessionKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", focusmomo.ErrUnknownSession, kind)
	}
	d, ok := t.state.Sessions.Duration(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %q not in catalog", focusmomo.ErrUnknownSession, kind)
	}
	return d, nil
}

// Start runs session for timeLeft seconds. It reports whether this begins a new session
// rather than resuming a paused one.
func (t *Timer) Start(kind focusmomo.SessionKind, duration, timeLeft int, now time.Time) (fresh bool, err error) {
	catalogDuration, err := t.duration(kind)
	if err != nil {
		return false, err
	}
	if duration <= 0 {
		duration = catalogDuration
	}
	if timeLeft <= 0 {
		timeLeft = duration
	}

	fresh = t.state.IsFresh()
	end := now.Add(time.Duration(timeLeft) * time.Second)
	t.state.IsRunning = true
	t.state.CurrentSession = kind
	t.state.TotalTime = duration
	t.state.TimeLeft = timeLeft
	t.state.StartTimestamp = &now
	t.state.EndTimestamp = &end
	return fresh, nil
}

// Stop pauses a running timer and reports whether anything changed.
func (t *Timer) Stop(now time.Time) bool {
	if !t.state.IsRunning {
		return false
	}
	t.state.TimeLeft = t.state.RemainingSeconds(now)
	t.halt()
	return true
}

func (t *Timer) halt() {
	t.state.IsRunning = false
	t.state.StartTimestamp = nil
	t.state.EndTimestamp = nil
}

// Reset stops the timer and restores the full duration of kind, or of the current session
// when kind is nil. Counts are untouched.
func (t *Timer) Reset(kind *focusmomo.SessionKind) error {
	target := t.state.CurrentSession
	if kind != nil {
		target = *kind
	}
	d, err := t.duration(target)
	if err != nil {
		return err
	}
	t.halt()
	t.state.CurrentSession = target
	t.state.TotalTime = d
	t.state.TimeLeft = d
	return nil
}

// Complete finishes kind and moves to the next session. It is a no-op when kind is no
// longer current, or when observedEnd is given and does not match the running end timestamp.
func (t *Timer) Complete(kind focusmomo.SessionKind, observedEnd *time.Time) (Transition, bool) {
	if kind != t.state.CurrentSession {
		return Transition{}, false
	}
	if observedEnd != nil {
		end := t.state.EndTimestamp
		if !t.state.IsRunning || end == nil || end.UnixMilli() != observedEnd.UnixMilli() {
			return Transition{}, false
		}
	}

	tr := Transition{
		From:       kind,
		PlannedSec: t.state.TotalTime,
	}
	if t.state.StartTimestamp != nil {
		start := *t.state.StartTimestamp
		tr.StartedAt = &start
	}

	t.halt()
	t.state.TimeLeft = 0
	if kind == focusmomo.FocusSession {
		t.state.PomodoroCount++
	}
	t.state.SessionCount++

	tr.To = NextSession(kind, t.state.PomodoroCount, t.longBreakEvery)
	d, ok := t.state.Sessions.Duration(tr.To)
	if !ok {
		d = focusmomo.DefaultCatalog()[tr.To].Duration
	}
	t.state.CurrentSession = tr.To
	t.state.TotalTime = d
	t.state.TimeLeft = d
	return tr, true
}

// Switch stops the timer and makes kind current. A positive customDuration for the custom
// session is written into the catalog.
func (t *Timer) Switch(kind focusmomo.SessionKind, customDuration *int) error {
	if _, err := t.duration(kind); err != nil {
		return err
	}
	if kind == focusmomo.CustomSession && customDuration != nil && *customDuration > 0 {
		spec := t.state.Sessions[focusmomo.CustomSession]
		spec.Duration = *customDuration
		t.state.Sessions[focusmomo.CustomSession] = spec
	}
	d, _ := t.state.Sessions.Duration(kind)
	t.halt()
	t.state.CurrentSession = kind
	t.state.TotalTime = d
	t.state.TimeLeft = d
	return nil
}

// Bump marks a mutation.
func (t *Timer) Bump() {
	t.state.Revision++
}
