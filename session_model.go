package focusmomo

import (
	"fmt"
	"maps"
	"time"
)

type SessionKind string

const (
	FocusSession      SessionKind = "focus"
	ShortBreakSession SessionKind = "short-break"
	LongBreakSession  SessionKind = "long-break"
	CustomSession     SessionKind = "custom"
)

// DefaultLongBreakEvery is the number of completed focus sessions between long breaks.
const DefaultLongBreakEvery = 4

func ParseSessionKind(s string) (SessionKind, error) {
	k := SessionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSession, s)
	}
	return k, nil
}

func (k SessionKind) Valid() bool {
	switch k {
	case FocusSession, ShortBreakSession, LongBreakSession, CustomSession:
		return true
	default:
		return false
	}
}

func (k SessionKind) IsBreak() bool {
	return k == ShortBreakSession || k == LongBreakSession
}

// CountsAsFocus reports whether sessions of this kind accrue focus time in analytics.
func (k SessionKind) CountsAsFocus() bool {
	return k == FocusSession || k == CustomSession
}

func (k SessionKind) String() string {
	return string(k)
}

type SessionSpec struct {
	Duration int    `json:"duration"` // seconds
	Label    string `json:"label"`
}

type SessionCatalog map[SessionKind]SessionSpec

func DefaultCatalog() SessionCatalog {
	return SessionCatalog{
		FocusSession:      {Duration: 25 * 60, Label: "Focus"},
		ShortBreakSession: {Duration: 5 * 60, Label: "Short Break"},
		LongBreakSession:  {Duration: 15 * 60, Label: "Long Break"},
		CustomSession:     {Duration: 10 * 60, Label: "Custom"},
	}
}

func (c SessionCatalog) Clone() SessionCatalog {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Duration returns the catalog duration in seconds for kind.
func (c SessionCatalog) Duration(kind SessionKind) (int, bool) {
	spec, ok := c[kind]
	if !ok {
		return 0, false
	}
	return spec.Duration, true
}

func (c SessionCatalog) Label(kind SessionKind) string {
	if spec, ok := c[kind]; ok && spec.Label != "" {
		return spec.Label
	}
	return string(kind)
}

// TimerState is the canonical timer record. When IsRunning is true EndTimestamp is
// authoritative, otherwise TimeLeft is.
type TimerState struct {
	IsRunning      bool           `json:"isRunning"`
	CurrentSession SessionKind    `json:"currentSession"`
	TotalTime      int            `json:"totalTime"`
	TimeLeft       int            `json:"timeLeft"`
	StartTimestamp *time.Time     `json:"startTimestamp"`
	EndTimestamp   *time.Time     `json:"endTimestamp"`
	SessionCount   int            `json:"sessionCount"`
	PomodoroCount  int            `json:"pomodoroCount"`
	Sessions       SessionCatalog `json:"sessions"`
	Revision       int64          `json:"revision"`
}

// NewTimerState returns an idle focus session using catalog durations.
func NewTimerState(catalog SessionCatalog) TimerState {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	d, _ := catalog.Duration(FocusSession)
	return TimerState{
		CurrentSession: FocusSession,
		TotalTime:      d,
		TimeLeft:       d,
		Sessions:       catalog.Clone(),
	}
}

func (s TimerState) Clone() TimerState {
	c := s
	c.Sessions = s.Sessions.Clone()
	if s.StartTimestamp != nil {
		t := *s.StartTimestamp
		c.StartTimestamp = &t
	}
	if s.EndTimestamp != nil {
		t := *s.EndTimestamp
		c.EndTimestamp = &t
	}
	return c
}

// RemainingSeconds derives the seconds left at now.
func (s TimerState) RemainingSeconds(now time.Time) int {
	if s.IsRunning && s.EndTimestamp != nil {
		return max(0, CeilSeconds(s.EndTimestamp.Sub(now)))
	}
	return s.TimeLeft
}

// IsFresh reports whether starting from s begins a new session rather than resuming a paused one.
// A resume that lands exactly on TotalTime is indistinguishable and counts as fresh.
func (s TimerState) IsFresh() bool {
	return !s.IsRunning && s.TimeLeft == s.TotalTime
}

func (s TimerState) Validate() error {
	if _, ok := s.Sessions[s.CurrentSession]; !ok {
		return fmt.Errorf("current session %q missing from catalog", s.CurrentSession)
	}
	if s.IsRunning {
		if s.StartTimestamp == nil || s.EndTimestamp == nil {
			return fmt.Errorf("running timer requires start and end timestamps")
		}
		if s.EndTimestamp.Before(*s.StartTimestamp) {
			return fmt.Errorf("end timestamp %s before start %s", s.EndTimestamp, s.StartTimestamp)
		}
	}
	if s.TimeLeft < 0 || s.TotalTime < 0 {
		return fmt.Errorf("negative durations: timeLeft=%d totalTime=%d", s.TimeLeft, s.TotalTime)
	}
	return nil
}

// CeilSeconds rounds d up to whole seconds.
func CeilSeconds(d time.Duration) int {
	secs := d / time.Second
	if d%time.Second > 0 {
		secs++
	}
	return int(secs)
}

// RoundSeconds rounds d to the nearest whole second.
func RoundSeconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
