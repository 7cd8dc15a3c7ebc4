// Package projector derives a locally ticking countdown from the shared timer record.
package projector

import (
	"sync"
	"time"

	"github.com/benjamonnguyen/focusmomo"
)

type Display struct {
	Session       focusmomo.SessionKind
	Label         string
	IsRunning     bool
	TimeLeft      int
	TotalTime     int
	SessionCount  int
	PomodoroCount int
}

// ExpireFunc receives the session that ran out and the end timestamp it was counting toward.
type ExpireFunc func(session focusmomo.SessionKind, observedEnd time.Time)

// Projector never writes state. It recomputes the remaining time from the end timestamp on
// every tick and reports expiry once per applied state.
type Projector struct {
	mu        sync.Mutex
	clock     Clock
	onDisplay func(Display)
	onExpire  ExpireFunc

	state   *focusmomo.TimerState
	timer   Timer
	gen     uint64
	expired bool
	closed  bool
}

func New(clock Clock, onDisplay func(Display), onExpire ExpireFunc) *Projector {
	if clock == nil {
		clock = SystemClock()
	}
	if onDisplay == nil {
		onDisplay = func(Display) {}
	}
	if onExpire == nil {
		onExpire = func(focusmomo.SessionKind, time.Time) {}
	}
	return &Projector{
		clock:     clock,
		onDisplay: onDisplay,
		onExpire:  onExpire,
	}
}

type frame struct {
	display Display
	expire  bool
	session focusmomo.SessionKind
	end     time.Time
}

// Apply replaces the projected state. States with a revision at or below the last applied
// one are dropped and Apply returns false.
func (p *Projector) Apply(s focusmomo.TimerState) bool {
	p.mu.Lock()
	if p.closed || (p.state != nil && s.Revision <= p.state.Revision) {
		p.mu.Unlock()
		return false
	}
	p.stopTimerLocked()
	p.gen++
	state := s.Clone()
	p.state = &state
	p.expired = false
	f := p.projectLocked(p.gen)
	p.mu.Unlock()

	p.emit(f)
	return true
}

// Current returns the last emitted display.
func (p *Projector) Current() (Display, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return Display{}, false
	}
	d := baseDisplay(*p.state)
	if p.state.IsRunning && p.state.EndTimestamp != nil {
		d.TimeLeft = max(0, focusmomo.CeilSeconds(p.state.EndTimestamp.Sub(p.clock.Now())))
	}
	return d, true
}

func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.gen++
	p.stopTimerLocked()
}

func (p *Projector) tick(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	f := p.projectLocked(gen)
	p.mu.Unlock()

	p.emit(f)
}

func (p *Projector) projectLocked(gen uint64) frame {
	s := *p.state
	f := frame{display: baseDisplay(s)}
	if !s.IsRunning || s.EndTimestamp == nil {
		return f
	}

	remaining := s.EndTimestamp.Sub(p.clock.Now())
	f.display.TimeLeft = max(0, focusmomo.CeilSeconds(remaining))
	if remaining <= 0 {
		if !p.expired {
			p.expired = true
			f.expire = true
			f.session = s.CurrentSession
			f.end = *s.EndTimestamp
		}
		return f
	}

	delay := remaining % time.Second
	if delay == 0 {
		delay = time.Second
	}
	p.timer = p.clock.AfterFunc(delay, func() { p.tick(gen) })
	return f
}

func (p *Projector) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Projector) emit(f frame) {
	p.onDisplay(f.display)
	if f.expire {
		p.onExpire(f.session, f.end)
	}
}

func baseDisplay(s focusmomo.TimerState) Display {
	return Display{
		Session:       s.CurrentSession,
		Label:         s.Sessions.Label(s.CurrentSession),
		IsRunning:     s.IsRunning,
		TimeLeft:      s.TimeLeft,
		TotalTime:     s.TotalTime,
		SessionCount:  s.SessionCount,
		PomodoroCount: s.PomodoroCount,
	}
}
