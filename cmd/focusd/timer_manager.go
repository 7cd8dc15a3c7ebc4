package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/cmd/focusd/models"
)

var watchdogTickRate = time.Second

type categoryHooks interface {
	FocusStart(context.Context)
	BreakStart(context.Context)
	FocusStop(context.Context)
	BreakComplete(context.Context)
	SwitchToFocus(context.Context)
}

type sessionLedger interface {
	LogSessionStart(ctx context.Context, kind focusmomo.SessionKind, plannedSec int) error
	LogSessionComplete(ctx context.Context, kind focusmomo.SessionKind, actualSec *int) error
}

type TimerManager interface {
	Start(ctx context.Context, kind focusmomo.SessionKind, duration, timeLeft int) (focusmomo.TimerState, error)
	Stop(context.Context) (focusmomo.TimerState, error)
	Reset(ctx context.Context, kind *focusmomo.SessionKind) (focusmomo.TimerState, error)
	Complete(ctx context.Context, kind focusmomo.SessionKind, actualSec *int, observedEnd *time.Time) (focusmomo.TimerState, error)
	SwitchSession(ctx context.Context, kind focusmomo.SessionKind, customDuration *int) (focusmomo.TimerState, error)
	State(context.Context) (focusmomo.TimerState, error)

	Shutdown()
}

// timerManager is the single writer of the timer record. Every mutation holds mu for the
// whole read, persist, side effect and broadcast sequence.
type timerManager struct {
	mu             sync.Mutex
	store          *stateStore
	categories     categoryHooks
	ledger         sessionLedger
	notifier       focusmomo.Notifier
	bc             focusmomo.Broadcaster
	catalog        focusmomo.SessionCatalog
	longBreakEvery int
	now            func() time.Time
	l              log.Logger

	wg        sync.WaitGroup
	parentCtx context.Context
	cancel    context.CancelFunc
}

type timerManagerConfig struct {
	Catalog        focusmomo.SessionCatalog
	LongBreakEvery int
	Watchdog       bool
}

func NewTimerManager(
	ctx context.Context,
	store *stateStore,
	categories categoryHooks,
	ledger sessionLedger,
	notifier focusmomo.Notifier,
	bc focusmomo.Broadcaster,
	cfg timerManagerConfig,
	logger log.Logger,
) *timerManager {
	if cfg.Catalog == nil {
		cfg.Catalog = focusmomo.DefaultCatalog()
	}
	ctx, cancel := context.WithCancel(ctx)
	m := &timerManager{
		store:          store,
		categories:     categories,
		ledger:         ledger,
		notifier:       notifier,
		bc:             bc,
		catalog:        cfg.Catalog,
		longBreakEvery: cfg.LongBreakEvery,
		now:            time.Now,
		l:              logger,
		parentCtx:      ctx,
		cancel:         cancel,
	}

	m.restore()
	if cfg.Watchdog {
		m.startWatchdog()
	}
	return m
}

// restore loads the record once and applies the configured non-custom durations.
// A session that expired while the daemon was down is completed by the watchdog.
func (m *timerManager) restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.store.Get(m.parentCtx)
	switch {
	case errors.Is(err, focusmomo.ErrNotFound):
		state = focusmomo.NewTimerState(m.catalog)
	case err != nil:
		m.l.Error("failed to restore timer state", "err", err)
		return
	default:
		state.Sessions = mergeCatalog(state.Sessions, m.catalog)
		if !state.IsRunning {
			if d, ok := state.Sessions.Duration(state.CurrentSession); ok && state.TimeLeft == state.TotalTime {
				state.TotalTime = d
				state.TimeLeft = d
			}
		}
	}

	timer := models.NewTimer(state, m.longBreakEvery)
	restored := m.commit(m.parentCtx, &timer)
	m.l.Info("restored timer state", "session", restored.CurrentSession, "running", restored.IsRunning, "revision", restored.Revision)
}

// mergeCatalog keeps the stored custom entry and takes everything else from configured.
func mergeCatalog(stored, configured focusmomo.SessionCatalog) focusmomo.SessionCatalog {
	merged := configured.Clone()
	if spec, ok := stored[focusmomo.CustomSession]; ok && spec.Duration > 0 {
		if spec.Label == "" {
			spec.Label = merged.Label(focusmomo.CustomSession)
		}
		merged[focusmomo.CustomSession] = spec
	}
	return merged
}

func (m *timerManager) load(ctx context.Context) (models.Timer, error) {
	state, err := m.store.Get(ctx)
	if errors.Is(err, focusmomo.ErrNotFound) {
		state, err = focusmomo.NewTimerState(m.catalog), nil
	}
	if err != nil {
		return models.Timer{}, fmt.Errorf("load timer state: %w", err)
	}
	return models.NewTimer(state, m.longBreakEvery), nil
}

// commit persists the mutation. A failed write is logged and the new state still stands.
func (m *timerManager) commit(ctx context.Context, timer *models.Timer) focusmomo.TimerState {
	timer.Bump()
	state := timer.State()
	if err := m.store.Save(ctx, state); err != nil {
		m.l.Error("failed to persist timer state", "revision", state.Revision, "err", err)
	}
	return state
}

func (m *timerManager) broadcast(state focusmomo.TimerState) {
	if err := m.bc.Publish(focusmomo.TopicTimerState, state); err != nil {
		m.l.Warn("failed to broadcast timer state", "err", err)
	}
}

func (m *timerManager) Start(ctx context.Context, kind focusmomo.SessionKind, duration, timeLeft int) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("start aborted", "err", err)
		return focusmomo.TimerState{}, err
	}
	fresh, err := timer.Start(kind, duration, timeLeft, m.now())
	if err != nil {
		m.l.Warn("rejected start", "session", kind, "err", err)
		return timer.State(), err
	}
	state := m.commit(ctx, &timer)

	if fresh {
		if err := m.ledger.LogSessionStart(ctx, kind, state.TotalTime); err != nil {
			m.l.Error("failed to log session start", "session", kind, "err", err)
		}
	}
	switch {
	case kind == focusmomo.FocusSession:
		m.categories.FocusStart(ctx)
	case kind.IsBreak():
		m.categories.BreakStart(ctx)
	}

	m.broadcast(state)
	m.l.Info("started session", "session", kind, "timeLeft", state.TimeLeft, "fresh", fresh)
	return state, nil
}

func (m *timerManager) Stop(ctx context.Context) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("stop aborted", "err", err)
		return focusmomo.TimerState{}, err
	}
	if !timer.Stop(m.now()) {
		return timer.State(), nil
	}
	state := m.commit(ctx, &timer)
	m.broadcast(state)
	m.l.Info("stopped session", "session", state.CurrentSession, "timeLeft", state.TimeLeft)
	return state, nil
}

func (m *timerManager) Reset(ctx context.Context, kind *focusmomo.SessionKind) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("reset aborted", "err", err)
		return focusmomo.TimerState{}, err
	}
	if err := timer.Reset(kind); err != nil {
		m.l.Warn("rejected reset", "err", err)
		return timer.State(), err
	}
	state := m.commit(ctx, &timer)
	m.broadcast(state)
	return state, nil
}

func (m *timerManager) Complete(ctx context.Context, kind focusmomo.SessionKind, actualSec *int, observedEnd *time.Time) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("complete aborted", "err", err)
		return focusmomo.TimerState{}, err
	}
	if !kind.Valid() {
		return timer.State(), fmt.Errorf("%w: %q", focusmomo.ErrUnknownSession, kind)
	}
	return m.completeLocked(ctx, &timer, kind, actualSec, observedEnd), nil
}

func (m *timerManager) completeLocked(ctx context.Context, timer *models.Timer, kind focusmomo.SessionKind, actualSec *int, observedEnd *time.Time) focusmomo.TimerState {
	tr, ok := timer.Complete(kind, observedEnd)
	if !ok {
		m.l.Debug("ignored stale completion", "session", kind)
		return timer.State()
	}
	state := m.commit(ctx, timer)

	switch {
	case kind == focusmomo.FocusSession:
		m.categories.FocusStop(ctx)
	case kind.IsBreak():
		m.categories.BreakComplete(ctx)
	}
	if err := m.ledger.LogSessionComplete(ctx, kind, actualSec); err != nil {
		m.l.Error("failed to log session complete", "session", kind, "err", err)
	}
	m.notify(transitionTitle(tr, state.Sessions), transitionMessage(tr, state))

	m.broadcast(state)
	m.l.Info("completed session", "session", kind, "next", tr.To, "pomodoros", state.PomodoroCount)
	return state
}

func (m *timerManager) SwitchSession(ctx context.Context, kind focusmomo.SessionKind, customDuration *int) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("switch aborted", "err", err)
		return focusmomo.TimerState{}, err
	}
	if err := timer.Switch(kind, customDuration); err != nil {
		m.l.Warn("rejected switch", "session", kind, "err", err)
		return timer.State(), err
	}
	state := m.commit(ctx, &timer)

	switch {
	case kind == focusmomo.FocusSession:
		m.categories.SwitchToFocus(ctx)
	case kind.IsBreak():
		m.categories.FocusStop(ctx)
	}

	m.broadcast(state)
	m.l.Info("switched session", "session", kind, "timeLeft", state.TimeLeft)
	return state, nil
}

// State never fails: without a readable record it returns the cached or default state.
func (m *timerManager) State(ctx context.Context) (focusmomo.TimerState, error) {
	timer, err := m.load(ctx)
	if err != nil {
		m.l.Warn("serving default timer state", "err", err)
		return focusmomo.NewTimerState(m.catalog), nil
	}
	return timer.State(), nil
}

func (m *timerManager) notify(title, message string) {
	m.wg.Go(func() {
		if err := m.notifier.Notify(title, message); err != nil {
			m.l.Warn("failed to send notification", "title", title, "err", err)
		}
	})
}

// startWatchdog completes the running session once its end passes, so transitions happen
// even with no client alive.
func (m *timerManager) startWatchdog() {
	m.wg.Go(func() {
		ticker := time.NewTicker(watchdogTickRate)
		defer ticker.Stop()
		for {
			m.expire(m.parentCtx)
			select {
			case <-m.parentCtx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}

func (m *timerManager) expire(ctx context.Context) {
	if s, ok := m.store.Cached(); ok && !s.IsRunning {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	timer, err := m.load(ctx)
	if err != nil {
		m.l.Error("watchdog failed to load state", "err", err)
		return
	}
	s := timer.State()
	if !s.IsRunning || s.EndTimestamp == nil || m.now().Before(*s.EndTimestamp) {
		return
	}
	end := *s.EndTimestamp
	m.completeLocked(ctx, &timer, s.CurrentSession, nil, &end)
}

func (m *timerManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

func transitionTitle(tr models.Transition, catalog focusmomo.SessionCatalog) string {
	return catalog.Label(tr.From) + " complete"
}

func transitionMessage(tr models.Transition, state focusmomo.TimerState) string {
	next := state.Sessions.Label(tr.To)
	return fmt.Sprintf("Up next: %s (%s). Pomodoros: %d", next, formatSeconds(state.TimeLeft), state.PomodoroCount)
}

func formatSeconds(secs int) string {
	return (time.Duration(secs) * time.Second).String()
}
