package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

var testLogger = *log.New(io.Discard)

// mockTransactor is a mock implementation of transactor.Transactor
type mockTransactor struct {
	withinTransactionFunc func(context.Context, func(context.Context) error) error
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	if m.withinTransactionFunc != nil {
		return m.withinTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

var _ transactor.Transactor = (*mockTransactor)(nil)

// mockTimerRepo keeps a single record in memory.
type mockTimerRepo struct {
	mu      sync.Mutex
	state   *focusmomo.TimerState
	getErr  error
	saveErr error
	saves   int
}

func (m *mockTimerRepo) GetTimerState(context.Context) (focusmomo.TimerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return focusmomo.TimerState{}, m.getErr
	}
	if m.state == nil {
		return focusmomo.TimerState{}, focusmomo.ErrNotFound
	}
	return m.state.Clone(), nil
}

func (m *mockTimerRepo) SaveTimerState(_ context.Context, s focusmomo.TimerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c := s.Clone()
	m.state = &c
	m.saves++
	return nil
}

func (m *mockTimerRepo) stored() *focusmomo.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	c := m.state.Clone()
	return &c
}

type publication struct {
	topic   string
	payload []byte
}

// mockBroadcaster records publications synchronously.
type mockBroadcaster struct {
	mu   sync.Mutex
	pubs []publication
}

func (m *mockBroadcaster) Publish(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.pubs = append(m.pubs, publication{topic: topic, payload: b})
	m.mu.Unlock()
	return nil
}

func (m *mockBroadcaster) Subscribe(string, func([]byte)) func() {
	return func() {}
}

func (m *mockBroadcaster) states(topic string) []focusmomo.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []focusmomo.TimerState
	for _, p := range m.pubs {
		if p.topic != topic {
			continue
		}
		var s focusmomo.TimerState
		if err := json.Unmarshal(p.payload, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

type notification struct {
	title, message string
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []notification
	err   error
	delay time.Duration
}

func (m *mockNotifier) Notify(title, message string) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{title, message})
	return m.err
}

func (m *mockNotifier) notifications() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.sent...)
}

// mockHooks records category hook calls in order.
type mockHooks struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockHooks) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockHooks) FocusStart(context.Context)    { m.record("FocusStart") }
func (m *mockHooks) BreakStart(context.Context)    { m.record("BreakStart") }
func (m *mockHooks) FocusStop(context.Context)     { m.record("FocusStop") }
func (m *mockHooks) BreakComplete(context.Context) { m.record("BreakComplete") }
func (m *mockHooks) SwitchToFocus(context.Context) { m.record("SwitchToFocus") }

func (m *mockHooks) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type ledgerCall struct {
	op        string
	kind      focusmomo.SessionKind
	planned   int
	actualSec *int
}

type mockLedger struct {
	mu    sync.Mutex
	calls []ledgerCall
	err   error
}

func (m *mockLedger) LogSessionStart(_ context.Context, kind focusmomo.SessionKind, plannedSec int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ledgerCall{op: "start", kind: kind, planned: plannedSec})
	return m.err
}

func (m *mockLedger) LogSessionComplete(_ context.Context, kind focusmomo.SessionKind, actualSec *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ledgerCall{op: "complete", kind: kind, actualSec: actualSec})
	return m.err
}

func (m *mockLedger) recorded() []ledgerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledgerCall(nil), m.calls...)
}

// mockCategoryStore fails SetActiveCategory for ids listed in reject.
type mockCategoryStore struct {
	mu     sync.Mutex
	active *focusmomo.CategoryID
	reject map[focusmomo.CategoryID]bool
	sets   []*focusmomo.CategoryID
}

func (m *mockCategoryStore) SetActiveCategory(_ context.Context, id *focusmomo.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, id)
	if id != nil && m.reject[*id] {
		return focusmomo.ErrNotFound
	}
	m.active = id
	return nil
}

func (m *mockCategoryStore) GetActiveCategory(context.Context) (*focusmomo.CategoryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

func (m *mockCategoryStore) current() *focusmomo.CategoryID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func categoryPtr(s string) *focusmomo.CategoryID {
	id := focusmomo.CategoryID(s)
	return &id
}

func intPtr(i int) *int {
	return &i
}

// fixedClock is a settable time source.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
