package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/cmd/focusd/models"
)

type timerFixture struct {
	m        *timerManager
	repo     *mockTimerRepo
	bc       *mockBroadcaster
	hooks    *mockHooks
	ledger   *mockLedger
	notifier *mockNotifier
	clock    *fixedClock
}

func newTimerFixture(t *testing.T, repo *mockTimerRepo) *timerFixture {
	t.Helper()
	if repo == nil {
		repo = &mockTimerRepo{}
	}
	f := &timerFixture{
		repo:     repo,
		bc:       &mockBroadcaster{},
		hooks:    &mockHooks{},
		ledger:   &mockLedger{},
		notifier: &mockNotifier{},
		clock:    &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	store := newStateStore(repo, &mockTransactor{}, f.bc, testLogger)
	f.m = NewTimerManager(context.Background(), store, f.hooks, f.ledger, f.notifier, f.bc, timerManagerConfig{
		Catalog:        focusmomo.DefaultCatalog(),
		LongBreakEvery: 4,
	}, testLogger)
	f.m.now = f.clock.Now
	t.Cleanup(f.m.Shutdown)
	return f
}

func TestTimerManager_RestoreCreatesDefaultState(t *testing.T) {
	f := newTimerFixture(t, nil)

	stored := f.repo.stored()
	require.NotNil(t, stored)
	assert.Equal(t, focusmomo.FocusSession, stored.CurrentSession)
	assert.Equal(t, 1500, stored.TimeLeft)
	assert.Equal(t, int64(1), stored.Revision)
	assert.False(t, stored.IsRunning)
	assert.Len(t, f.bc.states(focusmomo.TopicStorageChanged), 1)
}

func TestTimerManager_RestoreMergesCatalog(t *testing.T) {
	old := focusmomo.DefaultCatalog()
	old[focusmomo.FocusSession] = focusmomo.SessionSpec{Duration: 1000, Label: "Focus"}
	old[focusmomo.CustomSession] = focusmomo.SessionSpec{Duration: 1200, Label: "Reading"}
	repo := &mockTimerRepo{state: &focusmomo.TimerState{
		CurrentSession: focusmomo.FocusSession,
		TotalTime:      1000,
		TimeLeft:       1000,
		PomodoroCount:  3,
		Sessions:       old,
		Revision:       41,
	}}

	f := newTimerFixture(t, repo)

	s, err := f.m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.Revision)
	assert.Equal(t, 1500, s.TotalTime)
	assert.Equal(t, 1500, s.TimeLeft)
	assert.Equal(t, 3, s.PomodoroCount)
	assert.Equal(t, focusmomo.SessionSpec{Duration: 1200, Label: "Reading"}, s.Sessions[focusmomo.CustomSession])
}

func TestTimerManager_RestoreKeepsPausedTimeLeft(t *testing.T) {
	repo := &mockTimerRepo{state: &focusmomo.TimerState{
		CurrentSession: focusmomo.FocusSession,
		TotalTime:      1500,
		TimeLeft:       700,
		Sessions:       focusmomo.DefaultCatalog(),
	}}

	f := newTimerFixture(t, repo)

	s, err := f.m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 700, s.TimeLeft)
	assert.Equal(t, 1500, s.TotalTime)
}

func TestTimerManager_Start(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	s, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)

	assert.True(t, s.IsRunning)
	assert.Equal(t, 1500, s.TotalTime)
	require.NotNil(t, s.EndTimestamp)
	assert.Equal(t, f.clock.Now().Add(1500*time.Second), *s.EndTimestamp)
	assert.Equal(t, int64(2), s.Revision)

	assert.Equal(t, []ledgerCall{{op: "start", kind: focusmomo.FocusSession, planned: 1500}}, f.ledger.recorded())
	assert.Equal(t, []string{"FocusStart"}, f.hooks.recorded())

	broadcasts := f.bc.states(focusmomo.TopicTimerState)
	require.Len(t, broadcasts, 1)
	assert.Equal(t, s.Revision, broadcasts[0].Revision)
	assert.Equal(t, s.Revision, f.repo.stored().Revision)
}

func TestTimerManager_StopAndResume(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.Start(ctx, focusmomo.FocusSession, 1500, 1500)
	require.NoError(t, err)
	f.clock.Advance(100 * time.Second)

	s, err := f.m.Stop(ctx)
	require.NoError(t, err)
	assert.False(t, s.IsRunning)
	assert.Equal(t, 1400, s.TimeLeft)
	assert.Nil(t, s.EndTimestamp)

	// stopping a stopped timer is a no-op
	again, err := f.m.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Revision, again.Revision)

	s, err = f.m.Start(ctx, focusmomo.FocusSession, 1500, s.TimeLeft)
	require.NoError(t, err)
	assert.True(t, s.IsRunning)
	assert.Equal(t, 1400, s.TimeLeft)

	// the resume does not open a second ledger entry
	assert.Len(t, f.ledger.recorded(), 1)
}

func TestTimerManager_Complete(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	started, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)
	f.clock.Advance(1500 * time.Second)

	s, err := f.m.Complete(ctx, focusmomo.FocusSession, intPtr(1500), started.EndTimestamp)
	require.NoError(t, err)
	assert.Equal(t, focusmomo.ShortBreakSession, s.CurrentSession)
	assert.Equal(t, 300, s.TimeLeft)
	assert.Equal(t, 300, s.TotalTime)
	assert.Equal(t, 1, s.PomodoroCount)
	assert.Equal(t, 1, s.SessionCount)
	assert.False(t, s.IsRunning)

	calls := f.ledger.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "complete", calls[1].op)
	require.NotNil(t, calls[1].actualSec)
	assert.Equal(t, 1500, *calls[1].actualSec)
	assert.Equal(t, []string{"FocusStart", "FocusStop"}, f.hooks.recorded())

	f.m.Shutdown()
	assert.Equal(t, []notification{{
		title:   "Focus complete",
		message: "Up next: Short Break (5m0s). Pomodoros: 1",
	}}, f.notifier.notifications())
}

func TestTimerManager_CompleteIsIdempotent(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	started, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)

	t.Run("mismatched observed end", func(t *testing.T) {
		wrong := started.EndTimestamp.Add(time.Second)
		s, err := f.m.Complete(ctx, focusmomo.FocusSession, nil, &wrong)
		require.NoError(t, err)
		assert.Equal(t, started.Revision, s.Revision)
		assert.True(t, s.IsRunning)
	})

	t.Run("not the current session", func(t *testing.T) {
		s, err := f.m.Complete(ctx, focusmomo.ShortBreakSession, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, started.Revision, s.Revision)
	})

	t.Run("duplicate", func(t *testing.T) {
		first, err := f.m.Complete(ctx, focusmomo.FocusSession, nil, started.EndTimestamp)
		require.NoError(t, err)
		second, err := f.m.Complete(ctx, focusmomo.FocusSession, nil, started.EndTimestamp)
		require.NoError(t, err)
		assert.Equal(t, first.Revision, second.Revision)
		assert.Equal(t, 1, second.PomodoroCount)
	})

	// one start, one completion
	assert.Len(t, f.ledger.recorded(), 2)
}

func TestTimerManager_LongBreakCadence(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	var s focusmomo.TimerState
	var err error
	for i := range 4 {
		s, err = f.m.Complete(ctx, focusmomo.FocusSession, nil, nil)
		require.NoError(t, err)
		if i < 3 {
			require.Equal(t, focusmomo.ShortBreakSession, s.CurrentSession)
			s, err = f.m.Complete(ctx, focusmomo.ShortBreakSession, nil, nil)
			require.NoError(t, err)
			require.Equal(t, focusmomo.FocusSession, s.CurrentSession)
		}
	}
	assert.Equal(t, focusmomo.LongBreakSession, s.CurrentSession)
	assert.Equal(t, 900, s.TimeLeft)
	assert.Equal(t, 4, s.PomodoroCount)
	assert.Equal(t, 7, s.SessionCount)
}

func TestTimerManager_UnknownSession(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.Start(ctx, "nap", 0, 0)
	assert.ErrorIs(t, err, focusmomo.ErrUnknownSession)

	_, err = f.m.Complete(ctx, "nap", nil, nil)
	assert.ErrorIs(t, err, focusmomo.ErrUnknownSession)

	_, err = f.m.SwitchSession(ctx, "nap", nil)
	assert.ErrorIs(t, err, focusmomo.ErrUnknownSession)

	assert.Empty(t, f.ledger.recorded())
	assert.Empty(t, f.bc.states(focusmomo.TopicTimerState))
}

func TestTimerManager_Reset(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	s, err := f.m.Reset(ctx, nil)
	require.NoError(t, err)
	assert.False(t, s.IsRunning)
	assert.Equal(t, focusmomo.FocusSession, s.CurrentSession)
	assert.Equal(t, 1500, s.TimeLeft)

	kind := focusmomo.ShortBreakSession
	s, err = f.m.Reset(ctx, &kind)
	require.NoError(t, err)
	assert.Equal(t, focusmomo.ShortBreakSession, s.CurrentSession)
	assert.Equal(t, 300, s.TimeLeft)
}

func TestTimerManager_SwitchSession(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	s, err := f.m.SwitchSession(ctx, focusmomo.CustomSession, intPtr(900))
	require.NoError(t, err)
	assert.Equal(t, focusmomo.CustomSession, s.CurrentSession)
	assert.Equal(t, 900, s.TimeLeft)
	assert.Equal(t, 900, s.Sessions[focusmomo.CustomSession].Duration)

	_, err = f.m.SwitchSession(ctx, focusmomo.ShortBreakSession, nil)
	require.NoError(t, err)
	_, err = f.m.SwitchSession(ctx, focusmomo.FocusSession, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"FocusStop", "SwitchToFocus"}, f.hooks.recorded())
	assert.Equal(t, 900, f.repo.stored().Sessions[focusmomo.CustomSession].Duration)

	// later resets of custom keep the switched duration
	custom := focusmomo.CustomSession
	s, err = f.m.Reset(ctx, &custom)
	require.NoError(t, err)
	assert.Equal(t, 900, s.TotalTime)
}

func TestTimerManager_Expire(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)

	f.clock.Advance(1499 * time.Second)
	f.m.expire(ctx)
	s, err := f.m.State(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsRunning)

	f.clock.Advance(time.Second)
	f.m.expire(ctx)
	s, err = f.m.State(ctx)
	require.NoError(t, err)
	assert.False(t, s.IsRunning)
	assert.Equal(t, focusmomo.ShortBreakSession, s.CurrentSession)

	calls := f.ledger.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "complete", calls[1].op)
	assert.Nil(t, calls[1].actualSec)
}

func TestTimerManager_SaveFailureKeepsState(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()
	f.repo.mu.Lock()
	f.repo.saveErr = errors.New("disk full")
	f.repo.mu.Unlock()

	s, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)
	assert.True(t, s.IsRunning)

	// the durable record is behind, the cache is not
	assert.False(t, f.repo.stored().IsRunning)
	cached, ok := f.m.store.Cached()
	require.True(t, ok)
	assert.True(t, cached.IsRunning)
	assert.Len(t, f.bc.states(focusmomo.TopicTimerState), 1)

	// later reads keep the newer cached revision
	s, err = f.m.Stop(ctx)
	require.NoError(t, err)
	assert.False(t, s.IsRunning)
	assert.Equal(t, cached.Revision+1, s.Revision)
}

func TestTimerManager_StateFallsBackToCache(t *testing.T) {
	f := newTimerFixture(t, nil)
	ctx := context.Background()

	_, err := f.m.Start(ctx, focusmomo.FocusSession, 0, 0)
	require.NoError(t, err)
	f.repo.mu.Lock()
	f.repo.getErr = errors.New("locked")
	f.repo.mu.Unlock()

	s, err := f.m.State(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsRunning)
}

func TestTransitionMessage(t *testing.T) {
	state := focusmomo.NewTimerState(nil)
	state.CurrentSession = focusmomo.LongBreakSession
	state.TimeLeft = 900
	state.PomodoroCount = 4

	tr := models.Transition{From: focusmomo.FocusSession, To: focusmomo.LongBreakSession}

	assert.Equal(t, "Up next: Long Break (15m0s). Pomodoros: 4", transitionMessage(tr, state))
	assert.Equal(t, "Focus complete", transitionTitle(tr, state.Sessions))
}
