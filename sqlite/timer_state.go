package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

const (
	SelectTimerState = "SELECT is_running, current_session, total_time, time_left, start_ms, end_ms, session_count, pomodoro_count, revision, updated_at FROM timer_state WHERE id = 1"
	SelectCatalog    = "SELECT kind, duration, label FROM session_catalog"
)

type timerStateEntity struct {
	IsRunning      bool
	CurrentSession string
	TotalTime      int
	TimeLeft       int
	StartMS        sql.NullInt64
	EndMS          sql.NullInt64
	SessionCount   int
	PomodoroCount  int
	Revision       int64
	UpdatedAt      int64
}

type catalogEntity struct {
	Kind     string
	Duration int
	Label    string
}

// timerStateRepo stores the single timer record and its session catalog.
// Callers should wrap SaveTimerState in a transaction so both tables move together.
type timerStateRepo struct {
	dbGetter txStdLib.DBGetter
	l        log.Logger
}

func NewTimerStateRepo(dbGetter txStdLib.DBGetter, logger log.Logger) *timerStateRepo {
	return &timerStateRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

var _ focusmomo.TimerStateRepo = (*timerStateRepo)(nil)

func (r *timerStateRepo) GetTimerState(ctx context.Context) (focusmomo.TimerState, error) {
	db := r.dbGetter(ctx)
	state, err := extractTimerState(db.QueryRowContext(ctx, SelectTimerState))
	if err != nil {
		return focusmomo.TimerState{}, err
	}

	r.l.Debug("getting session catalog", "query", SelectCatalog)
	rows, err := db.QueryContext(ctx, SelectCatalog)
	if err != nil {
		return focusmomo.TimerState{}, err
	}
	defer rows.Close() //nolint

	state.Sessions = make(focusmomo.SessionCatalog)
	for rows.Next() {
		var e catalogEntity
		if err := rows.Scan(&e.Kind, &e.Duration, &e.Label); err != nil {
			return focusmomo.TimerState{}, err
		}
		state.Sessions[focusmomo.SessionKind(e.Kind)] = focusmomo.SessionSpec{
			Duration: e.Duration,
			Label:    e.Label,
		}
	}
	if err := rows.Err(); err != nil {
		return focusmomo.TimerState{}, err
	}

	return state, nil
}

func (r *timerStateRepo) SaveTimerState(ctx context.Context, state focusmomo.TimerState) error {
	db := r.dbGetter(ctx)
	e := mapToTimerStateEntity(state)
	e.UpdatedAt = time.Now().Unix()

	args := []any{
		e.IsRunning,
		e.CurrentSession,
		e.TotalTime,
		e.TimeLeft,
		e.StartMS,
		e.EndMS,
		e.SessionCount,
		e.PomodoroCount,
		e.Revision,
		e.UpdatedAt,
	}
	query := "INSERT INTO timer_state (id, is_running, current_session, total_time, time_left, start_ms, end_ms, session_count, pomodoro_count, revision, updated_at) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)" +
		" ON CONFLICT(id) DO UPDATE SET is_running = excluded.is_running, current_session = excluded.current_session, total_time = excluded.total_time, time_left = excluded.time_left," +
		" start_ms = excluded.start_ms, end_ms = excluded.end_ms, session_count = excluded.session_count, pomodoro_count = excluded.pomodoro_count, revision = excluded.revision, updated_at = excluded.updated_at"
	r.l.Debug("saving timer state", "query", query, "args", args)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}

	for kind, spec := range state.Sessions {
		args := []any{string(kind), spec.Duration, spec.Label}
		query := "INSERT INTO session_catalog (kind, duration, label) VALUES " + generateParameters(len(args)) +
			" ON CONFLICT(kind) DO UPDATE SET duration = excluded.duration, label = excluded.label"
		r.l.Debug("saving session catalog entry", "query", query, "args", args)
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save catalog entry %q: %w", kind, err)
		}
	}

	return nil
}

func extractTimerState(s scannable) (focusmomo.TimerState, error) {
	var e timerStateEntity
	if err := s.Scan(&e.IsRunning, &e.CurrentSession, &e.TotalTime, &e.TimeLeft, &e.StartMS, &e.EndMS, &e.SessionCount, &e.PomodoroCount, &e.Revision, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return focusmomo.TimerState{}, ErrNotFound
		}
		return focusmomo.TimerState{}, err
	}

	return mapToTimerState(e), nil
}

func mapToTimerStateEntity(s focusmomo.TimerState) timerStateEntity {
	return timerStateEntity{
		IsRunning:      s.IsRunning,
		CurrentSession: string(s.CurrentSession),
		TotalTime:      s.TotalTime,
		TimeLeft:       s.TimeLeft,
		StartMS:        toMillis(s.StartTimestamp),
		EndMS:          toMillis(s.EndTimestamp),
		SessionCount:   s.SessionCount,
		PomodoroCount:  s.PomodoroCount,
		Revision:       s.Revision,
	}
}

func mapToTimerState(e timerStateEntity) focusmomo.TimerState {
	return focusmomo.TimerState{
		IsRunning:      e.IsRunning,
		CurrentSession: focusmomo.SessionKind(e.CurrentSession),
		TotalTime:      e.TotalTime,
		TimeLeft:       e.TimeLeft,
		StartTimestamp: fromMillis(e.StartMS),
		EndTimestamp:   fromMillis(e.EndMS),
		SessionCount:   e.SessionCount,
		PomodoroCount:  e.PomodoroCount,
		Revision:       e.Revision,
	}
}
