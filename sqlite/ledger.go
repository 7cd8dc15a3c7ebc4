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
	SelectAllAnalyticsSessions = "SELECT id, type, start_ms, end_ms, planned_sec, actual_sec, completed FROM analytics_sessions"
	SelectAllDayBuckets        = "SELECT day, focus_seconds, sessions_started, sessions_completed, sites_blocked FROM day_buckets"
)

type analyticsSessionEntity struct {
	ID         string
	Type       string
	StartMS    int64
	EndMS      sql.NullInt64
	PlannedSec int
	ActualSec  int
	Completed  bool
}

type dayBucketEntity struct {
	Day               string
	FocusSeconds      int
	SessionsStarted   int
	SessionsCompleted int
	SitesBlocked      int
}

type ledgerRepo struct {
	dbGetter txStdLib.DBGetter
	l        log.Logger
}

func NewLedgerRepo(dbGetter txStdLib.DBGetter, logger log.Logger) *ledgerRepo {
	return &ledgerRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

var _ focusmomo.LedgerRepo = (*ledgerRepo)(nil)

func (r *ledgerRepo) ListAnalyticsSessions(ctx context.Context) ([]focusmomo.AnalyticsSession, error) {
	db := r.dbGetter(ctx)
	query := SelectAllAnalyticsSessions + " ORDER BY start_ms ASC, rowid ASC"
	r.l.Debug("listing analytics sessions", "query", query)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var sessions []focusmomo.AnalyticsSession
	for rows.Next() {
		s, err := extractAnalyticsSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *ledgerRepo) InsertAnalyticsSession(ctx context.Context, s focusmomo.AnalyticsSession) error {
	if s.ID == "" {
		return fmt.Errorf("provide required field 'ID'")
	}

	e := mapToAnalyticsSessionEntity(s)
	args := []any{
		e.ID,
		e.Type,
		e.StartMS,
		e.EndMS,
		e.PlannedSec,
		e.ActualSec,
		e.Completed,
	}
	query := "INSERT INTO analytics_sessions (id, type, start_ms, end_ms, planned_sec, actual_sec, completed) VALUES " + generateParameters(len(args))
	r.l.Debug("creating analytics session", "query", query, "args", args)
	_, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	return err
}

func (r *ledgerRepo) UpdateAnalyticsSession(ctx context.Context, s focusmomo.AnalyticsSession) error {
	e := mapToAnalyticsSessionEntity(s)
	args := []any{
		e.Type,
		e.StartMS,
		e.EndMS,
		e.PlannedSec,
		e.ActualSec,
		e.Completed,
		e.ID,
	}
	query := "UPDATE analytics_sessions SET type = ?, start_ms = ?, end_ms = ?, planned_sec = ?, actual_sec = ?, completed = ? WHERE id = ?"
	r.l.Debug("updating analytics session", "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("analytics session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *ledgerRepo) DeleteAnalyticsSession(ctx context.Context, id string) error {
	query := "DELETE FROM analytics_sessions WHERE id = ?"
	r.l.Debug("deleting analytics session", "query", query, "id", id)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("analytics session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *ledgerRepo) DeleteAllAnalyticsSessions(ctx context.Context) error {
	query := "DELETE FROM analytics_sessions"
	r.l.Debug("deleting all analytics sessions", "query", query)
	_, err := r.dbGetter(ctx).ExecContext(ctx, query)
	return err
}

func (r *ledgerRepo) PruneAnalyticsSessions(ctx context.Context, keep int) (int64, error) {
	query := "DELETE FROM analytics_sessions WHERE rowid NOT IN (SELECT rowid FROM analytics_sessions ORDER BY start_ms DESC, rowid DESC LIMIT ?)"
	r.l.Debug("pruning analytics sessions", "query", query, "keep", keep)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ledgerRepo) GetDayBucket(ctx context.Context, day string) (focusmomo.DayBucket, error) {
	if day == "" {
		return focusmomo.DayBucket{}, fmt.Errorf("provide day")
	}

	row := r.dbGetter(ctx).QueryRowContext(ctx, SelectAllDayBuckets+" WHERE day = ?", day)
	b, err := extractDayBucket(row)
	if errors.Is(err, ErrNotFound) {
		return focusmomo.DayBucket{Day: day}, nil
	}
	return b, err
}

func (r *ledgerRepo) UpsertDayBucket(ctx context.Context, b focusmomo.DayBucket) error {
	e := dayBucketEntity(b)
	args := []any{
		e.Day,
		e.FocusSeconds,
		e.SessionsStarted,
		e.SessionsCompleted,
		e.SitesBlocked,
	}
	query := "INSERT INTO day_buckets (day, focus_seconds, sessions_started, sessions_completed, sites_blocked) VALUES " + generateParameters(len(args)) +
		" ON CONFLICT(day) DO UPDATE SET focus_seconds = excluded.focus_seconds, sessions_started = excluded.sessions_started, sessions_completed = excluded.sessions_completed, sites_blocked = excluded.sites_blocked"
	r.l.Debug("saving day bucket", "query", query, "args", args)
	_, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	return err
}

func (r *ledgerRepo) ListDayBuckets(ctx context.Context, from, to string) ([]focusmomo.DayBucket, error) {
	query := SelectAllDayBuckets + " WHERE day >= ? AND day <= ? ORDER BY day ASC"
	r.l.Debug("listing day buckets", "query", query, "from", from, "to", to)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var buckets []focusmomo.DayBucket
	for rows.Next() {
		b, err := extractDayBucket(rows)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *ledgerRepo) PruneDayBuckets(ctx context.Context, before string) (int64, error) {
	query := "DELETE FROM day_buckets WHERE day < ?"
	r.l.Debug("pruning day buckets", "query", query, "before", before)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func extractAnalyticsSession(s scannable) (focusmomo.AnalyticsSession, error) {
	var e analyticsSessionEntity
	if err := s.Scan(&e.ID, &e.Type, &e.StartMS, &e.EndMS, &e.PlannedSec, &e.ActualSec, &e.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return focusmomo.AnalyticsSession{}, ErrNotFound
		}
		return focusmomo.AnalyticsSession{}, err
	}
	return mapToAnalyticsSession(e), nil
}

func extractDayBucket(s scannable) (focusmomo.DayBucket, error) {
	var e dayBucketEntity
	if err := s.Scan(&e.Day, &e.FocusSeconds, &e.SessionsStarted, &e.SessionsCompleted, &e.SitesBlocked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return focusmomo.DayBucket{}, ErrNotFound
		}
		return focusmomo.DayBucket{}, err
	}
	return focusmomo.DayBucket(e), nil
}

func mapToAnalyticsSessionEntity(s focusmomo.AnalyticsSession) analyticsSessionEntity {
	return analyticsSessionEntity{
		ID:         s.ID,
		Type:       string(s.Type),
		StartMS:    s.Start.UnixMilli(),
		EndMS:      toMillis(s.End),
		PlannedSec: s.PlannedSec,
		ActualSec:  s.ActualSec,
		Completed:  s.Completed,
	}
}

func mapToAnalyticsSession(e analyticsSessionEntity) focusmomo.AnalyticsSession {
	return focusmomo.AnalyticsSession{
		ID:         e.ID,
		Type:       focusmomo.SessionKind(e.Type),
		Start:      time.UnixMilli(e.StartMS),
		End:        fromMillis(e.EndMS),
		PlannedSec: e.PlannedSec,
		ActualSec:  e.ActualSec,
		Completed:  e.Completed,
	}
}
