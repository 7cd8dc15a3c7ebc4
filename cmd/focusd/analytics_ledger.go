package main

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/focusmomo"
)

const defaultHistoryLimit = 50

// analyticsLedger records session starts and completions exactly once and keeps per-day
// aggregates. Each entry point runs in one transaction.
type analyticsLedger struct {
	repo  focusmomo.LedgerRepo
	tx    transactor.Transactor
	now   func() time.Time
	newID func() string
	l     log.Logger
}

func NewAnalyticsLedger(repo focusmomo.LedgerRepo, tx transactor.Transactor, logger log.Logger) *analyticsLedger {
	return &analyticsLedger{
		repo:  repo,
		tx:    tx,
		now:   time.Now,
		newID: uuid.NewString,
		l:     logger,
	}
}

var _ sessionLedger = (*analyticsLedger)(nil)

func (a *analyticsLedger) LogSessionStart(ctx context.Context, kind focusmomo.SessionKind, plannedSec int) error {
	return a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := a.now()
		entry := focusmomo.AnalyticsSession{
			ID:         a.newID(),
			Start:      now,
			Type:       kind,
			PlannedSec: plannedSec,
		}
		if err := a.repo.InsertAnalyticsSession(ctx, entry); err != nil {
			return fmt.Errorf("insert analytics session: %w", err)
		}

		if kind.CountsAsFocus() {
			if err := a.updateBucket(ctx, now, func(b *focusmomo.DayBucket) {
				b.SessionsStarted++
			}); err != nil {
				return err
			}
		}
		return a.prune(ctx, now)
	})
}

// LogSessionComplete closes the newest open entry of kind. actualSec overrides the wall
// clock duration when non-negative. Without an open entry only the day bucket is credited.
func (a *analyticsLedger) LogSessionComplete(ctx context.Context, kind focusmomo.SessionKind, actualSec *int) error {
	return a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := a.now()
		entries, err := a.repo.ListAnalyticsSessions(ctx)
		if err != nil {
			return fmt.Errorf("list analytics sessions: %w", err)
		}

		// newest open entry of the same type; the ledger is capped so a scan is fine
		idx := -1
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Type == kind && !entries[i].Completed {
				idx = i
				break
			}
		}

		if idx < 0 {
			a.l.Warn("no open analytics session, crediting day bucket only", "session", kind)
			if kind.CountsAsFocus() {
				if err := a.updateBucket(ctx, now, func(b *focusmomo.DayBucket) {
					b.SessionsCompleted++
					if actualSec != nil && *actualSec > 0 {
						b.FocusSeconds += *actualSec
					}
				}); err != nil {
					return err
				}
			}
			return a.prune(ctx, now)
		}

		entry := entries[idx]
		actual := focusmomo.RoundSeconds(now.Sub(entry.Start))
		if actualSec != nil && *actualSec >= 0 {
			actual = *actualSec
		}
		entry.End = &now
		entry.ActualSec = max(0, actual)
		entry.Completed = true
		if err := a.repo.UpdateAnalyticsSession(ctx, entry); err != nil {
			return fmt.Errorf("update analytics session: %w", err)
		}

		if kind.CountsAsFocus() {
			if err := a.updateBucket(ctx, now, func(b *focusmomo.DayBucket) {
				b.SessionsCompleted++
				b.FocusSeconds += min(entry.PlannedSec, entry.ActualSec)
			}); err != nil {
				return err
			}
		}
		return a.prune(ctx, now)
	})
}

func (a *analyticsLedger) RecordSiteBlocked(ctx context.Context) error {
	return a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := a.now()
		if err := a.updateBucket(ctx, now, func(b *focusmomo.DayBucket) {
			b.SitesBlocked++
		}); err != nil {
			return err
		}
		return a.prune(ctx, now)
	})
}

func (a *analyticsLedger) DeleteSession(ctx context.Context, id string) error {
	return a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.repo.DeleteAnalyticsSession(ctx, id); err != nil {
			return fmt.Errorf("delete analytics session: %w", err)
		}
		return a.prune(ctx, a.now())
	})
}

// Clear removes every ledger entry. Day buckets are kept.
func (a *analyticsLedger) Clear(ctx context.Context) error {
	return a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return a.repo.DeleteAllAnalyticsSessions(ctx)
	})
}

func (a *analyticsLedger) updateBucket(ctx context.Context, now time.Time, fn func(*focusmomo.DayBucket)) error {
	b, err := a.repo.GetDayBucket(ctx, focusmomo.DayKey(now))
	if err != nil {
		return fmt.Errorf("get day bucket: %w", err)
	}
	fn(&b)
	if err := a.repo.UpsertDayBucket(ctx, b); err != nil {
		return fmt.Errorf("save day bucket: %w", err)
	}
	return nil
}

func (a *analyticsLedger) prune(ctx context.Context, now time.Time) error {
	n, err := a.repo.PruneAnalyticsSessions(ctx, focusmomo.LedgerCapacity)
	if err != nil {
		return fmt.Errorf("prune analytics sessions: %w", err)
	}
	cutoff := focusmomo.DayKey(now.Add(-focusmomo.DayBucketRetention))
	m, err := a.repo.PruneDayBuckets(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune day buckets: %w", err)
	}
	if n > 0 || m > 0 {
		a.l.Debug("pruned analytics", "sessions", n, "buckets", m)
	}
	return nil
}

func (a *analyticsLedger) Metrics(ctx context.Context) (focusmomo.Metrics, error) {
	now := a.now()
	today := focusmomo.DayKey(now)
	buckets, err := a.repo.ListDayBuckets(ctx, focusmomo.DayKey(now.AddDate(0, 0, -6)), today)
	if err != nil {
		return focusmomo.Metrics{}, fmt.Errorf("list day buckets: %w", err)
	}

	var m focusmomo.Metrics
	for _, b := range buckets {
		m.WeeklyFocusSeconds += b.FocusSeconds
		if b.Day != today {
			continue
		}
		m.TodayFocusSeconds = b.FocusSeconds
		m.SitesBlockedToday = b.SitesBlocked
		if b.SessionsStarted > 0 {
			m.CompletionRate = int(math.Round(100 * float64(b.SessionsCompleted) / float64(b.SessionsStarted)))
		}
	}
	return m, nil
}

// WeeklySeries returns the last seven days including today, oldest first.
func (a *analyticsLedger) WeeklySeries(ctx context.Context) (focusmomo.WeeklySeries, error) {
	now := a.now()
	buckets, err := a.repo.ListDayBuckets(ctx, focusmomo.DayKey(now.AddDate(0, 0, -6)), focusmomo.DayKey(now))
	if err != nil {
		return focusmomo.WeeklySeries{}, fmt.Errorf("list day buckets: %w", err)
	}
	byDay := make(map[string]int, len(buckets))
	for _, b := range buckets {
		byDay[b.Day] = b.FocusSeconds
	}

	series := focusmomo.WeeklySeries{
		Labels: make([]string, 0, 7),
		Data:   make([]int, 0, 7),
	}
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		series.Labels = append(series.Labels, day.Format("Mon"))
		series.Data = append(series.Data, byDay[focusmomo.DayKey(day)])
	}
	return series, nil
}

// History returns completed entries, most recently ended first.
func (a *analyticsLedger) History(ctx context.Context, limit int) ([]focusmomo.AnalyticsSession, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := a.repo.ListAnalyticsSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analytics sessions: %w", err)
	}

	completed := slices.DeleteFunc(entries, func(e focusmomo.AnalyticsSession) bool {
		return !e.Completed || e.End == nil
	})
	slices.SortStableFunc(completed, func(x, y focusmomo.AnalyticsSession) int {
		return y.End.Compare(*x.End)
	})
	if len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, nil
}
