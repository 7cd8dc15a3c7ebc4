package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

// dispatcher maps each request variant onto the managers.
type dispatcher struct {
	timer      TimerManager
	ledger     *analyticsLedger
	categories *categoryManager
	// onSettingsChange persists category settings changed at runtime.
	onSettingsChange func(categorySettings) error
	l                log.Logger
}

func (d *dispatcher) Dispatch(ctx context.Context, req focusmomo.Request) focusmomo.Response {
	switch r := req.(type) {
	case focusmomo.TimerStarted:
		return stateResponse(d.timer.Start(ctx, r.Session, r.Duration, r.TimeLeft))
	case focusmomo.TimerStopped:
		return stateResponse(d.timer.Stop(ctx))
	case focusmomo.TimerReset:
		return stateResponse(d.timer.Reset(ctx, r.Session))
	case focusmomo.TimerComplete:
		return stateResponse(d.timer.Complete(ctx, r.Session, r.ActualSec, r.ObservedEnd))
	case focusmomo.SwitchSession:
		return stateResponse(d.timer.SwitchSession(ctx, r.Session, r.CustomDuration))
	case focusmomo.GetTimerState:
		return stateResponse(d.timer.State(ctx))

	case focusmomo.AnalyticsGetMetrics:
		m, err := d.ledger.Metrics(ctx)
		if err != nil {
			return d.errResponse(req, err)
		}
		return focusmomo.Response{OK: true, Metrics: &m}
	case focusmomo.AnalyticsGetWeeklySeries:
		s, err := d.ledger.WeeklySeries(ctx)
		if err != nil {
			return d.errResponse(req, err)
		}
		return focusmomo.Response{OK: true, Series: &s}
	case focusmomo.AnalyticsGetHistory:
		h, err := d.ledger.History(ctx, r.Limit)
		if err != nil {
			return d.errResponse(req, err)
		}
		return focusmomo.Response{OK: true, Sessions: h}
	case focusmomo.AnalyticsSiteBlocked:
		if err := d.ledger.RecordSiteBlocked(ctx); err != nil {
			return d.errResponse(req, err)
		}
		d.l.Debug("site blocked", "domain", r.Domain)
		return focusmomo.Response{OK: true}
	case focusmomo.AnalyticsDeleteSession:
		if err := d.ledger.DeleteSession(ctx, r.ID); err != nil {
			return d.errResponse(req, err)
		}
		return focusmomo.Response{OK: true}

	case focusmomo.SetUnifiedMode:
		d.categories.SetUnifiedMode(ctx, r.Enabled)
		if d.onSettingsChange != nil {
			if err := d.onSettingsChange(d.categories.Settings()); err != nil {
				d.l.Warn("failed to persist category settings", "err", err)
			}
		}
		return focusmomo.Response{OK: true}

	default:
		return d.errResponse(req, fmt.Errorf("%w: %T", focusmomo.ErrUnknownAction, req))
	}
}

func (d *dispatcher) errResponse(req focusmomo.Request, err error) focusmomo.Response {
	d.l.Error("request failed", "action", req.Action(), "err", err)
	return focusmomo.Response{Error: err.Error()}
}

func stateResponse(state focusmomo.TimerState, err error) focusmomo.Response {
	if err != nil {
		return focusmomo.Response{Error: err.Error()}
	}
	return focusmomo.Response{OK: true, TimerState: &state}
}
