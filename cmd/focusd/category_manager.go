package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

type orchestrationMode string

const (
	modeIndependent orchestrationMode = "independent"
	modeUnified     orchestrationMode = "unified"
)

type orchestrationPhase string

const (
	phaseIdle  orchestrationPhase = "idle"
	phaseFocus orchestrationPhase = "focus"
	phaseBreak orchestrationPhase = "break"
)

type orchestrationState struct {
	Mode             orchestrationMode
	Phase            orchestrationPhase
	ActiveCategoryID *focusmomo.CategoryID
	// PreviousActiveCategoryID is restored when the unified session ends.
	PreviousActiveCategoryID *focusmomo.CategoryID
}

func idleState() orchestrationState {
	return orchestrationState{Mode: modeIndependent, Phase: phaseIdle}
}

type categorySettings struct {
	UnifiedMode     bool
	FocusCategoryID *focusmomo.CategoryID
	BreakCategoryID *focusmomo.CategoryID
}

// categoryManager couples the active blocking category to the timer phase while unified
// mode is on. A rejected category drops back to independent mode for the rest of the
// session; the timer itself is never blocked.
type categoryManager struct {
	mu       sync.Mutex
	store    focusmomo.CategoryStore
	notifier focusmomo.Notifier
	settings categorySettings
	state    orchestrationState
	l        log.Logger
}

func NewCategoryManager(store focusmomo.CategoryStore, notifier focusmomo.Notifier, settings categorySettings, logger log.Logger) *categoryManager {
	return &categoryManager{
		store:    store,
		notifier: notifier,
		settings: settings,
		state:    idleState(),
		l:        logger,
	}
}

var _ categoryHooks = (*categoryManager)(nil)

func (m *categoryManager) State() orchestrationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *categoryManager) Settings() categorySettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *categoryManager) UpdateSettings(settings categorySettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

func (m *categoryManager) FocusStart(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focusStartLocked(ctx)
}

func (m *categoryManager) focusStartLocked(ctx context.Context) {
	if !m.settings.UnifiedMode || m.state.Phase == phaseFocus {
		return
	}

	if m.state.Mode != modeUnified {
		prev, err := m.store.GetActiveCategory(ctx)
		if err != nil {
			m.l.Warn("failed to read active category", "err", err)
		}
		m.state.PreviousActiveCategoryID = prev
		m.state.ActiveCategoryID = prev
	}

	if m.settings.FocusCategoryID != nil {
		if !m.applyLocked(ctx, m.settings.FocusCategoryID) {
			return
		}
	}
	m.state.Mode = modeUnified
	m.state.Phase = phaseFocus
	m.l.Debug("unified focus", "category", m.state.ActiveCategoryID)
}

func (m *categoryManager) BreakStart(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Mode != modeUnified || m.state.Phase == phaseBreak || m.settings.BreakCategoryID == nil {
		return
	}
	if m.applyLocked(ctx, m.settings.BreakCategoryID) {
		m.state.Phase = phaseBreak
	}
}

func (m *categoryManager) FocusStop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focusStopLocked(ctx)
}

func (m *categoryManager) focusStopLocked(ctx context.Context) {
	if m.state.Mode != modeUnified {
		return
	}

	if m.settings.BreakCategoryID != nil {
		if m.applyLocked(ctx, m.settings.BreakCategoryID) {
			m.state.Phase = phaseBreak
		}
		return
	}

	if prev := m.state.PreviousActiveCategoryID; prev != nil {
		if !m.applyLocked(ctx, prev) {
			return
		}
	}
	m.state = idleState()
}

func (m *categoryManager) BreakComplete(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakCompleteLocked(ctx)
}

func (m *categoryManager) breakCompleteLocked(ctx context.Context) {
	if m.state.Mode != modeUnified {
		return
	}
	if !m.applyLocked(ctx, m.state.PreviousActiveCategoryID) {
		return
	}
	m.state = idleState()
}

// SwitchToFocus closes any break context, then starts focus.
func (m *categoryManager) SwitchToFocus(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase == phaseBreak {
		m.breakCompleteLocked(ctx)
	}
	m.focusStartLocked(ctx)
}

// SetUnifiedMode toggles the setting. Disabling it mid-session ends the session as if the
// break had completed.
func (m *categoryManager) SetUnifiedMode(ctx context.Context, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.UnifiedMode = enabled
	if !enabled {
		m.breakCompleteLocked(ctx)
	}
}

// applyLocked activates id (nil clears). On failure the session falls back to
// independent mode and a notice is sent.
func (m *categoryManager) applyLocked(ctx context.Context, id *focusmomo.CategoryID) bool {
	if err := m.store.SetActiveCategory(ctx, id); err != nil {
		m.l.Error("failed to apply category, leaving unified mode", "category", id, "err", err)
		m.state = idleState()
		go func() {
			msg := fmt.Sprintf("Could not activate category %s. Blocking continues independently of the timer.", categoryName(id))
			if err := m.notifier.Notify("Category unavailable", msg); err != nil {
				m.l.Warn("failed to send notification", "err", err)
			}
		}()
		return false
	}
	m.state.ActiveCategoryID = id
	return true
}

func categoryName(id *focusmomo.CategoryID) string {
	if id == nil {
		return "(none)"
	}
	return fmt.Sprintf("%q", string(*id))
}
