package focusmomo

import (
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionTimerStarted             Action = "timerStarted"
	ActionTimerStopped             Action = "timerStopped"
	ActionTimerReset               Action = "timerReset"
	ActionTimerComplete            Action = "timerComplete"
	ActionSwitchSession            Action = "switchSession"
	ActionGetTimerState            Action = "getTimerState"
	ActionAnalyticsGetMetrics      Action = "analyticsGetMetrics"
	ActionAnalyticsGetWeeklySeries Action = "analyticsGetWeeklySeries"
	ActionAnalyticsGetHistory      Action = "analyticsGetHistory"
	ActionAnalyticsSiteBlocked     Action = "analyticsSiteBlocked"
	ActionAnalyticsDeleteSession   Action = "analyticsDeleteSession"
	ActionSetUnifiedMode           Action = "setUnifiedMode"
)

// Request is the closed set of messages accepted by the orchestrator.
type Request interface {
	Action() Action
	isRequest()
}

type TimerStarted struct {
	Session  SessionKind `json:"session"`
	Duration int         `json:"duration"`
	TimeLeft int         `json:"timeLeft"`
}

type TimerStopped struct{}

type TimerReset struct {
	Session *SessionKind `json:"session,omitempty"`
}

type TimerComplete struct {
	Session   SessionKind `json:"session"`
	ActualSec *int        `json:"actualSec,omitempty"`
	// ObservedEnd is the end timestamp the caller saw when its countdown expired.
	ObservedEnd *time.Time `json:"observedEnd,omitempty"`
}

type SwitchSession struct {
	Session        SessionKind `json:"session"`
	CustomDuration *int        `json:"customDuration,omitempty"`
}

type GetTimerState struct{}

type AnalyticsGetMetrics struct{}

type AnalyticsGetWeeklySeries struct{}

type AnalyticsGetHistory struct {
	Limit int `json:"limit"`
}

type AnalyticsSiteBlocked struct {
	Domain string `json:"domain,omitempty"`
}

type AnalyticsDeleteSession struct {
	ID string `json:"id"`
}

type SetUnifiedMode struct {
	Enabled bool `json:"enabled"`
}

func (TimerStarted) Action() Action             { return ActionTimerStarted }
func (TimerStopped) Action() Action             { return ActionTimerStopped }
func (TimerReset) Action() Action               { return ActionTimerReset }
func (TimerComplete) Action() Action            { return ActionTimerComplete }
func (SwitchSession) Action() Action            { return ActionSwitchSession }
func (GetTimerState) Action() Action            { return ActionGetTimerState }
func (AnalyticsGetMetrics) Action() Action      { return ActionAnalyticsGetMetrics }
func (AnalyticsGetWeeklySeries) Action() Action { return ActionAnalyticsGetWeeklySeries }
func (AnalyticsGetHistory) Action() Action      { return ActionAnalyticsGetHistory }
func (AnalyticsSiteBlocked) Action() Action     { return ActionAnalyticsSiteBlocked }
func (AnalyticsDeleteSession) Action() Action   { return ActionAnalyticsDeleteSession }
func (SetUnifiedMode) Action() Action           { return ActionSetUnifiedMode }

func (TimerStarted) isRequest()             {}
func (TimerStopped) isRequest()             {}
func (TimerReset) isRequest()               {}
func (TimerComplete) isRequest()            {}
func (SwitchSession) isRequest()            {}
func (GetTimerState) isRequest()            {}
func (AnalyticsGetMetrics) isRequest()      {}
func (AnalyticsGetWeeklySeries) isRequest() {}
func (AnalyticsGetHistory) isRequest()      {}
func (AnalyticsSiteBlocked) isRequest()     {}
func (AnalyticsDeleteSession) isRequest()   {}
func (SetUnifiedMode) isRequest()           {}

type Response struct {
	OK         bool               `json:"ok"`
	Error      string             `json:"error,omitempty"`
	TimerState *TimerState        `json:"timerState,omitempty"`
	Metrics    *Metrics           `json:"metrics,omitempty"`
	Series     *WeeklySeries      `json:"series,omitempty"`
	Sessions   []AnalyticsSession `json:"sessions,omitempty"`
}

func EncodeRequest(r Request) (Action, []byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", r.Action(), err)
	}
	return r.Action(), payload, nil
}

func DecodeRequest(action Action, payload []byte) (Request, error) {
	var r Request
	switch action {
	case ActionTimerStarted:
		r = &TimerStarted{}
	case ActionTimerStopped:
		r = &TimerStopped{}
	case ActionTimerReset:
		r = &TimerReset{}
	case ActionTimerComplete:
		r = &TimerComplete{}
	case ActionSwitchSession:
		r = &SwitchSession{}
	case ActionGetTimerState:
		r = &GetTimerState{}
	case ActionAnalyticsGetMetrics:
		r = &AnalyticsGetMetrics{}
	case ActionAnalyticsGetWeeklySeries:
		r = &AnalyticsGetWeeklySeries{}
	case ActionAnalyticsGetHistory:
		r = &AnalyticsGetHistory{}
	case ActionAnalyticsSiteBlocked:
		r = &AnalyticsSiteBlocked{}
	case ActionAnalyticsDeleteSession:
		r = &AnalyticsDeleteSession{}
	case ActionSetUnifiedMode:
		r = &SetUnifiedMode{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", action, err)
		}
	}
	return deref(r), nil
}

func deref(r Request) Request {
	switch r := r.(type) {
	case *TimerStarted:
		return *r
	case *TimerStopped:
		return *r
	case *TimerReset:
		return *r
	case *TimerComplete:
		return *r
	case *SwitchSession:
		return *r
	case *GetTimerState:
		return *r
	case *AnalyticsGetMetrics:
		return *r
	case *AnalyticsGetWeeklySeries:
		return *r
	case *AnalyticsGetHistory:
		return *r
	case *AnalyticsSiteBlocked:
		return *r
	case *AnalyticsDeleteSession:
		return *r
	case *SetUnifiedMode:
		return *r
	}
	return r
}
