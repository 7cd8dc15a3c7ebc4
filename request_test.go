package focusmomo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	end := time.Date(2025, 3, 10, 9, 25, 0, 0, time.UTC)
	actual := 1490
	custom := 900
	long := LongBreakSession

	tests := []struct {
		action  Action
		payload string
		want    Request
	}{
		{ActionTimerStarted, `{"session":"focus","duration":1500,"timeLeft":1200}`, TimerStarted{Session: FocusSession, Duration: 1500, TimeLeft: 1200}},
		{ActionTimerStopped, ``, TimerStopped{}},
		{ActionTimerReset, `{}`, TimerReset{}},
		{ActionTimerReset, `{"session":"long-break"}`, TimerReset{Session: &long}},
		{ActionTimerComplete, `{"session":"focus","actualSec":1490,"observedEnd":"2025-03-10T09:25:00Z"}`, TimerComplete{Session: FocusSession, ActualSec: &actual, ObservedEnd: &end}},
		{ActionSwitchSession, `{"session":"custom","customDuration":900}`, SwitchSession{Session: CustomSession, CustomDuration: &custom}},
		{ActionGetTimerState, ``, GetTimerState{}},
		{ActionAnalyticsGetMetrics, ``, AnalyticsGetMetrics{}},
		{ActionAnalyticsGetWeeklySeries, ``, AnalyticsGetWeeklySeries{}},
		{ActionAnalyticsGetHistory, `{"limit":5}`, AnalyticsGetHistory{Limit: 5}},
		{ActionAnalyticsSiteBlocked, `{"domain":"example.com"}`, AnalyticsSiteBlocked{Domain: "example.com"}},
		{ActionAnalyticsDeleteSession, `{"id":"abc"}`, AnalyticsDeleteSession{ID: "abc"}},
		{ActionSetUnifiedMode, `{"enabled":true}`, SetUnifiedMode{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got, err := DecodeRequest(tt.action, []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.action, got.Action())
		})
	}
}

func TestDecodeRequest_Errors(t *testing.T) {
	_, err := DecodeRequest("pauseForever", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DecodeRequest(ActionTimerStarted, []byte(`{"session":`))
	assert.ErrorContains(t, err, "decode timerStarted")
}

func TestEncodeRequest(t *testing.T) {
	action, payload, err := EncodeRequest(SwitchSession{Session: ShortBreakSession})
	require.NoError(t, err)
	assert.Equal(t, ActionSwitchSession, action)
	assert.JSONEq(t, `{"session":"short-break"}`, string(payload))

	got, err := DecodeRequest(action, payload)
	require.NoError(t, err)
	assert.Equal(t, SwitchSession{Session: ShortBreakSession}, got)
}
