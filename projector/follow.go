package projector

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

// Source is a read-only view of the orchestrator: one explicit read plus topic subscriptions.
type Source interface {
	GetTimerState(context.Context) (focusmomo.TimerState, error)
	Subscribe(topic string, handler func(payload []byte)) (unsubscribe func())
}

// Follow feeds p from both broadcast topics and a single startup read, then blocks until
// ctx is done. Subscriptions are registered before the read so no mutation falls in between.
func Follow(ctx context.Context, src Source, p *Projector, logger log.Logger) {
	handler := func(topic string) func([]byte) {
		return func(payload []byte) {
			var s focusmomo.TimerState
			if err := json.Unmarshal(payload, &s); err != nil {
				logger.Warn("dropping undecodable state", "topic", topic, "err", err)
				return
			}
			if !p.Apply(s) {
				logger.Debug("dropped stale state", "topic", topic, "revision", s.Revision)
			}
		}
	}

	unsubState := src.Subscribe(focusmomo.TopicTimerState, handler(focusmomo.TopicTimerState))
	defer unsubState()
	unsubStorage := src.Subscribe(focusmomo.TopicStorageChanged, handler(focusmomo.TopicStorageChanged))
	defer unsubStorage()

	s, err := src.GetTimerState(ctx)
	if err != nil {
		logger.Error("failed startup read", "err", err)
	} else {
		p.Apply(s)
	}

	<-ctx.Done()
}
