package dbusipc

import (
	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"

	"github.com/benjamonnguyen/focusmomo"
)

type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Bridge re-emits every payload published on the given hub topics as a Broadcast signal.
func Bridge(hub focusmomo.Broadcaster, conn emitter, logger log.Logger, topics ...string) (stop func()) {
	var unsubs []func()
	for _, topic := range topics {
		unsubs = append(unsubs, hub.Subscribe(topic, func(payload []byte) {
			if err := conn.Emit(dbus.ObjectPath(ObjectPath), InterfaceName+"."+BroadcastMember, topic, string(payload)); err != nil {
				logger.Warn("failed to emit broadcast", "topic", topic, "err", err)
			}
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func decodeBroadcast(sig *dbus.Signal) (topic string, payload []byte, ok bool) {
	if sig == nil || sig.Name != InterfaceName+"."+BroadcastMember || len(sig.Body) < 2 {
		return "", nil, false
	}
	topic, ok = sig.Body[0].(string)
	if !ok {
		return "", nil, false
	}
	p, ok := sig.Body[1].(string)
	if !ok {
		return "", nil, false
	}
	return topic, []byte(p), true
}
