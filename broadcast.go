package focusmomo

const (
	// TopicTimerState carries a TimerState after every orchestrator mutation.
	TopicTimerState = "timer.state"
	// TopicStorageChanged carries a TimerState after every successful store write.
	TopicStorageChanged = "storage.changed"
)

// Broadcaster is a best-effort publish/subscribe channel. Publish errors are reported
// to the caller but delivery to any given subscriber is never guaranteed.
type Broadcaster interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload []byte)) (unsubscribe func())
}

type Notifier interface {
	Notify(title, message string) error
}
