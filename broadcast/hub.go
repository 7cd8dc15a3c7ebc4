// Package broadcast is the in-process publish/subscribe channel for timer updates.
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

var (
	ErrClosed  = errors.New("hub closed")
	ErrDropped = errors.New("subscriber buffer full")
)

const DefaultBuffer = 16

type subscription struct {
	id      uint64
	topic   string
	ch      chan []byte
	handler func([]byte)
}

// Hub fans out JSON payloads to per-topic subscribers. Each subscriber is served by its
// own goroutine; a full buffer drops the message for that subscriber only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*subscription
	nextID uint64
	buffer int
	closed bool
	wg     sync.WaitGroup
	l      log.Logger
}

var _ focusmomo.Broadcaster = (*Hub)(nil)

func NewHub(buffer int, logger log.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[uint64]*subscription),
		buffer: buffer,
		l:      logger,
	}
}

// Publish encodes payload as JSON unless it is already []byte or json.RawMessage.
func (h *Hub) Publish(topic string, payload any) error {
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case json.RawMessage:
		b = p
	default:
		var err error
		if b, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode %s payload: %w", topic, err)
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}

	var errs []error
	for _, sub := range h.subs[topic] {
		select {
		case sub.ch <- b:
		default:
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", topic, sub.id, ErrDropped))
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) Subscribe(topic string, handler func(payload []byte)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}

	h.nextID++
	sub := &subscription{
		id:      h.nextID,
		topic:   topic,
		ch:      make(chan []byte, h.buffer),
		handler: handler,
	}
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]*subscription)
	}
	h.subs[topic][sub.id] = sub

	h.wg.Go(func() {
		for payload := range sub.ch {
			h.deliver(sub, payload)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[topic][sub.id]; ok {
				delete(h.subs[topic], sub.id)
				close(sub.ch)
			}
		})
	}
}

func (h *Hub) deliver(sub *subscription, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.l.Error("broadcast handler panicked", "topic", sub.topic, "subscriber", sub.id, "panic", r)
		}
	}()
	sub.handler(payload)
}

// Close stops all subscribers and waits for in-flight handlers to return.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for topic, subs := range h.subs {
		for id, sub := range subs {
			close(sub.ch)
			delete(subs, id)
		}
		delete(h.subs, topic)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
