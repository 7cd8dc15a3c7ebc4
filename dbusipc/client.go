package dbusipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"

	"github.com/benjamonnguyen/focusmomo"
)

// Client talks to a running focusd over conn.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	l    log.Logger
}

func NewClient(conn *dbus.Conn, logger log.Logger) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(ServiceName, dbus.ObjectPath(ObjectPath)),
		l:    logger,
	}
}

// Do sends req and returns the decoded response. A response with OK=false is returned
// together with an error carrying its message.
func (c *Client) Do(ctx context.Context, req focusmomo.Request) (focusmomo.Response, error) {
	action, payload, err := focusmomo.EncodeRequest(req)
	if err != nil {
		return focusmomo.Response{}, err
	}

	var raw string
	if err := c.obj.CallWithContext(ctx, InterfaceName+".Dispatch", 0, string(action), string(payload)).Store(&raw); err != nil {
		return focusmomo.Response{}, fmt.Errorf("call %s: %w", action, err)
	}
	return decodeResponse(raw)
}

func (c *Client) GetTimerState(ctx context.Context) (focusmomo.TimerState, error) {
	resp, err := c.Do(ctx, focusmomo.GetTimerState{})
	if err != nil {
		return focusmomo.TimerState{}, err
	}
	if resp.TimerState == nil {
		return focusmomo.TimerState{}, errors.New("response missing timer state")
	}
	return *resp.TimerState, nil
}

// Subscribe delivers Broadcast signals for topic to handler until unsubscribe is called.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) (unsubscribe func()) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(dbus.ObjectPath(ObjectPath)),
		dbus.WithMatchInterface(InterfaceName),
		dbus.WithMatchMember(BroadcastMember),
		dbus.WithMatchArg(0, topic),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		c.l.Error("add match failed", "topic", topic, "err", err)
		return func() {}
	}

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				if t, payload, ok := decodeBroadcast(sig); ok && t == topic {
					handler(payload)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.conn.RemoveSignal(ch)
			_ = c.conn.RemoveMatchSignal(opts...)
			close(done)
		})
	}
}

func decodeResponse(raw string) (focusmomo.Response, error) {
	var resp focusmomo.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return focusmomo.Response{}, fmt.Errorf("decode response: %w", err)
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "request failed"
		}
		return resp, errors.New(msg)
	}
	return resp, nil
}
