// Package dbusipc carries orchestrator requests and broadcasts over D-Bus.
package dbusipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"

	"github.com/benjamonnguyen/focusmomo"
)

const (
	ObjectPath    = "/io/github/benjamonnguyen/focusmomo"
	InterfaceName = "io.github.benjamonnguyen.focusmomo.Orchestrator"
	ServiceName   = "io.github.benjamonnguyen.focusmomo"

	BroadcastMember = "Broadcast"
)

type Dispatcher interface {
	Dispatch(context.Context, focusmomo.Request) focusmomo.Response
}

// Service is the exported D-Bus object. Each method call arrives on its own goroutine.
type Service struct {
	ctx context.Context
	d   Dispatcher
	l   log.Logger
}

func NewService(ctx context.Context, d Dispatcher, logger log.Logger) *Service {
	return &Service{ctx: ctx, d: d, l: logger}
}

// Dispatch decodes action and its JSON payload, runs it and returns the JSON response.
// Malformed requests fail at the D-Bus level; domain failures come back as OK=false.
func (s *Service) Dispatch(action, payload string) (string, *dbus.Error) {
	req, err := focusmomo.DecodeRequest(focusmomo.Action(action), []byte(payload))
	if err != nil {
		s.l.Warn("rejected request", "action", action, "err", err)
		return "", dbus.MakeFailedError(err)
	}

	s.l.Debug("dispatching", "action", action)
	resp := s.d.Dispatch(s.ctx, req)
	b, err := json.Marshal(resp)
	if err != nil {
		s.l.Error("failed to encode response", "action", action, "err", err)
		return "", dbus.MakeFailedError(err)
	}
	return string(b), nil
}

func Connect(bus string) (*dbus.Conn, error) {
	switch bus {
	case focusmomo.SystemBus:
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn, nil
	default:
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		return conn, nil
	}
}

// Serve claims ServiceName, exports s and blocks until ctx is done.
func Serve(ctx context.Context, conn *dbus.Conn, s *Service) error {
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}
	defer conn.ReleaseName(ServiceName) //nolint

	if err := conn.Export(s, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}

	<-ctx.Done()
	return nil
}
