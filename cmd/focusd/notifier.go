package main

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

type logNotifier struct {
	l log.Logger
}

func (n logNotifier) Notify(title, message string) error {
	n.l.Info(title, "message", message)
	return nil
}

// multiNotifier fans out to every notifier and joins their errors.
type multiNotifier []focusmomo.Notifier

func (m multiNotifier) Notify(title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
