package focusmomo

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownSession = errors.New("unknown session kind")
	ErrUnknownAction  = errors.New("unknown action")
)
