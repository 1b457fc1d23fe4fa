package call

import (
	"errors"
	"fmt"
)

var (
	ErrRoomFull          = errors.New("room is full")
	ErrPeerDeparted      = errors.New("peer left the call")
	ErrMediaAccessDenied = errors.New("audio capture unavailable")
	ErrNegotiationFailed = errors.New("negotiation failed")
	ErrConnectionFailed  = errors.New("connection failed")
	ErrTransportLost     = errors.New("signaling connection lost")
	ErrUnexpectedSignal  = errors.New("unexpected signal type")
)

// CallError annotates a failure with the operation that produced it. The
// UI only ever sees the formatted string, never the raw error.
type CallError struct {
	Op      string
	Err     error
	Details string
}

func (e *CallError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *CallError {
	return &CallError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *CallError {
	return &CallError{Op: op, Err: err, Details: details}
}
