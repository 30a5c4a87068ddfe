package fulfillment

import (
	"errors"
	"fmt"
)

// Kind classifies why a fulfillment call failed.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindRejected    Kind = "rejected"
	KindUnavailable Kind = "unavailable"
	KindProtocol    Kind = "protocol"
)

var (
	// ErrTimeout matches calls that exceeded the per-attempt deadline.
	ErrTimeout = errors.New("fulfillment service timeout")
	// ErrRejected matches non-success HTTP responses.
	ErrRejected = errors.New("fulfillment service rejected the request")
	// ErrUnavailable matches calls that never got a response.
	ErrUnavailable = errors.New("fulfillment service unavailable")
	// ErrProtocol matches success responses without a usable identifier.
	ErrProtocol = errors.New("invalid fulfillment service response")
)

// Error is returned by every failed fulfillment call. It matches exactly one
// of the package sentinels with errors.Is.
type Error struct {
	Kind Kind
	// Status is the HTTP status of a rejected call, zero otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.sentinel().Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindTimeout:
		return ErrTimeout
	case KindRejected:
		return ErrRejected
	case KindProtocol:
		return ErrProtocol
	default:
		return ErrUnavailable
	}
}

// KindOf reports the failure kind of err, or "" when err is not a fulfillment error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
