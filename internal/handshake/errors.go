package handshake

import (
	stderrors "errors"
)

// Reason categorizes handshake failures. The buckets are deliberately
// coarse: callers may surface which bucket occurred, but never which
// protocol step failed.
type Reason uint8

const (
	ReasonConnectionError Reason = iota + 1
	ReasonProtocolViolation
	ReasonWrongPassword
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonConnectionError:
		return "connection_error"
	case ReasonProtocolViolation:
		return "protocol_violation"
	case ReasonWrongPassword:
		return "wrong_password"
	case ReasonTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the single tagged error type every handshake failure maps to.
type Error struct {
	Reason Reason
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	if e.Inner == nil {
		return "handshake: " + e.Msg
	}
	return "handshake: " + e.Msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

func newError(reason Reason, msg string) *Error {
	return &Error{Reason: reason, Msg: msg}
}

func wrapError(reason Reason, msg string, inner error) *Error {
	return &Error{Reason: reason, Msg: msg, Inner: inner}
}

// IsReason reports whether err is a handshake error with the given reason.
func IsReason(err error, reason Reason) bool {
	var he *Error
	if stderrors.As(err, &he) {
		return he.Reason == reason
	}
	return false
}
