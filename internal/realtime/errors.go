package realtime

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed    = errors.New("session is closed")
	ErrAlreadyConnected = errors.New("session is already connected")
)

// CredentialError means the ephemeral credential could not be obtained from
// the backend.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return fmt.Sprintf("credential: %v", e.Err) }
func (e *CredentialError) Unwrap() error { return e.Err }

// MediaAccessError means the local audio input could not be opened.
type MediaAccessError struct {
	Err error
}

func (e *MediaAccessError) Error() string { return fmt.Sprintf("media access: %v", e.Err) }
func (e *MediaAccessError) Unwrap() error { return e.Err }

// NegotiationError means the offer/answer exchange failed at Stage.
type NegotiationError struct {
	Stage string
	Err   error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("negotiation failed at %s: %v", e.Stage, e.Err)
}
func (e *NegotiationError) Unwrap() error { return e.Err }

// ProtocolParseError is a malformed control message or function arguments.
// It is always logged and dropped.
type ProtocolParseError struct {
	Reason string
	Err    error
}

func (e *ProtocolParseError) Error() string {
	return fmt.Sprintf("protocol parse: %s: %v", e.Reason, e.Err)
}
func (e *ProtocolParseError) Unwrap() error { return e.Err }

// DispatchError is a failed POST /function_call. StatusCode is zero when the
// backend could not be reached.
type DispatchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DispatchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("dispatch: status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("dispatch: status %d", e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("dispatch: %s: %v", e.Message, e.Err)
	default:
		return fmt.Sprintf("dispatch: %v", e.Err)
	}
}
func (e *DispatchError) Unwrap() error { return e.Err }
