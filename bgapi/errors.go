// Package bgapi implements the Bluegiga BGAPI binary protocol spoken
// over UART by a BLED112-class USB dongle: frame codec, serial
// transport, an event bus, and the request/response engine built on
// top of them.
//
// The package is not safe for concurrent use: parsing and handler
// dispatch happen on whatever goroutine is pumping reads, and callers
// must not issue a new request from within a handler.
package bgapi

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned by request/response helpers when the awaited
// event does not fire before the deadline.
var ErrTimeout = errors.New("bgapi: timed out waiting for event")

// ErrFraming is returned by the codec when a frame would overrun the
// maximum payload size. Bytes that cannot start a frame are dropped
// silently rather than reported. The protocol itself never generates
// oversized frames; the check exists defensively against line noise.
var ErrFraming = errors.New("bgapi: framing error")

// ProtocolError wraps a non-zero BGAPI result code returned where the
// protocol guarantees zero on success.
type ProtocolError struct {
	Op     string
	Result uint16
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("bgapi: %s: result=0x%04x", e.Op, e.Result)
}

// StateError reports an invariant violation such as issuing a command
// that requires state the engine does not currently have (e.g.
// connecting while already connected).
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("bgapi: %s: %s", e.Op, e.Msg)
}

// NotFoundError reports a required Myo characteristic missing from the
// attributes discovered on the connected device. Fatal to streaming.
type NotFoundError struct {
	Op  string
	Msg string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bgapi: %s: %s", e.Op, e.Msg)
}

// TransportError wraps a serial open/read/write failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bgapi: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
