package bgapi

import "time"

// EventID names one of the fixed set of BGAPI responses and events
// this driver understands, plus the derived sample events the Myo
// layer fires through the same bus. Using an enum instead of the
// original's string-keyed signals lets the compiler catch a
// misspelled event name.
type EventID int

const (
	EventGapSetMode EventID = iota
	EventGapDiscover
	EventGapEndProcedure
	EventGapConnectDirect
	EventConnectionDisconnect
	EventAttclientReadByGroupType
	EventAttclientFindInformation
	EventAttclientAttributeWrite

	EventGapScanResponse
	EventConnectionStatus
	EventConnectionDisconnected
	EventAttclientGroupFound
	EventAttclientFindInformationFound
	EventAttclientProcedureCompleted
	EventAttclientAttributeValue

	// Derived events, fired by the engine's attribute-value
	// dispatch rather than decoded directly off the wire.
	EventIMUSample
	EventEMGSample
	EventJointSample
	EventBatteryLevel

	eventCount
)

// Handler is invoked synchronously from whichever goroutine is
// pumping reads. A handler must not block on I/O or call back into
// the bus's ReadUntil (no recursive pumps).
type Handler func(payload any)

// Bus is a synchronous, named-event dispatcher. Handlers are
// registered once, up front; firing an event invokes every
// registered handler in registration order before returning. A fire
// counter per event backs ReadUntil's "has this already happened"
// check.
type Bus struct {
	handlers [eventCount][]Handler
	counts   [eventCount]int
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// On registers h to run whenever id fires, in addition to any
// handlers already registered for id.
func (b *Bus) On(id EventID, h Handler) {
	b.handlers[id] = append(b.handlers[id], h)
}

// Fire invokes id's handlers in registration order and increments its
// fire counter by exactly one.
func (b *Bus) Fire(id EventID, payload any) {
	b.counts[id]++
	for _, h := range b.handlers[id] {
		h(payload)
	}
}

// Count returns id's current fire count.
func (b *Bus) Count(id EventID) int {
	return b.counts[id]
}

// take consumes one pending fire of id, if any, returning whether one
// was available.
func (b *Bus) take(id EventID) bool {
	if b.counts[id] > 0 {
		b.counts[id]--
		return true
	}
	return false
}

// pump reads and dispatches frames until stop returns true or the
// deadline passes. Every request/response helper and the conditional
// scan loop are built on top of it; Engine.PumpFor runs its own loop
// over the same dispatch step.
func (b *Bus) pump(budget time.Duration, dispatch func(time.Duration) (bool, error), stop func() bool) (bool, error) {
	deadline := time.Now().Add(budget)
	for {
		if stop() {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		timedOut, err := dispatch(remaining)
		if err != nil {
			return false, err
		}
		if timedOut {
			return false, nil
		}
	}
}

// ReadUntil pumps frames through dispatch until id has fired at least
// once or the deadline passes. On success it consumes exactly one
// fire of id and returns true; on timeout it returns false having
// consumed nothing.
func (b *Bus) ReadUntil(id EventID, budget time.Duration, dispatch func(time.Duration) (bool, error)) (bool, error) {
	if b.take(id) {
		return true, nil
	}
	ok, err := b.pump(budget, dispatch, func() bool { return b.take(id) })
	return ok, err
}
