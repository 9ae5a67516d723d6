package bgapi

import "time"

// The public request/response helpers of spec §4.4. Each sends a
// command and waits (with the given budget, defaulting to 2s when 0)
// for its matching response event, then validates the result code
// where the protocol guarantees zero on success.

func withDefault(budget time.Duration) time.Duration {
	if budget <= 0 {
		return defaultTimeout
	}
	return budget
}

// SetGAPMode configures dongle discoverability/connectability.
func (e *Engine) SetGAPMode(discover, connect uint8, budget time.Duration) error {
	classID, cmdID, payload := encodeGapSetMode(discover, connect)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventGapSetMode, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	resp := e.lastGapSetMode
	if resp.Result != ResultSuccess {
		return &ProtocolError{Op: "gap_set_mode", Result: resp.Result}
	}
	return nil
}

// Discover starts a GAP discovery procedure in the given mode.
func (e *Engine) Discover(mode uint8, budget time.Duration) error {
	classID, cmdID, payload := encodeGapDiscover(mode)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventGapDiscover, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastGapDiscover.Result != ResultSuccess {
		return &ProtocolError{Op: "gap_discover", Result: e.lastGapDiscover.Result}
	}
	return nil
}

// EndProcedure ends the current GAP discovery/connection procedure.
// A non-zero result is not fatal: the command is idempotent and may
// legitimately be sent when nothing is running.
func (e *Engine) EndProcedure(budget time.Duration) error {
	classID, cmdID, payload := encodeGapEndProcedure()
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventGapEndProcedure, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	return nil
}

// ConnectDirect starts a direct connection attempt. On success the
// caller must still ReadUntil(EventConnectionStatus, ...) to learn
// the resulting Connection.
func (e *Engine) ConnectDirect(addr DeviceAddress, intervalMin, intervalMax, timeout, latency uint16, budget time.Duration) error {
	if e.Connection != nil {
		return &StateError{Op: "connect_direct", Msg: "already connected"}
	}
	classID, cmdID, payload := encodeGapConnectDirect(addr, intervalMin, intervalMax, timeout, latency)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventGapConnectDirect, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastGapConnectDirect.Result != ResultSuccess {
		return &ProtocolError{Op: "gap_connect_direct", Result: e.lastGapConnectDirect.Result}
	}
	return nil
}

// DisconnectConnection requests that handle be disconnected. If the
// dongle accepts the request (result zero) Disconnecting is set and
// the caller must ReadUntil(EventConnectionDisconnected, ...).
func (e *Engine) DisconnectConnection(handle uint8, budget time.Duration) error {
	classID, cmdID, payload := encodeConnectionDisconnect(handle)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventConnectionDisconnect, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastConnectionDisconnect.Result == ResultSuccess {
		e.Disconnecting = true
	}
	return nil
}

// ReadByGroupType enumerates primary services into Services.
func (e *Engine) ReadByGroupType(conn uint8, start, end uint16, uuid []byte, budget time.Duration) error {
	classID, cmdID, payload := encodeAttclientReadByGroupType(conn, start, end, uuid)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventAttclientReadByGroupType, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastReadByGroupType.Result != ResultSuccess {
		return &ProtocolError{Op: "attclient_read_by_group_type", Result: e.lastReadByGroupType.Result}
	}
	return e.waitProcedureCompleted(withDefault(budget))
}

// FindInformation enumerates attribute handles/UUIDs into Attributes.
func (e *Engine) FindInformation(conn uint8, start, end uint16, budget time.Duration) error {
	classID, cmdID, payload := encodeAttclientFindInformation(conn, start, end)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventAttclientFindInformation, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastFindInformation.Result != ResultSuccess {
		return &ProtocolError{Op: "attclient_find_information", Result: e.lastFindInformation.Result}
	}
	return e.waitProcedureCompleted(withDefault(budget))
}

// AttributeWrite writes data to a remote attribute.
func (e *Engine) AttributeWrite(conn uint8, handle uint16, data []byte, budget time.Duration) error {
	classID, cmdID, payload := encodeAttclientAttributeWrite(conn, handle, data)
	if err := e.send(classID, cmdID, payload); err != nil {
		return err
	}
	ok, err := e.ReadUntil(EventAttclientAttributeWrite, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	if e.lastAttributeWrite.Result != ResultSuccess {
		return &ProtocolError{Op: "attclient_attribute_write", Result: e.lastAttributeWrite.Result}
	}
	return e.waitProcedureCompleted(withDefault(budget))
}

// ReadByHandle issues a read of a single attribute by handle; the
// value itself arrives asynchronously as an attribute-value event.
// For the battery handle the engine stores it in LastBattery and
// fires EventBatteryLevel.
func (e *Engine) ReadByHandle(conn uint8, handle uint16) error {
	classID, cmdID, payload := encodeAttclientReadByHandle(conn, handle)
	return e.send(classID, cmdID, payload)
}

func (e *Engine) waitProcedureCompleted(budget time.Duration) error {
	ok, err := e.ReadUntil(EventAttclientProcedureCompleted, budget)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	return nil
}
