package bgapi

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// defaultTimeout is the default deadline for request/response helpers
// (spec §4.4).
const defaultTimeout = 2 * time.Second

// sampleRate is the fixed Myo streaming rate.
const sampleRate = 200.0

// resetPeriod is how many samples elapse between wall-clock
// re-anchors of the timestamp source (spec §4.6).
const resetPeriod = 200

// myoControlServiceUUID is the 16-byte UUID a Myo's control service
// advertises, in the byte order emitted by the dongle.
var myoControlServiceUUID = []byte{
	0x42, 0x48, 0x12, 0x4A, 0x7F, 0x2C, 0x48, 0x47,
	0xB9, 0xDE, 0x04, 0xA9, 0x00, 0x01, 0x06, 0xD5,
}

// transport is the subset of *Transport the engine depends on, so
// tests can substitute a fake serial device.
type transport interface {
	Write([]byte) error
	ReadFor(budget time.Duration, codec *Codec) (*Frame, error)
	Close() error
}

// Engine drives the codec and transport, routes decoded frames to the
// event bus, and maintains connection state, GATT discovery results
// and the resolved Myo handle table. It is not safe for concurrent
// use: all parsing and handler dispatch happens on whichever
// goroutine calls a request/response helper or a scan loop.
type Engine struct {
	Bus *Bus

	// DebugOut, when non-nil, receives one trace line per sent or
	// received frame. Library code never writes to the global logger
	// directly so it stays usable embedded in a host application.
	DebugOut io.Writer

	codec *Codec
	xport transport

	Connection    *Connection
	Services      []ServiceRange
	Attributes    []AttributeInfo
	Disconnecting bool
	Handles       HandleTable

	Discovered []ScanResult
	seenAddrs  map[addrKey]bool

	currentIMU  *IMUReading
	LastBattery uint8

	curSample int
	baseTime  time.Time

	// Last-seen response payloads, consulted by the request/response
	// helpers in requests.go immediately after ReadUntil succeeds.
	lastGapSetMode           RespGapSetMode
	lastGapDiscover          RespGapDiscover
	lastGapConnectDirect     RespGapConnectDirect
	lastConnectionDisconnect RespConnectionDisconnect
	lastReadByGroupType      RespAttclientReadByGroupType
	lastFindInformation      RespAttclientFindInformation
	lastAttributeWrite       RespAttclientAttributeWrite
}

type addrKey struct {
	bytes [6]byte
	typ   AddressType
}

// NewEngine constructs an engine over xport. packetMode mirrors the
// dongle's flow-control configuration (off when RTS/CTS is in use).
func NewEngine(xport *Transport, packetMode bool) *Engine {
	e := &Engine{
		Bus:       NewBus(),
		codec:     NewCodec(packetMode),
		xport:     xport,
		seenAddrs: make(map[addrKey]bool),
	}
	return e
}

// Close releases the underlying transport.
func (e *Engine) Close() error {
	return e.xport.Close()
}

// ResetDiscovery clears the accumulated scan results and dedup set,
// as happens whenever a new scan procedure begins.
func (e *Engine) ResetDiscovery() {
	e.Discovered = nil
	e.seenAddrs = make(map[addrKey]bool)
}

// send encodes and writes one outbound command.
func (e *Engine) send(classID, commandID byte, payload []byte) error {
	frame, err := e.codec.Encode(classID, commandID, payload)
	if err != nil {
		return err
	}
	if e.DebugOut != nil {
		fmt.Fprintf(e.DebugOut, "send class=%#02x cmd=%#02x payload=% x\n", classID, commandID, payload)
	}
	return e.xport.Write(frame)
}

// pumpOne reads and routes exactly one frame's worth of bytes, or
// returns timedOut=true if budget elapses first.
func (e *Engine) pumpOne(budget time.Duration) (timedOut bool, err error) {
	frame, err := e.xport.ReadFor(budget, e.codec)
	if err == ErrTimeout {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, e.route(frame)
}

// ReadUntil pumps frames until id fires or budget elapses. See
// Bus.ReadUntil for the consume-on-success contract.
func (e *Engine) ReadUntil(id EventID, budget time.Duration) (bool, error) {
	return e.Bus.ReadUntil(id, budget, e.pumpOne)
}

// PumpFor reads and routes frames for the entire duration, never
// returning early (the steady-state scan loop's building block).
func (e *Engine) PumpFor(budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if _, err := e.pumpOne(remaining); err != nil {
			return err
		}
	}
}

// PumpForConditional reads and routes frames for budget, returning
// early with ok=true if id fires before the deadline.
func (e *Engine) PumpForConditional(id EventID, budget time.Duration) (ok bool, err error) {
	return e.ReadUntil(id, budget)
}

func (e *Engine) route(frame *Frame) error {
	if e.DebugOut != nil {
		fmt.Fprintf(e.DebugOut, "recv type=%v class=%#02x cmd=%#02x payload=% x\n",
			frame.Header.Type, frame.Header.ClassID, frame.Header.CommandID, frame.Payload)
	}
	if frame.Header.Type == MessageResponse {
		if id, payload, decoded := decodeResponse(frame); decoded {
			e.recordResponse(id, payload)
			e.Bus.Fire(id, payload)
		}
		return nil
	}
	id, payload, decoded := decodeEvent(frame)
	if !decoded {
		return nil
	}
	return e.handleEvent(id, payload)
}

func (e *Engine) handleEvent(id EventID, payload any) error {
	switch id {
	case EventGapScanResponse:
		e.onScanResponse(payload.(EvtGapScanResponse))
	case EventConnectionStatus:
		e.onConnectionStatus(payload.(EvtConnectionStatus))
	case EventConnectionDisconnected:
		ev := payload.(EvtConnectionDisconnected)
		if e.Connection == nil || ev.Connection == e.Connection.Handle {
			e.onConnectionDisconnected(ev)
			e.Bus.Fire(id, ev)
		}
		return nil
	case EventAttclientGroupFound:
		ev := payload.(EvtAttclientGroupFound)
		if e.Connection != nil && ev.Connection == e.Connection.Handle {
			e.Services = append(e.Services, ServiceRange{StartHandle: ev.Start, EndHandle: ev.End, UUID: ev.UUID})
			e.Bus.Fire(id, ev)
		}
		return nil
	case EventAttclientFindInformationFound:
		ev := payload.(EvtAttclientFindInformationFound)
		if e.Connection != nil && ev.Connection == e.Connection.Handle {
			e.Attributes = append(e.Attributes, AttributeInfo{Handle: ev.ChrHandle, UUID: ev.UUID})
			e.Bus.Fire(id, ev)
		}
		return nil
	case EventAttclientProcedureCompleted:
		ev := payload.(EvtAttclientProcedureCompleted)
		if e.Connection == nil || ev.Connection != e.Connection.Handle {
			return nil
		}
		if ev.Result != ResultSuccess {
			return &ProtocolError{Op: "attclient_procedure_completed", Result: ev.Result}
		}
		e.Bus.Fire(id, ev)
		return nil
	case EventAttclientAttributeValue:
		ev := payload.(EvtAttclientAttributeValue)
		if e.Connection != nil && ev.Connection == e.Connection.Handle {
			e.onAttributeValue(ev)
			e.Bus.Fire(id, ev)
		}
		return nil
	}
	e.Bus.Fire(id, payload)
	return nil
}

func (e *Engine) recordResponse(id EventID, payload any) {
	switch id {
	case EventGapSetMode:
		e.lastGapSetMode = payload.(RespGapSetMode)
	case EventGapDiscover:
		e.lastGapDiscover = payload.(RespGapDiscover)
	case EventGapConnectDirect:
		e.lastGapConnectDirect = payload.(RespGapConnectDirect)
	case EventConnectionDisconnect:
		e.lastConnectionDisconnect = payload.(RespConnectionDisconnect)
	case EventAttclientReadByGroupType:
		e.lastReadByGroupType = payload.(RespAttclientReadByGroupType)
	case EventAttclientFindInformation:
		e.lastFindInformation = payload.(RespAttclientFindInformation)
	case EventAttclientAttributeWrite:
		e.lastAttributeWrite = payload.(RespAttclientAttributeWrite)
	}
}

func (e *Engine) onScanResponse(ev EvtGapScanResponse) {
	sr := ScanResult{
		Address:     DeviceAddress{Bytes: ev.Sender, Type: AddressType(ev.AddrType)},
		RSSI:        ev.RSSI,
		Advertising: ev.Data,
	}
	if !hasSuffix(ev.Data, myoControlServiceUUID) {
		return
	}
	key := addrKey{bytes: ev.Sender, typ: sr.Address.Type}
	if e.seenAddrs[key] {
		return
	}
	e.seenAddrs[key] = true
	e.Discovered = append(e.Discovered, sr)
}

func (e *Engine) onConnectionStatus(ev EvtConnectionStatus) {
	e.Connection = &Connection{
		Handle:   ev.Connection,
		Flags:    ev.Flags,
		Peer:     DeviceAddress{Bytes: ev.Address, Type: AddressType(ev.AddrType)},
		Interval: ev.Interval,
		Timeout:  ev.Timeout,
		Latency:  ev.Latency,
		Bonding:  ev.Bonding,
	}
}

func (e *Engine) onConnectionDisconnected(EvtConnectionDisconnected) {
	e.Connection = nil
	e.Services = nil
	e.Attributes = nil
	e.Handles = HandleTable{}
	e.Disconnecting = false
}

func (e *Engine) onAttributeValue(ev EvtAttclientAttributeValue) {
	switch {
	case ev.AttHandle == e.Handles.IMU:
		e.assembleIMU(ev.Value)
	case ev.AttHandle == e.Handles.EMG[0], ev.AttHandle == e.Handles.EMG[1],
		ev.AttHandle == e.Handles.EMG[2], ev.AttHandle == e.Handles.EMG[3]:
		e.assembleEMG(ev.Value)
	case e.Handles.Battery != 0 && ev.AttHandle == e.Handles.Battery:
		if len(ev.Value) > 0 {
			e.LastBattery = ev.Value[0]
			e.Bus.Fire(EventBatteryLevel, e.LastBattery)
		}
	}
}

func (e *Engine) assembleIMU(value []byte) {
	if len(value) < 20 {
		return
	}
	r := IMUReading{
		W:  int16(binary.LittleEndian.Uint16(value[0:2])),
		X:  int16(binary.LittleEndian.Uint16(value[2:4])),
		Y:  int16(binary.LittleEndian.Uint16(value[4:6])),
		Z:  int16(binary.LittleEndian.Uint16(value[6:8])),
		AX: int16(binary.LittleEndian.Uint16(value[8:10])),
		AY: int16(binary.LittleEndian.Uint16(value[10:12])),
		AZ: int16(binary.LittleEndian.Uint16(value[12:14])),
		GX: int16(binary.LittleEndian.Uint16(value[14:16])),
		GY: int16(binary.LittleEndian.Uint16(value[16:18])),
		GZ: int16(binary.LittleEndian.Uint16(value[18:20])),
	}
	e.currentIMU = &r
	e.Bus.Fire(EventIMUSample, r)
}

func (e *Engine) assembleEMG(value []byte) {
	if len(value) < 16 {
		return
	}
	var a, b EMGSample
	for i := 0; i < 8; i++ {
		a[i] = int8(value[i])
		b[i] = int8(value[8+i])
	}
	for _, emg := range [2]EMGSample{a, b} {
		e.Bus.Fire(EventEMGSample, emg)
		if e.currentIMU == nil {
			e.nextTimestamp() // keep the sequence counter moving in lockstep
			continue
		}
		ts, seq := e.nextTimestamp()
		e.Bus.Fire(EventJointSample, Sample{
			Timestamp: ts,
			Sequence:  seq,
			EMG:       emg,
			IMU:       *e.currentIMU,
		})
	}
}

// nextTimestamp implements the fixed-rate, periodically re-anchored
// clock of spec §4.6: every resetPeriod samples the base is reset to
// wall-clock now, and each sample advances by exactly 1/200s from
// there.
func (e *Engine) nextTimestamp() (ts float64, seq int) {
	if e.curSample%resetPeriod == 0 {
		e.baseTime = time.Now()
		e.curSample = 0
	}
	ts = timeToUnix(e.baseTime) + float64(e.curSample)*(1.0/sampleRate)
	seq = e.curSample
	e.curSample++
	return ts, seq
}

func timeToUnix(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func hasSuffix(data, suffix []byte) bool {
	if len(data) < len(suffix) {
		return false
	}
	tail := data[len(data)-len(suffix):]
	for i := range suffix {
		if tail[i] != suffix[i] {
			return false
		}
	}
	return true
}
