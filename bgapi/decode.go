package bgapi

import "encoding/binary"

// BGAPI class IDs used by this driver.
const (
	classConnection = 0x03
	classGATT       = 0x04
	classGAP        = 0x06
)

// Command IDs (cmd/response pairs share an ID within a class).
const (
	cmdConnectionDisconnect = 0x00

	cmdAttclientReadByGroupType = 0x01
	cmdAttclientFindInformation = 0x03
	cmdAttclientReadByHandle    = 0x04
	cmdAttclientAttributeWrite  = 0x05

	cmdGapSetMode      = 0x01
	cmdGapDiscover      = 0x02
	cmdGapConnectDirect = 0x03
	cmdGapEndProcedure  = 0x04
)

// Event IDs within the Connection and GATT/GAP classes.
const (
	evtConnectionStatus       = 0x00
	evtConnectionDisconnected = 0x04

	evtAttclientProcedureCompleted    = 0x01
	evtAttclientGroupFound            = 0x02
	evtAttclientFindInformationFound  = 0x04
	evtAttclientAttributeValue        = 0x05

	evtGapScanResponse = 0x00
)

// Result codes. Zero means success everywhere in BGAPI.
const ResultSuccess uint16 = 0

// Known disconnect reasons, propagated raw to callers (spec open
// question: consumers decide what, if anything, to do about the
// distinction).
const (
	DisconnectLocalHost        uint16 = 0x0216
	DisconnectSupervisionTimeout uint16 = 0x0208
)

// Decoded event/response payloads. Field names mirror the wire
// message's documented parameters (spec §6).

type RespGapSetMode struct{ Result uint16 }
type RespGapDiscover struct{ Result uint16 }
type RespGapEndProcedure struct{ Result uint16 }
type RespGapConnectDirect struct {
	Result           uint16
	ConnectionHandle uint8
}
type RespConnectionDisconnect struct {
	Connection uint8
	Result     uint16
}
type RespAttclientReadByGroupType struct {
	Connection uint8
	Result     uint16
}
type RespAttclientFindInformation struct {
	Connection uint8
	Result     uint16
}
type RespAttclientAttributeWrite struct {
	Connection uint8
	Result     uint16
}

type EvtConnectionStatus struct {
	Connection uint8
	Flags      uint8
	Address    [6]byte
	AddrType   uint8
	Interval   uint16
	Timeout    uint16
	Latency    uint16
	Bonding    uint8
}

type EvtConnectionDisconnected struct {
	Connection uint8
	Reason     uint16
}

type EvtAttclientProcedureCompleted struct {
	Connection uint8
	Result     uint16
	ChrHandle  uint16
}

type EvtAttclientGroupFound struct {
	Connection uint8
	Start      uint16
	End        uint16
	UUID       []byte
}

type EvtAttclientFindInformationFound struct {
	Connection uint8
	ChrHandle  uint16
	UUID       []byte
}

type EvtAttclientAttributeValue struct {
	Connection uint8
	AttHandle  uint16
	Type       uint8
	Value      []byte
}

type EvtGapScanResponse struct {
	RSSI     int8
	PktType  uint8
	Sender   [6]byte
	AddrType uint8
	Bond     uint8
	Data     []byte
}

// decodeResponse and decodeEvent turn a frame's payload into one of
// the typed structs above, or nil if the frame is a Wifi frame or an
// (class, command) pair this driver does not act on — both are
// parsed enough to be safely discarded, per spec §4.1.
func decodeResponse(f *Frame) (id EventID, payload any, ok bool) {
	if !f.IsBluetooth() {
		return 0, nil, false
	}
	p := f.Payload
	switch f.Header.ClassID {
	case classConnection:
		if f.Header.CommandID == cmdConnectionDisconnect {
			return EventConnectionDisconnect, RespConnectionDisconnect{
				Connection: p[0],
				Result:     binary.LittleEndian.Uint16(p[1:3]),
			}, true
		}
	case classGATT:
		switch f.Header.CommandID {
		case cmdAttclientReadByGroupType:
			return EventAttclientReadByGroupType, RespAttclientReadByGroupType{
				Connection: p[0],
				Result:     binary.LittleEndian.Uint16(p[1:3]),
			}, true
		case cmdAttclientFindInformation:
			return EventAttclientFindInformation, RespAttclientFindInformation{
				Connection: p[0],
				Result:     binary.LittleEndian.Uint16(p[1:3]),
			}, true
		case cmdAttclientAttributeWrite:
			return EventAttclientAttributeWrite, RespAttclientAttributeWrite{
				Connection: p[0],
				Result:     binary.LittleEndian.Uint16(p[1:3]),
			}, true
		}
	case classGAP:
		switch f.Header.CommandID {
		case cmdGapSetMode:
			return EventGapSetMode, RespGapSetMode{Result: binary.LittleEndian.Uint16(p[0:2])}, true
		case cmdGapDiscover:
			return EventGapDiscover, RespGapDiscover{Result: binary.LittleEndian.Uint16(p[0:2])}, true
		case cmdGapConnectDirect:
			return EventGapConnectDirect, RespGapConnectDirect{
				Result:           binary.LittleEndian.Uint16(p[0:2]),
				ConnectionHandle: p[2],
			}, true
		case cmdGapEndProcedure:
			return EventGapEndProcedure, RespGapEndProcedure{Result: binary.LittleEndian.Uint16(p[0:2])}, true
		}
	}
	return 0, nil, false
}

func decodeEvent(f *Frame) (id EventID, payload any, ok bool) {
	if !f.IsBluetooth() {
		return 0, nil, false
	}
	p := f.Payload
	switch f.Header.ClassID {
	case classConnection:
		switch f.Header.CommandID {
		case evtConnectionStatus:
			var addr [6]byte
			copy(addr[:], p[2:8])
			return EventConnectionStatus, EvtConnectionStatus{
				Connection: p[0],
				Flags:      p[1],
				Address:    addr,
				AddrType:   p[8],
				Interval:   binary.LittleEndian.Uint16(p[9:11]),
				Timeout:    binary.LittleEndian.Uint16(p[11:13]),
				Latency:    binary.LittleEndian.Uint16(p[13:15]),
				Bonding:    p[15],
			}, true
		case evtConnectionDisconnected:
			return EventConnectionDisconnected, EvtConnectionDisconnected{
				Connection: p[0],
				Reason:     binary.LittleEndian.Uint16(p[1:3]),
			}, true
		}
	case classGATT:
		switch f.Header.CommandID {
		case evtAttclientProcedureCompleted:
			return EventAttclientProcedureCompleted, EvtAttclientProcedureCompleted{
				Connection: p[0],
				Result:     binary.LittleEndian.Uint16(p[1:3]),
				ChrHandle:  binary.LittleEndian.Uint16(p[3:5]),
			}, true
		case evtAttclientGroupFound:
			uuidLen := int(p[5])
			return EventAttclientGroupFound, EvtAttclientGroupFound{
				Connection: p[0],
				Start:      binary.LittleEndian.Uint16(p[1:3]),
				End:        binary.LittleEndian.Uint16(p[3:5]),
				UUID:       append([]byte(nil), p[6:6+uuidLen]...),
			}, true
		case evtAttclientFindInformationFound:
			uuidLen := int(p[3])
			return EventAttclientFindInformationFound, EvtAttclientFindInformationFound{
				Connection: p[0],
				ChrHandle:  binary.LittleEndian.Uint16(p[1:3]),
				UUID:       append([]byte(nil), p[4:4+uuidLen]...),
			}, true
		case evtAttclientAttributeValue:
			valLen := int(p[4])
			return EventAttclientAttributeValue, EvtAttclientAttributeValue{
				Connection: p[0],
				AttHandle:  binary.LittleEndian.Uint16(p[1:3]),
				Type:       p[3],
				Value:      append([]byte(nil), p[5:5+valLen]...),
			}, true
		}
	case classGAP:
		if f.Header.CommandID == evtGapScanResponse {
			dataLen := int(p[10])
			var sender [6]byte
			copy(sender[:], p[2:8])
			return EventGapScanResponse, EvtGapScanResponse{
				RSSI:     int8(p[0]),
				PktType:  p[1],
				Sender:   sender,
				AddrType: p[8],
				Bond:     p[9],
				Data:     append([]byte(nil), p[11:11+dataLen]...),
			}, true
		}
	}
	return 0, nil, false
}
