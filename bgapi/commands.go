package bgapi

import "encoding/binary"

// Outbound payload builders for the BGAPI commands this driver uses
// (spec §6). Each returns the class/command ID pair and payload bytes
// for Codec.Encode.

func encodeConnectionDisconnect(connection uint8) (classID, commandID byte, payload []byte) {
	return classConnection, cmdConnectionDisconnect, []byte{connection}
}

func encodeAttclientReadByGroupType(connection uint8, start, end uint16, uuid []byte) (byte, byte, []byte) {
	p := make([]byte, 0, 6+len(uuid))
	p = append(p, connection)
	p = appendU16(p, start)
	p = appendU16(p, end)
	p = append(p, byte(len(uuid)))
	p = append(p, uuid...)
	return classGATT, cmdAttclientReadByGroupType, p
}

func encodeAttclientFindInformation(connection uint8, start, end uint16) (byte, byte, []byte) {
	p := []byte{connection}
	p = appendU16(p, start)
	p = appendU16(p, end)
	return classGATT, cmdAttclientFindInformation, p
}

func encodeAttclientReadByHandle(connection uint8, handle uint16) (byte, byte, []byte) {
	p := []byte{connection}
	p = appendU16(p, handle)
	return classGATT, cmdAttclientReadByHandle, p
}

func encodeAttclientAttributeWrite(connection uint8, handle uint16, data []byte) (byte, byte, []byte) {
	p := make([]byte, 0, 4+len(data))
	p = append(p, connection)
	p = appendU16(p, handle)
	p = append(p, byte(len(data)))
	p = append(p, data...)
	return classGATT, cmdAttclientAttributeWrite, p
}

func encodeGapSetMode(discover, connect uint8) (byte, byte, []byte) {
	return classGAP, cmdGapSetMode, []byte{discover, connect}
}

func encodeGapDiscover(mode uint8) (byte, byte, []byte) {
	return classGAP, cmdGapDiscover, []byte{mode}
}

func encodeGapConnectDirect(addr DeviceAddress, intervalMin, intervalMax, timeout, latency uint16) (byte, byte, []byte) {
	p := make([]byte, 0, 15)
	p = append(p, addr.Bytes[:]...)
	p = append(p, byte(addr.Type))
	p = appendU16(p, intervalMin)
	p = appendU16(p, intervalMax)
	p = appendU16(p, timeout)
	p = appendU16(p, latency)
	return classGAP, cmdGapConnectDirect, p
}

func encodeGapEndProcedure() (byte, byte, []byte) {
	return classGAP, cmdGapEndProcedure, nil
}

func appendU16(p []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(p, b[:]...)
}
