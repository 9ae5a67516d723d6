package bgapi

import (
	"encoding/binary"
	"testing"
	"time"
)

// fakeTransport replays a fixed queue of pre-decoded frames, standing
// in for a real serial port so the engine's request/response and
// event-dispatch logic can be exercised without hardware.
type fakeTransport struct {
	written [][]byte
	queue   []*Frame
}

func (f *fakeTransport) Write(data []byte) error {
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) ReadFor(budget time.Duration, codec *Codec) (*Frame, error) {
	if len(f.queue) == 0 {
		return nil, ErrTimeout
	}
	frame := f.queue[0]
	f.queue = f.queue[1:]
	return frame, nil
}

func (f *fakeTransport) Close() error { return nil }

func newTestEngine(frames ...*Frame) (*Engine, *fakeTransport) {
	fake := &fakeTransport{queue: frames}
	e := &Engine{
		Bus:       NewBus(),
		codec:     NewCodec(false),
		xport:     fake,
		seenAddrs: make(map[addrKey]bool),
	}
	return e, fake
}

func u16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func respFrame(classID, commandID byte, payload []byte) *Frame {
	return &Frame{Header: FrameHeader{Type: MessageResponse, Tech: TechBluetooth, ClassID: classID, CommandID: commandID, PayloadLength: len(payload)}, Payload: payload}
}

func evtFrame(classID, commandID byte, payload []byte) *Frame {
	return &Frame{Header: FrameHeader{Type: MessageEvent, Tech: TechBluetooth, ClassID: classID, CommandID: commandID, PayloadLength: len(payload)}, Payload: payload}
}

func scanResponsePayload(sender [6]byte, addrType uint8, data []byte) []byte {
	p := []byte{0xC8, 0x00} // rssi=-56, pkt type 0
	p = append(p, sender[:]...)
	p = append(p, addrType, 0x00, byte(len(data)))
	p = append(p, data...)
	return p
}

func TestEngineDiscoverFiltersNonMyo(t *testing.T) {
	myoAddr := [6]byte{1, 2, 3, 4, 5, 6}
	otherAddr := [6]byte{9, 9, 9, 9, 9, 9}
	myoData := append([]byte{0x02, 0x01, 0x06}, myoControlServiceUUID...)
	otherData := []byte{0x02, 0x01, 0x06, 0xDE, 0xAD, 0xBE, 0xEF}

	e, _ := newTestEngine(
		respFrame(classGAP, cmdGapSetMode, u16(ResultSuccess)),
		respFrame(classGAP, cmdGapDiscover, u16(ResultSuccess)),
		evtFrame(classGAP, evtGapScanResponse, scanResponsePayload(myoAddr, 0, myoData)),
		evtFrame(classGAP, evtGapScanResponse, scanResponsePayload(otherAddr, 0, otherData)),
		respFrame(classGAP, cmdGapEndProcedure, u16(ResultSuccess)),
	)

	if err := e.SetGAPMode(GAPGeneralDiscoverable, GAPUndirectedConnectable, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := e.Discover(GAPDiscoverGeneric, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := e.PumpFor(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := e.EndProcedure(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	if len(e.Discovered) != 1 {
		t.Fatalf("Discovered = %d devices, want 1", len(e.Discovered))
	}
	if e.Discovered[0].Address.Bytes != myoAddr {
		t.Fatalf("discovered address = %v, want %v", e.Discovered[0].Address.Bytes, myoAddr)
	}
}

func TestEngineScanResponseDedup(t *testing.T) {
	addr := [6]byte{1, 2, 3, 4, 5, 6}
	data := append([]byte{0x02, 0x01, 0x06}, myoControlServiceUUID...)
	e, _ := newTestEngine(
		evtFrame(classGAP, evtGapScanResponse, scanResponsePayload(addr, 0, data)),
		evtFrame(classGAP, evtGapScanResponse, scanResponsePayload(addr, 0, data)),
	)
	if err := e.PumpFor(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(e.Discovered) != 1 {
		t.Fatalf("Discovered = %d, want 1 (duplicate advertisement should be deduped)", len(e.Discovered))
	}
}

func TestEngineConnectAndDisconnect(t *testing.T) {
	connAddr := DeviceAddress{Bytes: [6]byte{1, 2, 3, 4, 5, 6}, Type: AddressPublic}
	statusPayload := append([]byte{0, 0}, connAddr.Bytes[:]...)
	statusPayload = append(statusPayload, byte(connAddr.Type))
	statusPayload = append(statusPayload, u16(6)...)
	statusPayload = append(statusPayload, u16(64)...)
	statusPayload = append(statusPayload, u16(0)...)
	statusPayload = append(statusPayload, 0)

	e, _ := newTestEngine(
		respFrame(classGAP, cmdGapConnectDirect, append(u16(ResultSuccess), 0)),
		evtFrame(classConnection, evtConnectionStatus, statusPayload),
		respFrame(classConnection, cmdConnectionDisconnect, append([]byte{0}, u16(ResultSuccess)...)),
		evtFrame(classConnection, evtConnectionDisconnected, append([]byte{0}, u16(DisconnectLocalHost)...)),
	)

	if err := e.ConnectDirect(connAddr, 6, 6, 64, 0, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if ok, err := e.ReadUntil(EventConnectionStatus, 20*time.Millisecond); err != nil || !ok {
		t.Fatalf("ReadUntil(ConnectionStatus) = %v, %v", ok, err)
	}
	if e.Connection == nil || e.Connection.Handle != 0 {
		t.Fatalf("Connection = %+v, want handle 0", e.Connection)
	}

	if err := e.DisconnectConnection(0, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !e.Disconnecting {
		t.Fatal("expected Disconnecting to be set after a successful disconnect request")
	}
	if ok, err := e.ReadUntil(EventConnectionDisconnected, 20*time.Millisecond); err != nil || !ok {
		t.Fatalf("ReadUntil(ConnectionDisconnected) = %v, %v", ok, err)
	}
	if e.Connection != nil {
		t.Fatal("expected Connection to be cleared after disconnect")
	}
	if e.Disconnecting {
		t.Fatal("expected Disconnecting to be cleared after disconnect")
	}
}

func imuPayload(r IMUReading) []byte {
	var p []byte
	for _, v := range []int16{r.W, r.X, r.Y, r.Z, r.AX, r.AY, r.AZ, r.GX, r.GY, r.GZ} {
		p = append(p, u16(uint16(v))...)
	}
	return p
}

func TestEngineJointSampleAssembly(t *testing.T) {
	const connHandle = 0
	const imuHandle = 0x10
	const emgHandle = 0x20

	imu := IMUReading{W: 16384, X: 1, Y: 2, Z: 3, AX: 100, AY: 200, AZ: 300, GX: 4, GY: 5, GZ: 6}
	emgValue := make([]byte, 16)
	for i := range emgValue {
		emgValue[i] = byte(i + 1)
	}

	e, _ := newTestEngine()
	e.Connection = &Connection{Handle: connHandle}
	e.Handles = HandleTable{IMU: imuHandle, EMG: [4]uint16{emgHandle, emgHandle + 1, emgHandle + 2, emgHandle + 3}}

	var samples []Sample
	e.Bus.On(EventJointSample, func(payload any) {
		samples = append(samples, payload.(Sample))
	})

	imuEvt := EvtAttclientAttributeValue{Connection: connHandle, AttHandle: imuHandle, Value: imuPayload(imu)}
	if err := e.route(evtFrameFromAttrValue(imuEvt)); err != nil {
		t.Fatal(err)
	}
	emgEvt := EvtAttclientAttributeValue{Connection: connHandle, AttHandle: emgHandle, Value: emgValue}
	if err := e.route(evtFrameFromAttrValue(emgEvt)); err != nil {
		t.Fatal(err)
	}

	if len(samples) != 2 {
		t.Fatalf("got %d joint samples, want 2 (one EMG packet carries two readings)", len(samples))
	}
	if samples[0].IMU != imu || samples[1].IMU != imu {
		t.Fatalf("samples carry wrong IMU reading: %+v", samples)
	}
	if samples[0].Sequence != 0 || samples[1].Sequence != 1 {
		t.Fatalf("sequence numbers = %d, %d, want 0, 1", samples[0].Sequence, samples[1].Sequence)
	}
	wantA, wantB := EMGSample{1, 2, 3, 4, 5, 6, 7, 8}, EMGSample{9, 10, 11, 12, 13, 14, 15, 16}
	if samples[0].EMG != wantA || samples[1].EMG != wantB {
		t.Fatalf("EMG halves = %v, %v, want %v, %v", samples[0].EMG, samples[1].EMG, wantA, wantB)
	}
}

func evtFrameFromAttrValue(ev EvtAttclientAttributeValue) *Frame {
	p := []byte{ev.Connection}
	p = append(p, u16(ev.AttHandle)...)
	p = append(p, ev.Type, byte(len(ev.Value)))
	p = append(p, ev.Value...)
	return evtFrame(classGATT, evtAttclientAttributeValue, p)
}

func TestEngineDropsEMGBeforeFirstIMU(t *testing.T) {
	const emgHandle = 0x20
	e, _ := newTestEngine()
	e.Connection = &Connection{Handle: 0}
	e.Handles = HandleTable{EMG: [4]uint16{emgHandle, emgHandle + 1, emgHandle + 2, emgHandle + 3}}

	var fired int
	e.Bus.On(EventJointSample, func(any) { fired++ })

	emgValue := make([]byte, 16)
	ev := EvtAttclientAttributeValue{Connection: 0, AttHandle: emgHandle, Value: emgValue}
	if err := e.route(evtFrameFromAttrValue(ev)); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Fatalf("fired %d joint samples with no IMU reading yet, want 0", fired)
	}
	if e.curSample != 2 {
		t.Fatalf("curSample = %d, want 2 (sequence must still advance for both EMG halves)", e.curSample)
	}
}
