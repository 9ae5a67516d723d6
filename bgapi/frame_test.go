package bgapi

import (
	"bytes"
	"testing"
)

func feedAll(t *testing.T, c *Codec, data []byte) *Frame {
	t.Helper()
	for i, b := range data {
		frame, err := c.Feed(b)
		if err != nil {
			t.Fatalf("Feed(byte %d): %v", i, err)
		}
		if frame != nil {
			return frame
		}
	}
	return nil
}

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec(false)
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	wire, err := c.Encode(classGATT, cmdAttclientAttributeWrite, payload)
	if err != nil {
		t.Fatal(err)
	}

	decoder := NewCodec(false)
	frame := feedAll(t, decoder, wire)
	if frame == nil {
		t.Fatal("no frame decoded")
	}
	if frame.Header.Type != MessageResponse {
		t.Errorf("Type = %v, want MessageResponse", frame.Header.Type)
	}
	if frame.Header.Tech != TechBluetooth {
		t.Errorf("Tech = %v, want TechBluetooth", frame.Header.Tech)
	}
	if frame.Header.ClassID != classGATT || frame.Header.CommandID != cmdAttclientAttributeWrite {
		t.Errorf("ClassID/CommandID = %#x/%#x, want %#x/%#x", frame.Header.ClassID, frame.Header.CommandID, classGATT, cmdAttclientAttributeWrite)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("Payload = %v, want %v", frame.Payload, payload)
	}
}

func TestCodecEventBit(t *testing.T) {
	c := NewCodec(false)
	// A hand-built event frame: message type bit set, Bluetooth tech,
	// zero-length payload, class/command arbitrary.
	wire := []byte{0x80, 0x00, classGAP, evtGapScanResponse}
	frame := feedAll(t, c, wire)
	if frame == nil {
		t.Fatal("no frame decoded")
	}
	if frame.Header.Type != MessageEvent {
		t.Errorf("Type = %v, want MessageEvent", frame.Header.Type)
	}
}

func TestCodecSkipsNoise(t *testing.T) {
	c := NewCodec(false)
	payload := []byte{0xAA}
	wire, err := c.Encode(classConnection, cmdConnectionDisconnect, payload)
	if err != nil {
		t.Fatal(err)
	}
	// Bytes that cannot start a frame (top bits don't match any valid
	// message-type/tech-type combination) must be dropped while idle.
	noisy := append([]byte{0xF0, 0xF1, 0xF2}, wire...)
	frame := feedAll(t, c, noisy)
	if frame == nil {
		t.Fatal("no frame decoded after noise")
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("Payload = %v, want %v", frame.Payload, payload)
	}
}

func TestCodecRejectsOversizedPayload(t *testing.T) {
	c := NewCodec(false)
	_, err := c.Encode(classGATT, cmdAttclientAttributeWrite, make([]byte, maxPayloadLen+1))
	if err == nil {
		t.Fatal("expected an error for an oversized payload")
	}
}
