package bgapi

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// Hardware parameters fixed by the BLED112 dongle.
const (
	baudRate = 115200

	// pollInterval bounds each underlying blocking read so that
	// ReadFor can honour an arbitrary caller deadline; the serial
	// port itself only supports a fixed read timeout once opened.
	pollInterval = 20 * time.Millisecond
)

// Transport owns the BLED112's serial port. It performs writes
// synchronously and reads with a caller-supplied time budget. The
// serial device path is supplied by the caller; this driver does no
// USB enumeration of its own.
type Transport struct {
	port *serial.Port
	buf  [1]byte

	// PacketMode is not set by Open and is not consulted when
	// reading or writing; the framing mode in use is the codec's own
	// PacketMode, chosen in NewEngine.
	PacketMode bool
}

// Open opens dev (e.g. "/dev/ttyACM0" or "COM3") at 115200 baud with
// the serial library's default 8N1 framing. The port configuration
// sets no hardware flow control (RTS/CTS is not enabled here).
func Open(dev string) (*Transport, error) {
	cfg := &serial.Config{
		Name:        dev,
		Baud:        baudRate,
		ReadTimeout: pollInterval,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	return &Transport{port: port}, nil
}

// Write sends bytes to the dongle, blocking until the write
// completes or fails.
func (t *Transport) Write(data []byte) error {
	if _, err := t.port.Write(data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// ReadFor pumps single bytes from the port into codec until either a
// frame completes (returned non-nil) or budget elapses (ErrTimeout).
// A read error from the underlying port other than a timeout is
// surfaced immediately as a TransportError.
func (t *Transport) ReadFor(budget time.Duration, codec *Codec) (*Frame, error) {
	deadline := time.Now().Add(budget)
	for {
		n, err := t.port.Read(t.buf[:])
		if n > 0 {
			frame, ferr := codec.Feed(t.buf[0])
			if ferr != nil {
				return nil, ferr
			}
			if frame != nil {
				return frame, nil
			}
		}
		if err != nil && !isTimeout(err) {
			return nil, &TransportError{Op: "read", Err: err}
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
}

// Close releases the serial port.
func (t *Transport) Close() error {
	return t.port.Close()
}

// isTimeout reports whether err is the underlying port's per-read
// timeout rather than a hard I/O failure. tarm/serial returns io.EOF
// on a platform read timeout with zero bytes, which ReadFor treats as
// "nothing arrived yet", not an error.
func isTimeout(err error) bool {
	return err == io.EOF
}
