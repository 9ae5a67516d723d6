package myo

// myoBaseUUID is the 128-bit UUID template Myo characteristics share;
// bytes 12-13 are overwritten per characteristic with its short code
// (little-endian, as delivered by the dongle).
var myoBaseUUID = [16]byte{
	0x42, 0x48, 0x12, 0x4A, 0x7F, 0x2C, 0x48, 0x47,
	0xB9, 0xDE, 0x04, 0xA9, 0x00, 0x00, 0x06, 0xD5,
}

// myoUUID expands a Myo characteristic short code into its full
// 128-bit UUID. shortCode is given high-byte-first (as in spec §3's
// table); byte 12 takes the low byte, byte 13 the high byte.
func myoUUID(shortCode [2]byte) []byte {
	u := myoBaseUUID
	u[12] = shortCode[1]
	u[13] = shortCode[0]
	return u[:]
}

var (
	uuidCommand = myoUUID([2]byte{0x04, 0x01})
	uuidIMU     = myoUUID([2]byte{0x04, 0x02})
	uuidEMG     = [4][]byte{
		myoUUID([2]byte{0x01, 0x05}),
		myoUUID([2]byte{0x02, 0x05}),
		myoUUID([2]byte{0x03, 0x05}),
		myoUUID([2]byte{0x04, 0x05}),
	}
)

// batteryUUID16 is the standard Bluetooth SIG Battery Level
// characteristic, a 16-bit UUID rather than one of Myo's vendor
// UUIDs, delivered little-endian over the wire.
var batteryUUID16 = []byte{0x19, 0x2A}

func uuidEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
