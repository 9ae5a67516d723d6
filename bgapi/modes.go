package bgapi

// GAP discoverable modes, for SetGAPMode's discover argument.
const (
	GAPNonDiscoverable     uint8 = 0
	GAPLimitedDiscoverable uint8 = 1
	GAPGeneralDiscoverable uint8 = 2
	GAPBroadcast           uint8 = 3
	GAPUserData            uint8 = 4
)

// GAP connectable modes, for SetGAPMode's connect argument.
const (
	GAPNonConnectable        uint8 = 0
	GAPDirectedConnectable   uint8 = 1
	GAPUndirectedConnectable uint8 = 2
	GAPScannableConnectable  uint8 = 3
)

// GAP discover modes, for Discover's mode argument.
const (
	GAPDiscoverLimited     uint8 = 0
	GAPDiscoverGeneric     uint8 = 1
	GAPDiscoverObservation uint8 = 2
)
