package myo

import (
	"fmt"

	"seedhammer.com/myodriver/bgapi"
)

// fillHandles matches the attribute table gathered by a prior
// DiscoverPrimaryServices against the known Myo characteristic UUIDs
// and records their handles into engine.Handles.
//
// CCCD handles are not looked up independently: per spec, the CCCD
// for a characteristic is assumed to be the very next handle. This
// holds for every Myo firmware observed but is not guaranteed by the
// GATT spec in general; a firmware that interleaves extra descriptors
// would break it silently.
func fillHandles(engine *bgapi.Engine) error {
	h := bgapi.HandleTable{}
	for _, attr := range engine.Attributes {
		switch {
		case uuidEqual(attr.UUID, uuidCommand):
			h.Command = attr.Handle
		case uuidEqual(attr.UUID, uuidIMU):
			h.IMU = attr.Handle
			h.IMUCCCD = attr.Handle + 1
		case uuidEqual(attr.UUID, batteryUUID16):
			h.Battery = attr.Handle
		default:
			for i, u := range uuidEMG {
				if uuidEqual(attr.UUID, u) {
					h.EMG[i] = attr.Handle
					h.EMGCCCD[i] = attr.Handle + 1
				}
			}
		}
	}
	engine.Handles = h
	if !h.Resolved() {
		return &bgapi.NotFoundError{Op: "fill_handles", Msg: fmt.Sprintf("required characteristic not found (got %+v)", h)}
	}
	return nil
}
