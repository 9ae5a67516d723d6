package myo

import "seedhammer.com/myodriver/bgapi"

// OnSample registers fn to run every time a paired EMG+IMU sample is
// assembled. Handlers run synchronously on whichever goroutine is
// pumping frames (ScanForDataPackets or ScanForDataPacketsConditional)
// and must not block.
func (c *Controller) OnSample(fn func(bgapi.Sample)) {
	c.Engine.Bus.On(bgapi.EventJointSample, func(payload any) {
		fn(payload.(bgapi.Sample))
	})
}

// OnIMUSample registers fn to run on every IMU notification, paired
// or not.
func (c *Controller) OnIMUSample(fn func(bgapi.IMUReading)) {
	c.Engine.Bus.On(bgapi.EventIMUSample, func(payload any) {
		fn(payload.(bgapi.IMUReading))
	})
}

// OnEMGSample registers fn to run on every individual EMG
// notification half (two fire per EMG packet), paired or not.
func (c *Controller) OnEMGSample(fn func(bgapi.EMGSample)) {
	c.Engine.Bus.On(bgapi.EventEMGSample, func(payload any) {
		fn(payload.(bgapi.EMGSample))
	})
}

// OnDisconnect registers fn to run when the connected Myo
// disconnects, whether requested or not.
func (c *Controller) OnDisconnect(fn func(reason uint16)) {
	c.Engine.Bus.On(bgapi.EventConnectionDisconnected, func(payload any) {
		fn(payload.(bgapi.EvtConnectionDisconnected).Reason)
	})
}
