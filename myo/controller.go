// Package myo drives a Myo gesture armband over a BLED112-class BGAPI
// dongle: discovery, connection, characteristic resolution, streaming
// configuration and teardown. It is a thin orchestration layer over
// bgapi.Engine, which owns the wire protocol and the handle-keyed
// sample assembly.
package myo

import (
	"time"

	"seedhammer.com/myodriver/bgapi"
)

// primaryServiceUUID is the standard GATT "Primary Service" group
// type, delivered little-endian like every other 16-bit UUID on the
// wire.
var primaryServiceUUID = []byte{0x00, 0x28}

// cccdEnableNotify is the value written to a CCCD to turn on
// attribute-value notifications.
var cccdEnableNotify = []byte{0x01, 0x00}
var cccdDisableNotify = []byte{0x00, 0x00}

const fullHandleStart, fullHandleEnd = 0x0001, 0xFFFF

// maxConnectionHandles is the number of connection slots a BLED112
// dongle tracks; clear_state blindly disconnects all of them rather
// than trusting local bookkeeping about what is actually connected.
const maxConnectionHandles = 8

// Controller drives one BLED112 dongle and, at most, one connected
// Myo at a time. Like bgapi.Engine, it is not safe for concurrent use.
type Controller struct {
	Engine *bgapi.Engine

	imuEnabled    bool
	emgEnabled    bool
	sleepDisabled bool
}

// Open opens the serial device at dev and wraps it in a Controller.
// packetMode must match the dongle's flow-control configuration (see
// bgapi.Open).
func Open(dev string, packetMode bool) (*Controller, error) {
	xport, err := bgapi.Open(dev)
	if err != nil {
		return nil, err
	}
	return &Controller{Engine: bgapi.NewEngine(xport, packetMode)}, nil
}

// Close releases the underlying serial port. It does not disconnect
// first; call Shutdown for a clean teardown.
func (c *Controller) Close() error {
	return c.Engine.Close()
}

// ClearState undoes whatever streaming and sleep configuration is
// active, stops advertising, drops every connection the dongle might
// be holding, and ends any running GAP procedure. Open does not run
// it; callers issue it after Open, and Shutdown runs it at teardown.
// It is safe to call on a freshly opened dongle or twice in a row.
func (c *Controller) ClearState(budget time.Duration) error {
	if conn := c.Engine.Connection; conn != nil {
		if c.imuEnabled {
			if err := c.Engine.AttributeWrite(conn.Handle, c.Engine.Handles.IMUCCCD, cccdDisableNotify, budget); err != nil {
				return err
			}
		}
		if c.emgEnabled {
			for _, h := range c.Engine.Handles.EMGCCCD {
				if err := c.Engine.AttributeWrite(conn.Handle, h, cccdDisableNotify, budget); err != nil {
					return err
				}
			}
		}
		if c.imuEnabled || c.emgEnabled {
			if err := c.sendCommand(encodeSetMode(EMGModeNone, IMUModeNone, ClassifierDisabled), budget); err != nil {
				return err
			}
		}
		if c.sleepDisabled {
			if err := c.sendCommand(encodeSetSleepMode(SleepModeNormal), budget); err != nil {
				return err
			}
		}
	}

	if err := c.Engine.SetGAPMode(bgapi.GAPNonDiscoverable, bgapi.GAPNonConnectable, budget); err != nil {
		return err
	}

	for h := uint8(0); h < maxConnectionHandles; h++ {
		if err := c.Engine.DisconnectConnection(h, budget); err != nil {
			return err
		}
		if c.Engine.Disconnecting {
			ok, err := c.Engine.ReadUntil(bgapi.EventConnectionDisconnected, withDefault(budget))
			if err != nil {
				return err
			}
			if !ok {
				return bgapi.ErrTimeout
			}
		}
	}

	if err := c.Engine.EndProcedure(budget); err != nil {
		return err
	}

	c.imuEnabled = false
	c.emgEnabled = false
	c.sleepDisabled = false
	return nil
}

// DiscoverDevices scans in observation mode for budget and returns
// every Myo armband seen advertising its control service,
// deduplicated by address. The dongle itself is never made
// discoverable or connectable for this: it only listens.
func (c *Controller) DiscoverDevices(budget time.Duration) ([]bgapi.ScanResult, error) {
	c.Engine.ResetDiscovery()
	if err := c.Engine.Discover(bgapi.GAPDiscoverObservation, 0); err != nil {
		return nil, err
	}
	if err := c.Engine.PumpFor(budget); err != nil {
		return nil, err
	}
	if err := c.Engine.EndProcedure(0); err != nil {
		return nil, err
	}
	return c.Engine.Discovered, nil
}

// Connect establishes a direct connection to dev and waits for the
// resulting connection-status event.
func (c *Controller) Connect(dev bgapi.ScanResult, budget time.Duration) error {
	if err := c.Engine.ConnectDirect(dev.Address, 6, 6, 64, 0, budget); err != nil {
		return err
	}
	ok, err := c.Engine.ReadUntil(bgapi.EventConnectionStatus, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return bgapi.ErrTimeout
	}
	return nil
}

// Disconnect tears down the active connection, if any, and waits for
// its confirmation event.
func (c *Controller) Disconnect(budget time.Duration) error {
	if c.Engine.Connection == nil {
		return nil
	}
	handle := c.Engine.Connection.Handle
	if err := c.Engine.DisconnectConnection(handle, budget); err != nil {
		return err
	}
	if !c.Engine.Disconnecting {
		return nil
	}
	ok, err := c.Engine.ReadUntil(bgapi.EventConnectionDisconnected, withDefault(budget))
	if err != nil {
		return err
	}
	if !ok {
		return bgapi.ErrTimeout
	}
	return nil
}

// DiscoverPrimaryServices enumerates every primary service and
// attribute handle on the connected Myo, then resolves the fixed set
// of characteristic handles this driver streams and configures.
func (c *Controller) DiscoverPrimaryServices(budget time.Duration) error {
	conn := c.Engine.Connection
	if conn == nil {
		return &bgapi.StateError{Op: "discover_primary_services", Msg: "not connected"}
	}
	if err := c.Engine.ReadByGroupType(conn.Handle, fullHandleStart, fullHandleEnd, primaryServiceUUID, budget); err != nil {
		return err
	}
	if err := c.Engine.FindInformation(conn.Handle, fullHandleStart, fullHandleEnd, budget); err != nil {
		return err
	}
	return c.FillHandles()
}

// FillHandles matches the attribute table gathered by
// DiscoverPrimaryServices against the known Myo characteristic UUIDs
// and records their handles for streaming and command writes.
func (c *Controller) FillHandles() error {
	return fillHandles(c.Engine)
}

// EnableIMU turns on orientation/motion notifications and sends the
// Myo mode command that actually starts them streaming, alongside
// whatever EMG state is already active. Calling it again while IMU
// is already enabled is a no-op.
func (c *Controller) EnableIMU(budget time.Duration) error {
	if c.imuEnabled {
		return nil
	}
	conn := c.Engine.Connection
	if conn == nil {
		return &bgapi.StateError{Op: "enable_imu", Msg: "not connected"}
	}
	if c.Engine.Handles.IMUCCCD == 0 {
		return &bgapi.StateError{Op: "enable_imu", Msg: "handles not resolved"}
	}
	if err := c.Engine.AttributeWrite(conn.Handle, c.Engine.Handles.IMUCCCD, cccdEnableNotify, budget); err != nil {
		return err
	}
	c.imuEnabled = true
	if err := c.sendStreamMode(budget); err != nil {
		c.imuEnabled = false
		return err
	}
	return nil
}

// EnableEMG turns on EMG notifications across all four channel pairs
// and sends the Myo mode command that actually starts them streaming,
// alongside whatever IMU state is already active. Calling it again
// while EMG is already enabled is a no-op.
func (c *Controller) EnableEMG(budget time.Duration) error {
	if c.emgEnabled {
		return nil
	}
	conn := c.Engine.Connection
	if conn == nil {
		return &bgapi.StateError{Op: "enable_emg", Msg: "not connected"}
	}
	for _, h := range c.Engine.Handles.EMGCCCD {
		if h == 0 {
			return &bgapi.StateError{Op: "enable_emg", Msg: "handles not resolved"}
		}
	}
	for _, h := range c.Engine.Handles.EMGCCCD {
		if err := c.Engine.AttributeWrite(conn.Handle, h, cccdEnableNotify, budget); err != nil {
			return err
		}
	}
	c.emgEnabled = true
	if err := c.sendStreamMode(budget); err != nil {
		c.emgEnabled = false
		return err
	}
	return nil
}

// sendStreamMode sends the Myo mode command reflecting the current
// (emg, imu) enabled pair, classifier always disabled.
func (c *Controller) sendStreamMode(budget time.Duration) error {
	emgMode := EMGModeNone
	if c.emgEnabled {
		emgMode = EMGModeSendRaw
	}
	imuMode := IMUModeNone
	if c.imuEnabled {
		imuMode = IMUModeSendData
	}
	return c.sendCommand(encodeSetMode(emgMode, imuMode, ClassifierDisabled), budget)
}

// SetSleepMode controls whether the armband may enter low-power sleep
// while connected; streaming sessions normally disable it so the Myo
// doesn't go quiet mid-session. Whether sleep is disabled is recorded
// so ClearState can restore normal mode on teardown.
func (c *Controller) SetSleepMode(neverSleep bool, budget time.Duration) error {
	mode := SleepModeNormal
	if neverSleep {
		mode = SleepModeNeverSleep
	}
	if err := c.sendCommand(encodeSetSleepMode(mode), budget); err != nil {
		return err
	}
	c.sleepDisabled = neverSleep
	return nil
}

// Vibrate plays one of the armband's built-in vibration patterns.
func (c *Controller) Vibrate(t VibrationType, budget time.Duration) error {
	return c.sendCommand(encodeVibrate(t), budget)
}

// Vibrate2 plays a custom up-to-six-step vibration sequence.
func (c *Controller) Vibrate2(steps [6]VibrationStep, budget time.Duration) error {
	return c.sendCommand(encodeVibrate2(steps), budget)
}

// DeepSleep powers the armband down; it will not advertise again
// until woken by its button.
func (c *Controller) DeepSleep(budget time.Duration) error {
	return c.sendCommand(encodeDeepSleep(), budget)
}

// Unlock changes the armband's unlock state.
func (c *Controller) Unlock(t UnlockType, budget time.Duration) error {
	return c.sendCommand(encodeUnlock(t), budget)
}

// UserAction triggers the armband's single user-action buzz.
func (c *Controller) UserAction(budget time.Duration) error {
	return c.sendCommand(encodeUserAction(UserActionSingle), budget)
}

func (c *Controller) sendCommand(payload []byte, budget time.Duration) error {
	conn := c.Engine.Connection
	if conn == nil {
		return &bgapi.StateError{Op: "send_command", Msg: "not connected"}
	}
	if c.Engine.Handles.Command == 0 {
		return &bgapi.StateError{Op: "send_command", Msg: "handles not resolved"}
	}
	return c.Engine.AttributeWrite(conn.Handle, c.Engine.Handles.Command, payload, budget)
}

// ReadBatteryLevel issues a read of the battery characteristic and
// waits for its value to arrive as an attribute-value notification.
func (c *Controller) ReadBatteryLevel(budget time.Duration) (uint8, error) {
	conn := c.Engine.Connection
	if conn == nil {
		return 0, &bgapi.StateError{Op: "read_battery_level", Msg: "not connected"}
	}
	if c.Engine.Handles.Battery == 0 {
		return 0, &bgapi.NotFoundError{Op: "read_battery_level", Msg: "battery characteristic not found"}
	}
	if err := c.Engine.ReadByHandle(conn.Handle, c.Engine.Handles.Battery); err != nil {
		return 0, err
	}
	ok, err := c.Engine.ReadUntil(bgapi.EventBatteryLevel, withDefault(budget))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, bgapi.ErrTimeout
	}
	return c.Engine.LastBattery, nil
}

// ScanForDataPackets pumps and routes incoming frames for budget,
// dispatching IMU/EMG/joint sample events as they arrive. It never
// returns early.
func (c *Controller) ScanForDataPackets(budget time.Duration) error {
	return c.Engine.PumpFor(budget)
}

// ScanForDataPacketsConditional pumps frames until id fires or budget
// elapses, whichever comes first.
func (c *Controller) ScanForDataPacketsConditional(id bgapi.EventID, budget time.Duration) (bool, error) {
	return c.Engine.PumpForConditional(id, budget)
}

// Shutdown disables streaming, disconnects if connected, and closes
// the serial port. It tolerates being called on a half-torn-down
// controller.
func (c *Controller) Shutdown(budget time.Duration) error {
	_ = c.ClearState(budget)
	if c.Engine.Connection != nil {
		_ = c.Disconnect(budget)
	}
	return c.Close()
}

func withDefault(budget time.Duration) time.Duration {
	if budget <= 0 {
		return 2 * time.Second
	}
	return budget
}
