package myo

// Myo command IDs, sent as attribute writes to the command handle.
// The payload always leads with the command ID followed by a
// payload-length byte, mirroring util/packet_def.py's Myo_Commands.
const (
	cmdSetMode      byte = 0x01
	cmdVibrate      byte = 0x03
	cmdDeepSleep    byte = 0x04
	cmdVibrate2     byte = 0x07
	cmdSetSleepMode byte = 0x09
	cmdUnlock       byte = 0x0A
	cmdUserAction   byte = 0x0B
)

// EMGMode selects how (or whether) a connected Myo streams EMG data.
type EMGMode byte

const (
	EMGModeNone    EMGMode = 0x00
	EMGModeSend    EMGMode = 0x02
	EMGModeSendRaw EMGMode = 0x03
)

// IMUMode selects how a connected Myo streams orientation/motion data.
type IMUMode byte

const (
	IMUModeNone       IMUMode = 0x00
	IMUModeSendData   IMUMode = 0x01
	IMUModeSendEvents IMUMode = 0x02
	IMUModeSendAll    IMUMode = 0x03
	IMUModeSendRaw    IMUMode = 0x04
)

// ClassifierMode enables or disables the onboard gesture classifier.
type ClassifierMode byte

const (
	ClassifierDisabled ClassifierMode = 0x00
	ClassifierEnabled  ClassifierMode = 0x01
)

// SleepMode controls whether the armband may enter low-power sleep.
type SleepMode byte

const (
	SleepModeNormal    SleepMode = 0x00
	SleepModeNeverSleep SleepMode = 0x01
)

// VibrationType selects one of the three built-in vibration patterns.
type VibrationType byte

const (
	VibrateShort  VibrationType = 0x01
	VibrateMedium VibrationType = 0x02
	VibrateLong   VibrationType = 0x03
)

// UnlockType controls the armband's unlock/lock state.
type UnlockType byte

const (
	UnlockLock   UnlockType = 0x00
	UnlockTimed  UnlockType = 0x01
	UnlockHold   UnlockType = 0x02
)

// UserActionType is the single user-action payload Myo defines.
type UserActionType byte

const UserActionSingle UserActionType = 0x00

// VibrationStep is one (duration, strength) pair of a vibrate2
// sequence; up to six run back to back.
type VibrationStep struct {
	DurationMS uint16
	Strength   uint8
}

func withLen(cmd byte, payload []byte) []byte {
	out := make([]byte, 0, 2+len(payload))
	out = append(out, cmd, byte(len(payload)))
	return append(out, payload...)
}

func encodeSetMode(emg EMGMode, imu IMUMode, classifier ClassifierMode) []byte {
	return withLen(cmdSetMode, []byte{byte(emg), byte(imu), byte(classifier)})
}

func encodeSetSleepMode(mode SleepMode) []byte {
	return withLen(cmdSetSleepMode, []byte{byte(mode)})
}

func encodeVibrate(t VibrationType) []byte {
	return withLen(cmdVibrate, []byte{byte(t)})
}

func encodeDeepSleep() []byte {
	return withLen(cmdDeepSleep, nil)
}

func encodeVibrate2(steps [6]VibrationStep) []byte {
	p := make([]byte, 0, 18)
	for _, s := range steps {
		p = append(p, byte(s.DurationMS), byte(s.DurationMS>>8), s.Strength)
	}
	return withLen(cmdVibrate2, p)
}

func encodeUnlock(t UnlockType) []byte {
	return withLen(cmdUnlock, []byte{byte(t)})
}

func encodeUserAction(t UserActionType) []byte {
	return withLen(cmdUserAction, []byte{byte(t)})
}
