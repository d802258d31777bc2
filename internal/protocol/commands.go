// internal/protocol/commands.go
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a command parameter falls outside the
// protocol-defined range. No buffer is produced and no IO is attempted.
var ErrOutOfRange = errors.New("protocol: value out of range")

// RotorChannel selects which rotor a set-rotor-speed command addresses.
// The selector is two bytes written verbatim at RotorChannelOffset.
type RotorChannel uint16

const (
	ChannelFan  RotorChannel = 0x0101
	ChannelPump RotorChannel = 0x0402
)

func (c RotorChannel) String() string {
	switch c {
	case ChannelFan:
		return "fan"
	case ChannelPump:
		return "pump"
	}
	return fmt.Sprintf("channel(0x%04X)", uint16(c))
}

// expand places cmd at the start of a full-length report and zero-pads
// the rest. Pure function, no IO.
func expand(cmd []byte) []byte {
	report := make([]byte, ReportLength)
	copy(report, cmd)
	return report
}

// StatusRequest builds the get-status command report.
func StatusRequest() []byte {
	return expand([]byte{OpcodePrefix, OpcodeStatus})
}

// FirmwareVersionRequest builds the get-firmware-version command report.
func FirmwareVersionRequest() []byte {
	return expand([]byte{OpcodePrefix, OpcodeFirmwareVersion})
}

// SetReferenceTemp builds the set-reference-temperature command report.
// The value is a raw degree byte; anything outside [0,255] is rejected.
func SetReferenceTemp(value int) ([]byte, error) {
	if value < 0 || value > 0xFF {
		return nil, fmt.Errorf("%w: reference temp %d not in [0,255]", ErrOutOfRange, value)
	}

	cmd := make([]byte, ReferenceTempOffset+1)
	cmd[0] = OpcodePrefix
	cmd[1] = OpcodeReferenceTemp
	cmd[ReferenceTempOffset] = byte(value)

	return expand(cmd), nil
}

// SetRotorSpeed builds the set-rotor-speed command report.
// The firmware wants the BE16 target repeated at four fixed positions.
// maxRPM comes from capability resolution; targets outside
// [MinRotorRPM, maxRPM] are rejected.
func SetRotorSpeed(ch RotorChannel, rpm, maxRPM int) ([]byte, error) {
	if ch != ChannelFan && ch != ChannelPump {
		return nil, fmt.Errorf("%w: unknown rotor channel 0x%04X", ErrOutOfRange, uint16(ch))
	}
	if rpm < MinRotorRPM || rpm > maxRPM {
		return nil, fmt.Errorf("%w: %s target %d RPM not in [%d,%d]",
			ErrOutOfRange, ch, rpm, MinRotorRPM, maxRPM)
	}

	last := RotorSpeedOffsets[len(RotorSpeedOffsets)-1]
	cmd := make([]byte, last+2)
	cmd[0] = OpcodePrefix
	cmd[1] = OpcodeRotorSpeed
	binary.BigEndian.PutUint16(cmd[RotorChannelOffset:], uint16(ch))
	for _, off := range RotorSpeedOffsets {
		binary.BigEndian.PutUint16(cmd[off:], uint16(rpm))
	}

	return expand(cmd), nil
}
