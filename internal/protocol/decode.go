// internal/protocol/decode.go
package protocol

import (
	"encoding/binary"
	"errors"
)

// ErrShortReport is returned when an inbound report is too short to carry
// the fields its opcode promises.
var ErrShortReport = errors.New("protocol: report too short")

// ReportKind classifies an inbound report by its first two bytes.
type ReportKind int

const (
	KindUnknown ReportKind = iota
	KindStatus
	KindFirmwareVersion
)

func (k ReportKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindFirmwareVersion:
		return "firmware-version"
	}
	return "unknown"
}

// Classify inspects the opcode of an inbound report.
func Classify(b []byte) ReportKind {
	if len(b) < 2 || b[0] != OpcodePrefix {
		return KindUnknown
	}
	switch b[1] {
	case OpcodeStatus:
		return KindStatus
	case OpcodeFirmwareVersion:
		return KindFirmwareVersion
	}
	return KindUnknown
}

// DecodeFirmwareVersion extracts the version number from a firmware reply.
// Encoding quirk: tens and ones arrive as separate bytes.
func DecodeFirmwareVersion(b []byte) (int, error) {
	if len(b) <= FirmwareVerOffset2 {
		return 0, ErrShortReport
	}
	return int(b[FirmwareVerOffset1])*10 + int(b[FirmwareVerOffset2]), nil
}

// DecodeStatus extracts a sensor snapshot from a status reply.
// Temperature scaling is the only variant-dependent part of the decode.
func DecodeStatus(b []byte, v Variant) (Snapshot, error) {
	if len(b) <= StatusCoolantTemp {
		return Snapshot{}, ErrShortReport
	}

	return Snapshot{
		CoolantTempMilli: int32(b[StatusCoolantTemp]) * v.TempScale,
		FanRPM:           binary.LittleEndian.Uint16(b[StatusFanSpeed:]),
		PumpRPM:          binary.LittleEndian.Uint16(b[StatusPumpSpeed:]),
		FanDuty:          b[StatusFanDuty],
		PumpDuty:         b[StatusPumpDuty],
	}, nil
}
