// internal/protocol/constants.go
package protocol

// Waterforce HID protocol layout constants.
// These values define the wire protocol and MUST NOT be configurable.

// ---- REPORT GEOMETRY ----

// ReportLength is the fixed length of every output report. Commands are
// shorter; the remainder of the report is zero-padded.
const ReportLength = 64

// ---- OPCODES ----

// Every report, inbound or outbound, starts with the 0x99 prefix followed
// by one opcode byte.
const OpcodePrefix byte = 0x99

const (
	OpcodeStatus          byte = 0xDA
	OpcodeFirmwareVersion byte = 0xD6
	OpcodeReferenceTemp   byte = 0xE0
	OpcodeRotorSpeed      byte = 0xE6
)

// ---- STATUS RESPONSE OFFSETS ----

const (
	StatusCoolantTemp = 0x0D // 1 byte, raw device units
	StatusFanSpeed    = 0x02 // LE16, RPM
	StatusPumpSpeed   = 0x05 // LE16, RPM
	StatusFanDuty     = 0x08 // 1 byte, 0-100 %
	StatusPumpDuty    = 0x09 // 1 byte, 0-100 %
)

// ---- FIRMWARE VERSION RESPONSE OFFSETS ----

// Version is split over two bytes: tens at offset 2, ones at offset 3.
const (
	FirmwareVerOffset1 = 2
	FirmwareVerOffset2 = 3
)

// ---- COMMAND FIELD OFFSETS ----

// Reference temperature value position inside the set-reference-temp command.
const ReferenceTempOffset = 3

// Rotor channel selector position (2 bytes) inside the set-rotor-speed command.
const RotorChannelOffset = 2

// RotorSpeedOffsets are the positions the BE16 target value is written to.
// The firmware expects the same value repeated at all four of them.
var RotorSpeedOffsets = [4]int{5, 8, 11, 14}

// ---- LIMITS ----

// MinRotorRPM is the lowest accepted rotor target. The upper bound is
// device-dependent and resolved at capability time.
const MinRotorRPM = 0

// ---- USB IDENTITY ----

const VendorGigabyte uint16 = 0x1044

const (
	ProductWaterforceX    uint16 = 0x7A4D // AORUS WATERFORCE X 240/280/360
	ProductWaterforceX360 uint16 = 0x7A52 // AORUS WATERFORCE X 360G
	ProductWaterforceEX   uint16 = 0x7A53 // AORUS WATERFORCE EX 360
)
