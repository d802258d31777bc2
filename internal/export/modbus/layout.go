// internal/export/modbus/layout.go
package modbus

import (
	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

// Telemetry register block layout.
// Downstream consumers (PLC / SCADA ingest) address these slots relative
// to the configured base address; the layout MUST NOT be configurable.

// SlotsPerDevice is the fixed number of holding registers per cooler.
const SlotsPerDevice = 10

// ---- SLOT INDICES ----

// SlotCoolantTempCenti holds the coolant temperature in centidegrees C.
const SlotCoolantTempCenti = 0

// SlotFanRPM holds the fan speed in RPM.
const SlotFanRPM = 1

// SlotPumpRPM holds the pump speed in RPM.
const SlotPumpRPM = 2

// SlotFanDuty holds the fan duty in percent.
const SlotFanDuty = 3

// SlotPumpDuty holds the pump duty in percent.
const SlotPumpDuty = 4

// SlotFirmwareVersion holds the firmware version from capability resolution.
const SlotFirmwareVersion = 5

// SlotMaxRotorRPM holds the derived rotor speed ceiling.
const SlotMaxRotorRPM = 6

// ---- RESERVED RANGE ----

// Slots 7-9 are reserved for future use.
const SlotReservedStart = 7
const SlotReservedEnd = 9

// Encode converts a snapshot plus device capabilities into a full
// telemetry register block. No IO. No side effects.
func Encode(snap protocol.Snapshot, firmwareVersion, maxRotorRPM int) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotCoolantTempCenti] = uint16(snap.CoolantTempMilli / 10)
	regs[SlotFanRPM] = snap.FanRPM
	regs[SlotPumpRPM] = snap.PumpRPM
	regs[SlotFanDuty] = uint16(snap.FanDuty)
	regs[SlotPumpDuty] = uint16(snap.PumpDuty)
	regs[SlotFirmwareVersion] = uint16(firmwareVersion)
	regs[SlotMaxRotorRPM] = uint16(maxRotorRPM)

	return regs
}
