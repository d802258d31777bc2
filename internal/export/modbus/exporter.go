// internal/export/modbus/exporter.go
package modbus

import (
	"fmt"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

// registerWriter is the exact contract the exporter uses.
// IMPORTANT: There must be NO other version of this interface anywhere.
type registerWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Exporter delivers telemetry blocks into downstream holding registers.
// Delivery only: no state, no interpretation, no retries.
type Exporter struct {
	cli      registerWriter
	unitID   uint8
	baseAddr uint16
}

func NewExporter(cli registerWriter, unitID uint8, baseAddr uint16) *Exporter {
	return &Exporter{
		cli:      cli,
		unitID:   unitID,
		baseAddr: baseAddr,
	}
}

// Export writes one full telemetry block.
func (e *Exporter) Export(snap protocol.Snapshot, firmwareVersion, maxRotorRPM int) error {
	regs := Encode(snap, firmwareVersion, maxRotorRPM)

	if err := e.cli.WriteRegisters(e.unitID, e.baseAddr, regs); err != nil {
		return fmt.Errorf("export modbus: unit=%d addr=%d: %w", e.unitID, e.baseAddr, err)
	}
	return nil
}
