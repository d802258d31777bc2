// internal/protocol/snapshot.go
package protocol

// Snapshot is one decoded status report.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	CoolantTempMilli int32  // millidegrees Celsius
	FanRPM           uint16 // fan speed in RPM
	PumpRPM          uint16 // pump speed in RPM
	FanDuty          uint8  // fan duty in 0-100 %
	PumpDuty         uint8  // pump duty in 0-100 %
}
