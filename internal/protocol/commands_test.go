// internal/protocol/commands_test.go
package protocol

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestStatusRequest_Geometry(t *testing.T) {
	report := StatusRequest()

	if len(report) != ReportLength {
		t.Fatalf("expected %d bytes, got %d", ReportLength, len(report))
	}
	if report[0] != OpcodePrefix || report[1] != OpcodeStatus {
		t.Fatalf("wrong opcode: % X", report[:2])
	}
	for i := 2; i < len(report); i++ {
		if report[i] != 0 {
			t.Fatalf("expected zero padding at offset %d, got 0x%02X", i, report[i])
		}
	}
}

func TestFirmwareVersionRequest_Geometry(t *testing.T) {
	report := FirmwareVersionRequest()

	if len(report) != ReportLength {
		t.Fatalf("expected %d bytes, got %d", ReportLength, len(report))
	}
	if report[0] != OpcodePrefix || report[1] != OpcodeFirmwareVersion {
		t.Fatalf("wrong opcode: % X", report[:2])
	}
}

func TestSetReferenceTemp_RoundTrip(t *testing.T) {
	for value := 0; value <= 0xFF; value++ {
		report, err := SetReferenceTemp(value)
		if err != nil {
			t.Fatalf("value %d: unexpected error: %v", value, err)
		}
		if len(report) != ReportLength {
			t.Fatalf("value %d: expected %d bytes, got %d", value, ReportLength, len(report))
		}
		if report[0] != OpcodePrefix || report[1] != OpcodeReferenceTemp {
			t.Fatalf("value %d: wrong opcode: % X", value, report[:2])
		}
		if got := int(report[ReferenceTempOffset]); got != value {
			t.Fatalf("round trip mismatch: wrote %d, read %d", value, got)
		}
	}
}

func TestSetReferenceTemp_OutOfRange(t *testing.T) {
	for _, value := range []int{-1, 256, 1000} {
		report, err := SetReferenceTemp(value)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("value %d: expected ErrOutOfRange, got %v", value, err)
		}
		if report != nil {
			t.Fatalf("value %d: expected nil report on rejection", value)
		}
	}
}

func TestSetRotorSpeed_RepeatedTarget(t *testing.T) {
	const maxRPM = 2800

	for _, ch := range []RotorChannel{ChannelFan, ChannelPump} {
		for _, rpm := range []int{MinRotorRPM, 600, 1375, maxRPM} {
			report, err := SetRotorSpeed(ch, rpm, maxRPM)
			if err != nil {
				t.Fatalf("%s %d: unexpected error: %v", ch, rpm, err)
			}
			if report[0] != OpcodePrefix || report[1] != OpcodeRotorSpeed {
				t.Fatalf("%s %d: wrong opcode: % X", ch, rpm, report[:2])
			}
			if got := binary.BigEndian.Uint16(report[RotorChannelOffset:]); got != uint16(ch) {
				t.Fatalf("%s: channel selector 0x%04X", ch, got)
			}
			for _, off := range RotorSpeedOffsets {
				if got := binary.BigEndian.Uint16(report[off:]); got != uint16(rpm) {
					t.Fatalf("%s %d: offset %d carries %d", ch, rpm, off, got)
				}
			}
		}
	}
}

func TestSetRotorSpeed_OutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		ch     RotorChannel
		rpm    int
		maxRPM int
	}{
		{"below min", ChannelFan, MinRotorRPM - 1, 2800},
		{"above ceiling", ChannelFan, 2801, 2800},
		{"above high ceiling", ChannelPump, 3201, 3200},
		{"unknown channel", RotorChannel(0xBEEF), 1000, 2800},
	}

	for _, tc := range cases {
		if _, err := SetRotorSpeed(tc.ch, tc.rpm, tc.maxRPM); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s: expected ErrOutOfRange, got %v", tc.name, err)
		}
	}
}

func TestSetRotorSpeed_CeilingIsInclusive(t *testing.T) {
	if _, err := SetRotorSpeed(ChannelFan, 3200, 3200); err != nil {
		t.Fatalf("ceiling value rejected: %v", err)
	}
}
