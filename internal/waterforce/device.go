// internal/waterforce/device.go
package waterforce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

const (
	// statusValidity bounds the age of cached sensor data. A read past
	// this window triggers a fresh status query.
	statusValidity = 2 * time.Second

	// replyTimeout bounds each outstanding request.
	replyTimeout = 2 * time.Second

	// anomalyLogInterval throttles unrecognized-report warnings so a
	// babbling device cannot flood the log.
	anomalyLogInterval = 30 * time.Second
)

// Rotor ceiling selection.
const (
	maxRotorRPMLow  = 2800
	maxRotorRPMHigh = 3200

	// highCapabilityFirmware unlocks the higher ceiling on hardware
	// that does not already carry it.
	highCapabilityFirmware = 14
)

// ErrNotReady is returned for writes attempted before capability
// resolution has established the rotor ceiling.
var ErrNotReady = errors.New("waterforce: capabilities not resolved")

// Transport is the one-way pipe for full-length output reports.
// Satisfied by *hidraw.Device.
type Transport interface {
	Write(p []byte) (int, error)
}

// Device is the protocol engine for one connected cooler.
//
// Multiple goroutines may call the read/write operations concurrently;
// exactly one goroutine (the transport's read loop) delivers inbound
// reports through HandleReport.
type Device struct {
	tr      Transport
	variant protocol.Variant
	log     *logrus.Entry

	// bufMu serializes access to the shared output scratch buffer.
	// The transport exposes one output pipe; concurrent encodings must
	// not interleave.
	bufMu sync.Mutex
	buf   [protocol.ReportLength]byte

	// One completion token per reply kind, one round in flight at a time.
	statusDone *completion
	fwDone     *completion

	// refreshMu coalesces concurrent stale readers onto one status query.
	refreshMu sync.Mutex

	mu              sync.RWMutex // guards the fields below
	snapshot        protocol.Snapshot
	updated         time.Time
	firmwareVersion int
	maxRotorRPM     int // 0 until Init succeeds

	anomalyMu   sync.Mutex
	lastAnomaly time.Time
}

// New wires a device around an open transport. The returned device is
// not usable for writes until Init resolves its capabilities.
func New(tr Transport, variant protocol.Variant, log *logrus.Logger) *Device {
	if log == nil {
		log = logrus.StandardLogger()
	}

	d := &Device{
		tr:         tr,
		variant:    variant,
		log:        log.WithField("device", variant.Name),
		statusDone: newCompletion(),
		fwDone:     newCompletion(),
	}

	// Backdate the cache so a fresh device never serves an undecoded
	// snapshot: the first read always refreshes.
	d.updated = time.Now().Add(-statusValidity)

	return d
}

// send copies the encoded command into the shared scratch buffer,
// zero-fills the remainder and performs one blocking write of the full
// report. The buffer lock is held for the whole round trip to the
// transport and released on every exit path.
func (d *Device) send(cmd []byte) error {
	d.bufMu.Lock()
	defer d.bufMu.Unlock()

	for i := range d.buf {
		d.buf[i] = 0
	}
	copy(d.buf[:], cmd)

	if _, err := d.tr.Write(d.buf[:]); err != nil {
		return fmt.Errorf("waterforce: output report write: %w", err)
	}
	return nil
}

// Init resolves device capabilities: it queries the firmware version and
// derives the rotor speed ceiling. Failure is fatal to bringing the
// device up; without a validated ceiling the write path cannot be
// exposed safely.
func (d *Device) Init(ctx context.Context) error {
	d.fwDone.Reset()

	if err := d.send(protocol.FirmwareVersionRequest()); err != nil {
		return fmt.Errorf("waterforce: firmware version request: %w", err)
	}
	if err := d.fwDone.Wait(ctx, replyTimeout); err != nil {
		return fmt.Errorf("waterforce: firmware version reply: %w", err)
	}

	d.mu.Lock()
	if d.variant.HighCeiling || d.firmwareVersion == highCapabilityFirmware {
		d.maxRotorRPM = maxRotorRPMHigh
	} else {
		d.maxRotorRPM = maxRotorRPMLow
	}
	ver, maxRPM := d.firmwareVersion, d.maxRotorRPM
	d.mu.Unlock()

	d.log.WithFields(logrus.Fields{
		"firmware": ver,
		"max_rpm":  maxRPM,
	}).Info("device initialized")

	return nil
}

// ReadSensors returns the cached snapshot, refreshing it first when the
// validity window has elapsed. Concurrent stale readers coalesce onto a
// single status query.
func (d *Device) ReadSensors(ctx context.Context) (protocol.Snapshot, error) {
	if snap, ok := d.cached(); ok {
		return snap, nil
	}

	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	// Another reader may have refreshed while we queued on the guard.
	if snap, ok := d.cached(); ok {
		return snap, nil
	}

	d.statusDone.Reset()

	if err := d.send(protocol.StatusRequest()); err != nil {
		return protocol.Snapshot{}, err
	}
	if err := d.statusDone.Wait(ctx, replyTimeout); err != nil {
		return protocol.Snapshot{}, err
	}

	// The classifier updated the snapshot before signalling, so this
	// read observes the data that caused the wake.
	d.mu.RLock()
	snap := d.snapshot
	d.mu.RUnlock()
	return snap, nil
}

// cached returns the snapshot if it is still inside the validity window.
func (d *Device) cached() (protocol.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if time.Since(d.updated) >= statusValidity {
		return protocol.Snapshot{}, false
	}
	return d.snapshot, true
}

// SetReferenceTemp sends an externally measured temperature to the
// device. The value is validated before any IO.
func (d *Device) SetReferenceTemp(value int) error {
	report, err := protocol.SetReferenceTemp(value)
	if err != nil {
		return err
	}
	return d.send(report)
}

// SetRotorSpeed sets a fan or pump RPM target, validated against the
// ceiling established by Init.
func (d *Device) SetRotorSpeed(ch protocol.RotorChannel, rpm int) error {
	d.mu.RLock()
	maxRPM := d.maxRotorRPM
	d.mu.RUnlock()

	if maxRPM == 0 {
		return ErrNotReady
	}

	report, err := protocol.SetRotorSpeed(ch, rpm, maxRPM)
	if err != nil {
		return err
	}
	return d.send(report)
}

// HandleReport classifies one inbound report and updates decoded state.
// It is the protocol's only asynchronous entry point: it never blocks
// and never issues outbound commands. State updates happen before the
// completion signal, so a woken waiter always observes them.
func (d *Device) HandleReport(data []byte) {
	switch protocol.Classify(data) {
	case protocol.KindFirmwareVersion:
		ver, err := protocol.DecodeFirmwareVersion(data)
		if err != nil {
			d.logAnomaly(data, err)
			return
		}
		d.mu.Lock()
		d.firmwareVersion = ver
		d.mu.Unlock()
		d.fwDone.Complete()

	case protocol.KindStatus:
		snap, err := protocol.DecodeStatus(data, d.variant)
		if err != nil {
			d.logAnomaly(data, err)
			return
		}
		d.mu.Lock()
		d.snapshot = snap
		d.updated = time.Now()
		d.mu.Unlock()
		d.statusDone.Complete()

	default:
		// Spurious or malformed report. Cached state stays untouched
		// and no pending wait is completed.
		d.logAnomaly(data, nil)
	}
}

// logAnomaly warns about an improper report at most once per interval.
func (d *Device) logAnomaly(data []byte, err error) {
	d.anomalyMu.Lock()
	throttled := time.Since(d.lastAnomaly) < anomalyLogInterval
	if !throttled {
		d.lastAnomaly = time.Now()
	}
	d.anomalyMu.Unlock()

	if throttled {
		return
	}

	entry := d.log
	if len(data) >= 2 {
		entry = entry.WithField("opcode", fmt.Sprintf("0x%02X%02X", data[0], data[1]))
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("improper report, firmware or device is possibly damaged")
}

// FirmwareVersion returns the version decoded during Init.
func (d *Device) FirmwareVersion() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firmwareVersion
}

// MaxRotorRPM returns the ceiling derived during Init, 0 before it.
func (d *Device) MaxRotorRPM() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.maxRotorRPM
}

// Variant returns the decode rules this device was opened with.
func (d *Device) Variant() protocol.Variant {
	return d.variant
}
