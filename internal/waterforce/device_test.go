// internal/waterforce/device_test.go
package waterforce

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

// fakeTransport records output reports and can answer them like the
// device would, by feeding a canned report back into the classifier.
type fakeTransport struct {
	mu     sync.Mutex
	writes [][]byte
	err    error

	// reply, when set, is invoked synchronously with each written report.
	reply func(report []byte)
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	reply := f.reply
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if reply != nil {
		reply(cp)
	}
	return len(p), nil
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeTransport) lastWrite() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return nil
	}
	return f.writes[len(f.writes)-1]
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testDevice(pid uint16) (*Device, *fakeTransport) {
	tr := &fakeTransport{}
	v, _ := protocol.VariantFor(pid)
	return New(tr, v, silentLogger()), tr
}

func firmwareReply(version int) []byte {
	b := make([]byte, protocol.ReportLength)
	b[0] = protocol.OpcodePrefix
	b[1] = protocol.OpcodeFirmwareVersion
	b[protocol.FirmwareVerOffset1] = byte(version / 10)
	b[protocol.FirmwareVerOffset2] = byte(version % 10)
	return b
}

func statusReply(temp byte, fanRPM, pumpRPM uint16, fanDuty, pumpDuty byte) []byte {
	b := make([]byte, protocol.ReportLength)
	b[0] = protocol.OpcodePrefix
	b[1] = protocol.OpcodeStatus
	b[protocol.StatusCoolantTemp] = temp
	b[protocol.StatusFanSpeed] = byte(fanRPM)
	b[protocol.StatusFanSpeed+1] = byte(fanRPM >> 8)
	b[protocol.StatusPumpSpeed] = byte(pumpRPM)
	b[protocol.StatusPumpSpeed+1] = byte(pumpRPM >> 8)
	b[protocol.StatusFanDuty] = fanDuty
	b[protocol.StatusPumpDuty] = pumpDuty
	return b
}

// answerAs makes the transport respond to each request kind the way the
// real firmware does.
func answerAs(d *Device, tr *fakeTransport, fwVersion int, status []byte) {
	tr.reply = func(report []byte) {
		switch protocol.Classify(report) {
		case protocol.KindFirmwareVersion:
			d.HandleReport(firmwareReply(fwVersion))
		case protocol.KindStatus:
			if status != nil {
				d.HandleReport(status)
			}
		}
	}
}

func TestInit_CapabilityDerivation(t *testing.T) {
	cases := []struct {
		name    string
		pid     uint16
		version int
		wantRPM int
	}{
		{"X with high-capability firmware", protocol.ProductWaterforceX, 14, 3200},
		{"X with older firmware", protocol.ProductWaterforceX, 13, 2800},
		{"X 360G with older firmware", protocol.ProductWaterforceX360, 12, 2800},
		{"X 360G with high-capability firmware", protocol.ProductWaterforceX360, 14, 3200},
		{"EX always high", protocol.ProductWaterforceEX, 10, 3200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, tr := testDevice(tc.pid)
			answerAs(d, tr, tc.version, nil)

			require.NoError(t, d.Init(context.Background()))
			assert.Equal(t, tc.version, d.FirmwareVersion())
			assert.Equal(t, tc.wantRPM, d.MaxRotorRPM())
		})
	}
}

func TestInit_NoReply(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Init(ctx)
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 1, tr.writeCount())
	assert.Equal(t, 0, d.MaxRotorRPM())

	// The correlator must be ready for the next round.
	answerAs(d, tr, 14, nil)
	require.NoError(t, d.Init(context.Background()))
	assert.Equal(t, 3200, d.MaxRotorRPM())
}

func TestInit_TransportError(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	tr.err = errors.New("pipe broken")

	err := d.Init(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestReadSensors_DecodesAndCaches(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 14, statusReply(33, 1098, 2310, 40, 85))

	snap, err := d.ReadSensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(33000), snap.CoolantTempMilli)
	assert.Equal(t, uint16(1098), snap.FanRPM)
	assert.Equal(t, uint16(2310), snap.PumpRPM)
	assert.Equal(t, uint8(40), snap.FanDuty)
	assert.Equal(t, uint8(85), snap.PumpDuty)
	assert.Equal(t, 1, tr.writeCount())

	// A fresh cache serves reads without touching the transport.
	snap2, err := d.ReadSensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, snap2)
	assert.Equal(t, 1, tr.writeCount())
}

func TestReadSensors_RefreshAfterValidityWindow(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 14, statusReply(30, 1000, 2000, 30, 70))

	_, err := d.ReadSensors(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tr.writeCount())

	// Age the cache past the window instead of sleeping through it.
	d.mu.Lock()
	d.updated = time.Now().Add(-statusValidity)
	d.mu.Unlock()

	_, err = d.ReadSensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tr.writeCount())
}

func TestReadSensors_FirstReadAlwaysRefreshes(t *testing.T) {
	// A fresh device must never serve its zero-value snapshot.
	d, tr := testDevice(protocol.ProductWaterforceX)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.ReadSensors(ctx)
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 1, tr.writeCount())
}

func TestReadSensors_TimeoutLeavesCacheIntact(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 14, statusReply(30, 1000, 2000, 30, 70))

	snap, err := d.ReadSensors(context.Background())
	require.NoError(t, err)

	// Stop answering and age the cache.
	tr.reply = nil
	d.mu.Lock()
	d.updated = time.Now().Add(-statusValidity)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = d.ReadSensors(ctx)
	require.ErrorIs(t, err, ErrNoData)

	// The stored snapshot is unchanged; only its age made it unservable.
	d.mu.RLock()
	stored := d.snapshot
	d.mu.RUnlock()
	assert.Equal(t, snap, stored)
}

func TestReadSensors_ConcurrentReadersCoalesce(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 14, statusReply(31, 1100, 2100, 35, 75))

	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.ReadSensors(context.Background())
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tr.writeCount(), "stale readers must share one status query")
}

func TestHandleReport_CorrelationByKind(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)

	// The device answers a status query with a firmware report. The
	// status wait must not complete, but the version is still stored.
	tr.reply = func(report []byte) {
		d.HandleReport(firmwareReply(14))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.ReadSensors(ctx)
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 14, d.FirmwareVersion())

	// And the other way around: a status report must not complete a
	// firmware wait.
	tr.reply = func(report []byte) {
		d.HandleReport(statusReply(30, 1000, 2000, 30, 70))
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()

	err = d.Init(ctx2)
	require.ErrorIs(t, err, ErrNoData)
}

func TestHandleReport_UnrecognizedOpcode(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 14, statusReply(30, 1000, 2000, 30, 70))

	snap, err := d.ReadSensors(context.Background())
	require.NoError(t, err)

	d.mu.RLock()
	before := d.updated
	d.mu.RUnlock()

	d.HandleReport([]byte{0x99, 0x42, 0xFF, 0xFF})
	d.HandleReport(nil)

	d.mu.RLock()
	assert.Equal(t, snap, d.snapshot)
	assert.Equal(t, before, d.updated)
	d.mu.RUnlock()
}

func TestSetRotorSpeed_RequiresInit(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)

	err := d.SetRotorSpeed(protocol.ChannelFan, 1200)
	require.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 0, tr.writeCount())
}

func TestSetRotorSpeed_ValidatesAgainstCeiling(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)
	answerAs(d, tr, 13, nil) // ceiling 2800
	require.NoError(t, d.Init(context.Background()))

	writesAfterInit := tr.writeCount()

	err := d.SetRotorSpeed(protocol.ChannelPump, 3000)
	require.ErrorIs(t, err, protocol.ErrOutOfRange)
	assert.Equal(t, writesAfterInit, tr.writeCount(), "rejected target must not reach the transport")

	require.NoError(t, d.SetRotorSpeed(protocol.ChannelPump, 2800))
	assert.Equal(t, writesAfterInit+1, tr.writeCount())
}

func TestSetReferenceTemp(t *testing.T) {
	d, tr := testDevice(protocol.ProductWaterforceX)

	require.NoError(t, d.SetReferenceTemp(27))
	report := tr.lastWrite()
	require.Len(t, report, protocol.ReportLength)
	assert.Equal(t, protocol.OpcodeReferenceTemp, report[1])
	assert.Equal(t, byte(27), report[protocol.ReferenceTempOffset])

	err := d.SetReferenceTemp(300)
	require.ErrorIs(t, err, protocol.ErrOutOfRange)
	assert.Equal(t, 1, tr.writeCount())
}
