// internal/monitor/metrics.go
package monitor

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/aleksamagicka/gigabyte-waterforce-hwmon/internal/protocol"
)

// Monitor owns the Prometheus registry and the sensor gauges.
type Monitor struct {
	log *logrus.Logger
	reg *prometheus.Registry

	coolantTemp prometheus.Gauge
	fanRPM      prometheus.Gauge
	pumpRPM     prometheus.Gauge
	fanDuty     prometheus.Gauge
	pumpDuty    prometheus.Gauge

	deviceInfo *prometheus.GaugeVec

	reads        prometheus.Counter
	readErrors   prometheus.Counter
	exportErrors prometheus.Counter
}

func New(log *logrus.Logger) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Monitor{
		log: log,
		reg: prometheus.NewRegistry(),

		coolantTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waterforce_coolant_temp_celsius",
			Help: "Coolant temperature in degrees Celsius.",
		}),
		fanRPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waterforce_fan_rpm",
			Help: "Fan speed in RPM.",
		}),
		pumpRPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waterforce_pump_rpm",
			Help: "Pump speed in RPM.",
		}),
		fanDuty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waterforce_fan_duty_percent",
			Help: "Fan duty cycle in percent.",
		}),
		pumpDuty: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waterforce_pump_duty_percent",
			Help: "Pump duty cycle in percent.",
		}),
		deviceInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waterforce_device_info",
			Help: "Device identity; value is always 1.",
		}, []string{"device", "firmware_version", "max_rotor_rpm"}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waterforce_reads_total",
			Help: "Successful sensor reads.",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waterforce_read_errors_total",
			Help: "Sensor reads that failed or timed out.",
		}),
		exportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waterforce_export_errors_total",
			Help: "Telemetry deliveries that failed.",
		}),
	}

	m.reg.MustRegister(
		m.coolantTemp, m.fanRPM, m.pumpRPM, m.fanDuty, m.pumpDuty,
		m.deviceInfo, m.reads, m.readErrors, m.exportErrors,
	)

	return m
}

// SetDeviceInfo publishes the identity resolved at init time.
func (m *Monitor) SetDeviceInfo(device string, firmwareVersion, maxRotorRPM int) {
	m.deviceInfo.WithLabelValues(
		device,
		strconv.Itoa(firmwareVersion),
		strconv.Itoa(maxRotorRPM),
	).Set(1)
}

// ObserveSnapshot updates the sensor gauges from one decoded snapshot.
func (m *Monitor) ObserveSnapshot(snap protocol.Snapshot) {
	m.coolantTemp.Set(float64(snap.CoolantTempMilli) / 1000)
	m.fanRPM.Set(float64(snap.FanRPM))
	m.pumpRPM.Set(float64(snap.PumpRPM))
	m.fanDuty.Set(float64(snap.FanDuty))
	m.pumpDuty.Set(float64(snap.PumpDuty))
	m.reads.Inc()
}

func (m *Monitor) ObserveReadError()   { m.readErrors.Inc() }
func (m *Monitor) ObserveExportError() { m.exportErrors.Inc() }

// Serve exposes /metrics and /health on the given address.
// Runs in its own goroutine; errors are logged, not fatal.
func (m *Monitor) Serve(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	m.log.WithField("listen", listen).Info("metrics server starting")

	go func() {
		if err := http.ListenAndServe(listen, mux); err != nil {
			m.log.WithError(err).Error("metrics server failed")
		}
	}()
}
