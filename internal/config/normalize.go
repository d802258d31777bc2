// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultPollIntervalMs  = 1000
	DefaultLogLevel        = "info"
	DefaultMQTTTopic       = "waterforce/telemetry"
	DefaultModbusTimeoutMs = 2000
	DefaultMonitorListen   = ":9770"
)

// Normalize applies post-validation defaulting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultPollIntervalMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if m := cfg.Exports.MQTT; m != nil {
		if m.Topic == "" {
			m.Topic = DefaultMQTTTopic
		}
	}

	if m := cfg.Exports.Modbus; m != nil {
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultModbusTimeoutMs
		}
	}

	if cfg.Monitor.Enabled && cfg.Monitor.Listen == "" {
		cfg.Monitor.Listen = DefaultMonitorListen
	}
}
