// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if cfg.Device.Path == "" {
		return fmt.Errorf("config: device.path is required")
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	// 0 means "use the default"; only negative values are nonsense.
	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("config: poll.interval_ms must not be negative")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("config: log.level: %w", err)
		}
	}

	// ------------------------------------------------------------
	// EXPORTS (each opt-in)
	// ------------------------------------------------------------

	if m := cfg.Exports.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("config: exports.mqtt.broker is required")
		}
		if m.QoS > 2 {
			return fmt.Errorf("config: exports.mqtt.qos must be 0, 1 or 2")
		}
	}

	if m := cfg.Exports.Modbus; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("config: exports.modbus.endpoint is required")
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("config: exports.modbus.timeout_ms must not be negative")
		}
	}

	return nil
}
